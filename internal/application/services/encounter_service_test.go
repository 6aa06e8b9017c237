package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medlab/internal/adapters/database"
	"github.com/zatekoja/medlab/internal/application/services"
	"github.com/zatekoja/medlab/internal/domain/entities"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

type labFixture struct {
	clock      *clock
	store      *database.Store
	catalog    *services.CatalogService
	encounters *services.EncounterService
}

func newLabFixture(t *testing.T, notifier services.ChangeNotifier) *labFixture {
	t.Helper()
	c := newClock(testNow)
	store := newTestStore(t, c)
	return &labFixture{
		clock:      c,
		store:      store,
		catalog:    services.NewCatalogService(store.Tests(), notifier),
		encounters: services.NewEncounterService(store.Encounters(), store.Tests(), notifier).WithClock(c.Now),
	}
}

func (f *labFixture) addTest(t *testing.T, name string, price float64) *entities.TestDefinition {
	t.Helper()
	def := &entities.TestDefinition{Name: name, Price: price}
	require.NoError(t, f.catalog.Add(context.Background(), def))
	return def
}

// recordAt records an encounter dated at when.
func (f *labFixture) recordAt(t *testing.T, when time.Time, patientID string, tests ...*entities.TestDefinition) *entities.Encounter {
	t.Helper()
	draft := &entities.EncounterDraft{
		PatientName:   "Patient " + patientID,
		PatientAge:    40,
		PatientGender: entities.GenderFemale,
		PatientID:     patientID,
	}
	for _, def := range tests {
		draft.Results = append(draft.Results, entities.DraftResult{TestID: def.ID, ReportedValue: "normal", ReferenceRange: "-"})
	}
	f.clock.Set(when)
	defer f.clock.Set(testNow)

	e, err := f.encounters.Record(context.Background(), draft)
	require.NoError(t, err)
	return e
}

func TestEncounterService_RecordSnapshotsCatalog(t *testing.T) {
	ctx := context.Background()
	f := newLabFixture(t, nil)
	cbc := f.addTest(t, "CBC", 150)

	e, err := f.encounters.Record(ctx, &entities.EncounterDraft{
		PatientName: " Omar ",
		PatientID:   "P-1",
		Results:     []entities.DraftResult{{TestID: cbc.ID, ReportedValue: " 13.5 ", ReferenceRange: "12-16"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Omar", e.PatientName)
	assert.Equal(t, entities.GenderMale, e.PatientGender)
	assert.True(t, e.Date.Equal(testNow))
	require.Len(t, e.LineItems, 1)
	assert.Equal(t, entities.LineItem{TestID: cbc.ID, TestName: "CBC", ReportedValue: "13.5", ReferenceRange: "12-16", Price: 150}, e.LineItems[0])

	price := 300.0
	_, err = f.catalog.Update(ctx, cbc.ID, entities.TestDefinitionPatch{Price: &price})
	require.NoError(t, err)
	_, err = f.catalog.Delete(ctx, cbc.ID)
	require.NoError(t, err)

	stored, err := f.encounters.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "CBC", stored.LineItems[0].TestName)
	assert.Equal(t, 150.0, stored.LineItems[0].Price)
}

func TestEncounterService_RecordUnknownTest(t *testing.T) {
	f := newLabFixture(t, nil)

	_, err := f.encounters.Record(context.Background(), &entities.EncounterDraft{
		PatientName: "Omar",
		PatientID:   "P-1",
		Results:     []entities.DraftResult{{TestID: 42}},
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidInput))
	assert.ErrorContains(t, err, "unknown test 42")

	_, err = f.encounters.Record(context.Background(), &entities.EncounterDraft{PatientName: "Omar", PatientID: "P-1"})
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidInput))
}

func TestEncounterService_AddValidatesBeforeStoring(t *testing.T) {
	repo := &MockEncounterRepository{}
	svc := services.NewEncounterService(repo, &MockTestDefinitionRepository{}, nil)

	e := newEncounter("Sara", "P-2")
	err := svc.Add(context.Background(), e)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidInput))

	bad := newEncounter("Sara", "P-2", lineItem(1, "CBC", 150))
	bad.PatientGender = "other"
	err = svc.Add(context.Background(), bad)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidInput))

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEncounterService_UpdateKeepsDate(t *testing.T) {
	ctx := context.Background()
	f := newLabFixture(t, nil)
	cbc := f.addTest(t, "CBC", 150)
	day := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	e := f.recordAt(t, day, "P-3", cbc)

	age := 41
	updated, err := f.encounters.Update(ctx, e.ID, entities.EncounterPatch{PatientAge: &age})
	require.NoError(t, err)
	assert.Equal(t, 41, updated.PatientAge)
	assert.True(t, updated.Date.Equal(day))

	_, err = f.encounters.Update(ctx, 999, entities.EncounterPatch{PatientAge: &age})
	assert.True(t, apperrors.IsNotFound(err))
	assert.ErrorContains(t, err, "result 999 not found")

	deleted, err := f.encounters.Delete(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = f.encounters.Get(ctx, e.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestEncounterService_ByDateRange(t *testing.T) {
	ctx := context.Background()
	f := newLabFixture(t, nil)
	cbc := f.addTest(t, "CBC", 150)

	f.recordAt(t, time.Date(2024, 4, 20, 8, 0, 0, 0, time.UTC), "P-1", cbc)
	f.recordAt(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), "P-2", cbc)
	f.recordAt(t, time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC), "P-3", cbc)

	may, err := f.encounters.ByDateRange(ctx,
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, may, 2)
	assert.Equal(t, "P-2", may[0].PatientID)
	assert.Equal(t, "P-3", may[1].PatientID)

	none, err := f.encounters.ByDateRange(ctx,
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestEncounterService_ByDateRangeChecksBoundsFirst(t *testing.T) {
	repo := &MockEncounterRepository{}
	svc := services.NewEncounterService(repo, &MockTestDefinitionRepository{}, nil)
	start := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.ByDateRange(context.Background(), start, end)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidDateRange))

	_, err = svc.ByDateRange(context.Background(), start, time.Time{})
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidInput))

	repo.AssertNotCalled(t, "ListByDateRange", mock.Anything, mock.Anything, mock.Anything)
}

func TestEncounterService_SearchAndPatientID(t *testing.T) {
	ctx := context.Background()
	f := newLabFixture(t, nil)
	cbc := f.addTest(t, "CBC", 150)

	f.recordAt(t, testNow, "P-100", cbc)
	f.recordAt(t, testNow, "P-200", cbc)
	f.recordAt(t, testNow, "P-100", cbc)

	byID, err := f.encounters.ByPatientID(ctx, " P-100 ")
	require.NoError(t, err)
	assert.Len(t, byID, 2)

	_, err = f.encounters.ByPatientID(ctx, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidInput))

	matches, err := f.encounters.Search(ctx, "p-2")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "P-200", matches[0].PatientID)

	matches, err = f.encounters.Search(ctx, "patient")
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}
