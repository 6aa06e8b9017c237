package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zatekoja/medlab/internal/domain/entities"
	"github.com/zatekoja/medlab/internal/domain/repositories"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// EncounterService handles business logic for patient results
type EncounterService struct {
	repo     repositories.EncounterRepository
	tests    repositories.TestDefinitionRepository
	notifier ChangeNotifier
	now      func() time.Time
}

// NewEncounterService creates a new encounter service. tests resolves the
// catalog entries a draft refers to.
func NewEncounterService(repo repositories.EncounterRepository, tests repositories.TestDefinitionRepository, notifier ChangeNotifier) *EncounterService {
	return &EncounterService{
		repo:     repo,
		tests:    tests,
		notifier: notifierOrNop(notifier),
		now:      time.Now,
	}
}

// WithClock overrides the time used to date new encounters
func (s *EncounterService) WithClock(now func() time.Time) *EncounterService {
	s.now = now
	return s
}

// Add validates e, dates it now and stores it. Nothing reaches the store
// when validation fails.
func (s *EncounterService) Add(ctx context.Context, e *entities.Encounter) error {
	e.PatientName = strings.TrimSpace(e.PatientName)
	e.PatientID = strings.TrimSpace(e.PatientID)
	if err := e.Validate(); err != nil {
		return err
	}
	e.Date = s.now()

	if err := s.repo.Create(ctx, e); err != nil {
		return err
	}
	s.notifier.Notify(ctx, entities.CollectionResults, entities.ChangeCreated, e.ID)
	return nil
}

// Record turns a draft into an encounter. Each result's test name and
// current price are copied from the catalog into the line item.
func (s *EncounterService) Record(ctx context.Context, draft *entities.EncounterDraft) (*entities.Encounter, error) {
	if len(draft.Results) == 0 {
		return nil, apperrors.NewValidationError("at least one test result is required")
	}

	items := make([]entities.LineItem, 0, len(draft.Results))
	for i, result := range draft.Results {
		def, err := s.tests.GetByID(ctx, result.TestID)
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("test result %d refers to unknown test %d", i+1, result.TestID))
		}
		if err != nil {
			return nil, err
		}
		items = append(items, entities.LineItem{
			TestID:         def.ID,
			TestName:       def.Name,
			ReportedValue:  strings.TrimSpace(result.ReportedValue),
			ReferenceRange: strings.TrimSpace(result.ReferenceRange),
			Price:          def.Price,
		})
	}

	gender := draft.PatientGender
	if gender == "" {
		gender = entities.GenderMale
	}
	e := &entities.Encounter{
		PatientName:   draft.PatientName,
		PatientAge:    draft.PatientAge,
		PatientGender: gender,
		PatientID:     draft.PatientID,
		LineItems:     items,
	}
	if err := s.Add(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update merges patch into encounter id. The encounter date never changes.
func (s *EncounterService) Update(ctx context.Context, id int64, patch entities.EncounterPatch) (*entities.Encounter, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	e, err := s.repo.Update(ctx, id, patch)
	if apperrors.IsNotFound(err) {
		return nil, encounterNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, entities.CollectionResults, entities.ChangeUpdated, id)
	return e, nil
}

// Delete removes encounter id and reports whether it existed
func (s *EncounterService) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.notifier.Notify(ctx, entities.CollectionResults, entities.ChangeDeleted, id)
	}
	return deleted, nil
}

// Get retrieves an encounter by ID
func (s *EncounterService) Get(ctx context.Context, id int64) (*entities.Encounter, error) {
	e, err := s.repo.GetByID(ctx, id)
	if apperrors.IsNotFound(err) {
		return nil, encounterNotFound(id)
	}
	return e, err
}

// List retrieves every encounter
func (s *EncounterService) List(ctx context.Context) ([]*entities.Encounter, error) {
	return s.repo.List(ctx)
}

// Search matches term case-insensitively against patient name and patient
// ID. An empty term returns every encounter.
func (s *EncounterService) Search(ctx context.Context, term string) ([]*entities.Encounter, error) {
	encounters, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return encounters, nil
	}

	matches := make([]*entities.Encounter, 0)
	for _, e := range encounters {
		if strings.Contains(strings.ToLower(e.PatientName), term) || strings.Contains(strings.ToLower(e.PatientID), term) {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// ByDateRange returns encounters dated within [start, end]. Both bounds are
// required and checked before the store is queried.
func (s *EncounterService) ByDateRange(ctx context.Context, start, end time.Time) ([]*entities.Encounter, error) {
	if start.IsZero() || end.IsZero() {
		return nil, apperrors.NewValidationError("both a start and an end date are required")
	}
	if start.After(end) {
		return nil, apperrors.NewInvalidDateRangeError(
			fmt.Sprintf("start %s is after end %s", start.Format(time.RFC3339), end.Format(time.RFC3339)))
	}
	return s.repo.ListByDateRange(ctx, start, end)
}

// ByPatientID returns every encounter recorded for patientID
func (s *EncounterService) ByPatientID(ctx context.Context, patientID string) ([]*entities.Encounter, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, apperrors.NewValidationError("patient ID is required")
	}
	return s.repo.ListByPatientID(ctx, patientID)
}

func encounterNotFound(id int64) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("result %d not found", id))
}
