package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medlab/internal/adapters/backup"
	"github.com/zatekoja/medlab/internal/adapters/transfer"
	"github.com/zatekoja/medlab/internal/application/services"
	"github.com/zatekoja/medlab/internal/domain/entities"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

func seededTransfer(t *testing.T, sink *MockBackupSink) (*labFixture, *services.TransferService) {
	t.Helper()
	f := newLabFixture(t, nil)
	require.NoError(t, services.NewHospitalService(f.store.Hospital(), nil).Save(context.Background(),
		&entities.HospitalProfile{Name: "Al Noor", Email: "lab@alnoor.example"}))
	cbc := f.addTest(t, "CBC", 150)
	glucose := f.addTest(t, "Glucose", 50)
	f.recordAt(t, testNow, "P-1", cbc, glucose)
	f.recordAt(t, testNow.Add(-24*time.Hour), "P-2", cbc)

	var svc *services.TransferService
	if sink == nil {
		svc = services.NewTransferService(f.store, transfer.Codec{}, nil, nil)
	} else {
		svc = services.NewTransferService(f.store, transfer.Codec{}, sink, nil)
	}
	return f, svc.WithClock(f.clock.Now)
}

func refuseConfirmation(t *testing.T) services.Confirmation {
	return func(context.Context, string) (bool, error) {
		t.Fatal("confirmation must not be requested")
		return false, nil
	}
}

func TestTransferService_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, source := seededTransfer(t, nil)

	data, err := source.ExportFile(ctx)
	require.NoError(t, err)

	target := newLabFixture(t, nil)
	target.addTest(t, "Stale", 10)
	notifier := &recordingNotifier{}
	svc := services.NewTransferService(target.store, transfer.Codec{}, nil, notifier)

	var asked string
	result, err := svc.Import(ctx, data, func(_ context.Context, action string) (bool, error) {
		asked = action
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, services.ActionImport, asked)
	assert.Equal(t, &entities.ImportResult{
		Hospital: true,
		Tests:    entities.ImportCount{Imported: 2},
		Results:  entities.ImportCount{Imported: 2},
	}, result)
	assert.Equal(t, []string{"all:imported"}, notifier.Changes())

	exported, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Al Noor", exported.Data.Hospital.Name)
	require.Len(t, exported.Data.Tests, 2)
	assert.Equal(t, "CBC", exported.Data.Tests[0].Name)
	require.Len(t, exported.Data.Results, 2)
	assert.True(t, exported.Data.Results[0].Date.Equal(testNow))
	assert.Equal(t, 150.0, exported.Data.Results[0].LineItems[0].Price)
}

func TestTransferService_ImportDeclined(t *testing.T) {
	ctx := context.Background()
	f, svc := seededTransfer(t, nil)
	data, err := svc.ExportFile(ctx)
	require.NoError(t, err)
	f.addTest(t, "Ferritin", 70)

	_, err = svc.Import(ctx, data, services.Declined)
	assert.ErrorIs(t, err, services.ErrNotConfirmed)

	_, err = svc.Import(ctx, data, nil)
	assert.ErrorIs(t, err, services.ErrNotConfirmed)

	tests, err := f.catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tests, 3)
}

func TestTransferService_ImportValidatesBeforeConfirming(t *testing.T) {
	_, svc := seededTransfer(t, nil)

	for _, data := range []string{`not json`, `{"version":1}`, `{"version":2,"data":{"tests":[],"results":[]}}`} {
		_, err := svc.Import(context.Background(), []byte(data), refuseConfirmation(t))
		assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidInput), data)
	}
}

func TestTransferService_ImportCountsRejectedRecords(t *testing.T) {
	ctx := context.Background()
	f := newLabFixture(t, nil)
	svc := services.NewTransferService(f.store, transfer.Codec{}, nil, nil)

	data := []byte(`{
		"version": 1,
		"data": {
			"hospital": null,
			"tests": [{"name": "CBC", "price": "150"}, {"price": 20}, {"name": "CBC", "price": 90}],
			"results": [
				{"patientName": "Sara", "patientID": "P-1", "testsResults": [{"testName": "CBC", "price": 150}]},
				{"patientName": "No ID", "testsResults": [{"testName": "CBC", "price": 150}]}
			]
		}
	}`)
	result, err := svc.Import(ctx, data, services.Confirmed)
	require.NoError(t, err)
	assert.False(t, result.Hospital)
	assert.Equal(t, entities.ImportCount{Imported: 1, Failed: 2}, result.Tests)
	assert.Equal(t, entities.ImportCount{Imported: 1, Failed: 1}, result.Results)
	assert.Equal(t, 3, result.Failed())
}

func TestTransferService_NotifiesWhenImportFails(t *testing.T) {
	gateway := NewMockGateway()
	gateway.On("ImportAll", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewStorageUnavailableError("disk full", errors.New("ENOSPC")))
	notifier := &recordingNotifier{}
	svc := services.NewTransferService(gateway, transfer.Codec{}, nil, notifier)

	_, err := svc.Import(context.Background(), []byte(`{"version":1,"data":{"tests":[],"results":[]}}`), services.Confirmed)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeStorageUnavailable))
	assert.Equal(t, []string{"all:imported"}, notifier.Changes())
	gateway.AssertExpectations(t)
}

func TestTransferService_Clear(t *testing.T) {
	ctx := context.Background()
	f, svc := seededTransfer(t, nil)

	assert.ErrorIs(t, svc.Clear(ctx, services.Declined), services.ErrNotConfirmed)
	tests, err := f.catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tests, 2)

	require.NoError(t, svc.Clear(ctx, services.Confirmed))
	export, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Nil(t, export.Data.Hospital)
	assert.Empty(t, export.Data.Tests)
	assert.Empty(t, export.Data.Results)

	confirmErr := errors.New("prompt closed")
	err = svc.Clear(ctx, func(context.Context, string) (bool, error) { return false, confirmErr })
	assert.ErrorIs(t, err, confirmErr)
}

func TestTransferService_BackupAndRestore(t *testing.T) {
	ctx := context.Background()
	sink := NewMockBackupSink()
	f, svc := seededTransfer(t, sink)

	key, err := svc.Backup(ctx)
	require.NoError(t, err)
	assert.Regexp(t, `^backups/lab-20240515T100000\.000Z-[0-9a-f]{8}\.json$`, key)

	sameInstant, err := svc.Backup(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, key, sameInstant)

	f.clock.Set(testNow.Add(time.Minute))
	later, err := svc.Backup(ctx)
	require.NoError(t, err)

	keys, err := svc.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 3)
	assert.ElementsMatch(t, []string{key, sameInstant}, keys[:2])
	assert.Equal(t, later, keys[2])

	require.NoError(t, svc.Clear(ctx, services.Confirmed))
	result, err := svc.Restore(ctx, strings.TrimPrefix(key, services.BackupKeyPrefix), services.Confirmed)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Tests.Imported)
	assert.Equal(t, 2, result.Results.Imported)

	_, err = svc.Restore(ctx, "lab-19990101T000000Z.json", refuseConfirmation(t))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTransferService_BackupToDirectory(t *testing.T) {
	ctx := context.Background()
	f := newLabFixture(t, nil)
	f.addTest(t, "CBC", 150)
	sink, err := backup.NewFSSink(t.TempDir())
	require.NoError(t, err)
	svc := services.NewTransferService(f.store, transfer.Codec{}, sink, nil).WithClock(f.clock.Now)

	key, err := svc.Backup(ctx)
	require.NoError(t, err)
	keys, err := svc.ListBackups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	result, err := svc.Restore(ctx, key, services.Confirmed)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Tests.Imported)
}

func TestTransferService_BackupNeedsSink(t *testing.T) {
	_, svc := seededTransfer(t, nil)

	_, err := svc.Backup(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidInput))
	_, err = svc.ListBackups(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidInput))
	_, err = svc.Restore(context.Background(), "lab.json", services.Confirmed)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidInput))
}
