package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/medlab/internal/domain/entities"
	"github.com/zatekoja/medlab/internal/domain/providers"
	"github.com/zatekoja/medlab/internal/domain/repositories"
	"github.com/zatekoja/medlab/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// Confirmation prompts shown for destructive actions
const (
	ActionImport  = "replace all data with the imported file"
	ActionClear   = "delete all data"
	ActionRestore = "replace all data with the backup"
)

// BackupKeyPrefix is the folder backups are written under
const BackupKeyPrefix = "backups/"

// TransferService exports, imports, clears and backs up the whole store
type TransferService struct {
	gateway  repositories.Gateway
	codec    providers.ExportCodec
	sink     providers.BackupSink
	notifier ChangeNotifier
	now      func() time.Time
}

// NewTransferService creates a new transfer service. sink may be nil when
// backups are not configured.
func NewTransferService(gateway repositories.Gateway, codec providers.ExportCodec, sink providers.BackupSink, notifier ChangeNotifier) *TransferService {
	return &TransferService{
		gateway:  gateway,
		codec:    codec,
		sink:     sink,
		notifier: notifierOrNop(notifier),
		now:      time.Now,
	}
}

// WithClock overrides the time used to name backups
func (s *TransferService) WithClock(now func() time.Time) *TransferService {
	s.now = now
	return s
}

// Export snapshots the store
func (s *TransferService) Export(ctx context.Context) (*entities.Export, error) {
	return s.gateway.ExportAll(ctx)
}

// ExportFile snapshots the store as an export file
func (s *TransferService) ExportFile(ctx context.Context) ([]byte, error) {
	export, err := s.gateway.ExportAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.codec.Encode(export)
}

// Import decodes data and, once confirmed, replaces the store with it. The
// file is validated before confirmation is asked for. Records dropped by
// the decoder are counted as failed.
func (s *TransferService) Import(ctx context.Context, data []byte, confirmation Confirmation) (*entities.ImportResult, error) {
	payload, err := s.codec.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := confirm(ctx, confirmation, ActionImport); err != nil {
		return nil, err
	}
	return s.importPayload(ctx, payload)
}

func (s *TransferService) importPayload(ctx context.Context, payload *entities.ImportPayload) (*entities.ImportResult, error) {
	result, err := s.gateway.ImportAll(ctx, payload.Export)
	// The store was cleared even when the import stopped early.
	s.notifier.Notify(ctx, entities.CollectionAll, entities.ChangeImported, 0)
	if err != nil {
		return nil, err
	}
	result.Tests.Failed += payload.Rejected.Tests
	result.Results.Failed += payload.Rejected.Results

	observability.LoggerFromContext(ctx).Info().
		Bool("hospital", result.Hospital).
		Int("tests_imported", result.Tests.Imported).
		Int("tests_failed", result.Tests.Failed).
		Int("results_imported", result.Results.Imported).
		Int("results_failed", result.Results.Failed).
		Msg("import finished")
	return result, nil
}

// Clear empties every collection once confirmed
func (s *TransferService) Clear(ctx context.Context, confirmation Confirmation) error {
	if err := confirm(ctx, confirmation, ActionClear); err != nil {
		return err
	}
	if err := s.gateway.ClearAll(ctx); err != nil {
		return err
	}
	s.notifier.Notify(ctx, entities.CollectionAll, entities.ChangeCleared, 0)
	return nil
}

// Backup writes an export file to the backup sink and returns its key
func (s *TransferService) Backup(ctx context.Context) (string, error) {
	if s.sink == nil {
		return "", apperrors.NewValidationError("no backup destination is configured")
	}
	data, err := s.ExportFile(ctx)
	if err != nil {
		return "", err
	}

	key := backupKey(s.now())
	if err := s.sink.Put(ctx, key, data); err != nil {
		return "", err
	}
	observability.LoggerFromContext(ctx).Info().
		Str("key", key).
		Str("driver", s.sink.Driver()).
		Int("bytes", len(data)).
		Msg("backup written")
	return key, nil
}

// ListBackups returns the stored backup keys in order
func (s *TransferService) ListBackups(ctx context.Context) ([]string, error) {
	if s.sink == nil {
		return nil, apperrors.NewValidationError("no backup destination is configured")
	}
	return s.sink.List(ctx, BackupKeyPrefix)
}

// Restore replaces the store with the backup stored under key once
// confirmed
func (s *TransferService) Restore(ctx context.Context, key string, confirmation Confirmation) (*entities.ImportResult, error) {
	if s.sink == nil {
		return nil, apperrors.NewValidationError("no backup destination is configured")
	}
	if !strings.HasPrefix(key, BackupKeyPrefix) {
		key = BackupKeyPrefix + key
	}
	data, err := s.sink.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	payload, err := s.codec.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := confirm(ctx, confirmation, ActionRestore); err != nil {
		return nil, err
	}
	return s.importPayload(ctx, payload)
}

// backupKeyLayout keeps keys in chronological order when sorted.
const backupKeyLayout = "20060102T150405.000Z"

// backupKey is unique even for backups taken within the same millisecond.
func backupKey(t time.Time) string {
	return BackupKeyPrefix + "lab-" + t.UTC().Format(backupKeyLayout) + "-" + uuid.NewString()[:8] + ".json"
}
