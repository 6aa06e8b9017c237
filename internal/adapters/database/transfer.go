package database

import (
	"context"

	"github.com/zatekoja/medlab/internal/domain/entities"
	"github.com/zatekoja/medlab/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// ExportAll snapshots every collection
func (s *Store) ExportAll(ctx context.Context) (*entities.Export, error) {
	hospital, err := s.hospital.Get(ctx)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}
	tests, err := s.tests.List(ctx)
	if err != nil {
		return nil, err
	}
	results, err := s.encounters.List(ctx)
	if err != nil {
		return nil, err
	}

	return &entities.Export{
		Version:    entities.ExportVersion,
		ExportDate: s.now(),
		Data: entities.ExportData{
			Hospital: hospital,
			Tests:    tests,
			Results:  results,
		},
	}, nil
}

// ImportAll replaces the store contents with payload. IDs in the payload
// are discarded. Records that are not importable, or that the store
// rejects, are counted as failed and the import carries on. A failure to
// clear the store aborts before anything is written.
func (s *Store) ImportAll(ctx context.Context, payload *entities.Export) (*entities.ImportResult, error) {
	if payload == nil {
		return nil, apperrors.NewValidationError("import payload is empty")
	}
	if err := s.ClearAll(ctx); err != nil {
		return nil, err
	}

	result := &entities.ImportResult{}
	logger := observability.LoggerFromContext(ctx)

	if h := payload.Data.Hospital; h != nil {
		profile := *h
		profile.ID = 0
		if err := s.hospital.restore(ctx, &profile); err != nil {
			logger.Warn().Err(err).Msg("skipping hospital profile during import")
		} else {
			result.Hospital = true
		}
	}

	for _, t := range payload.Data.Tests {
		if !t.Importable() {
			result.Tests.Failed++
			continue
		}
		def := *t
		def.ID = 0
		if err := s.tests.restore(ctx, &def); err != nil {
			logger.Warn().Err(err).Str("test", def.Name).Msg("skipping test during import")
			result.Tests.Failed++
			continue
		}
		result.Tests.Imported++
	}

	for _, e := range payload.Data.Results {
		if !e.Importable() {
			result.Results.Failed++
			continue
		}
		encounter := *e
		encounter.ID = 0
		encounter.LineItems = append([]entities.LineItem(nil), e.LineItems...)
		if err := s.encounters.restore(ctx, &encounter); err != nil {
			logger.Warn().Err(err).Str("patient_id", encounter.PatientID).Msg("skipping result during import")
			result.Results.Failed++
			continue
		}
		result.Results.Imported++
	}

	return result, nil
}
