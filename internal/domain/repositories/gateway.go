package repositories

import (
	"context"

	"github.com/zatekoja/medlab/internal/domain/entities"
)

// Gateway is the storage gateway over the hospital, tests and results
// collections.
type Gateway interface {
	Hospital() HospitalRepository
	Tests() TestDefinitionRepository
	Encounters() EncounterRepository

	// ExportAll snapshots every collection
	ExportAll(ctx context.Context) (*entities.Export, error)

	// ImportAll clears every collection and inserts the payload's records
	// with fresh IDs. Invalid or rejected records are counted as failed;
	// records written before a failure stay written.
	ImportAll(ctx context.Context, payload *entities.Export) (*entities.ImportResult, error)

	// ClearAll empties every collection
	ClearAll(ctx context.Context) error

	// Ping verifies the store responds
	Ping(ctx context.Context) error

	// Close releases the store
	Close() error
}
