package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/medlab/internal/domain/entities"
)

// EncounterRepository defines the interface for patient result operations
type EncounterRepository interface {
	// Create inserts an encounter and assigns its ID and timestamps
	Create(ctx context.Context, encounter *entities.Encounter) error

	// GetByID retrieves an encounter by ID
	GetByID(ctx context.Context, id int64) (*entities.Encounter, error)

	// List retrieves every encounter in insertion order
	List(ctx context.Context) ([]*entities.Encounter, error)

	// ListByDateRange retrieves encounters whose date falls within [start, end]
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*entities.Encounter, error)

	// ListByPatientID retrieves every encounter recorded for a patient ID
	ListByPatientID(ctx context.Context, patientID string) ([]*entities.Encounter, error)

	// Update merges patch into the stored encounter and returns the result
	Update(ctx context.Context, id int64, patch entities.EncounterPatch) (*entities.Encounter, error)

	// Delete removes an encounter, reporting whether it existed
	Delete(ctx context.Context, id int64) (bool, error)

	// Clear removes every encounter
	Clear(ctx context.Context) error
}
