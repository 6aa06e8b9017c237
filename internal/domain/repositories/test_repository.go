package repositories

import (
	"context"

	"github.com/zatekoja/medlab/internal/domain/entities"
)

// TestDefinitionRepository defines the interface for catalog data operations
type TestDefinitionRepository interface {
	// Create inserts a definition and assigns its ID and timestamps
	Create(ctx context.Context, def *entities.TestDefinition) error

	// GetByID retrieves a definition by ID
	GetByID(ctx context.Context, id int64) (*entities.TestDefinition, error)

	// GetByName retrieves a definition by its exact name
	GetByName(ctx context.Context, name string) (*entities.TestDefinition, error)

	// List retrieves every definition in insertion order
	List(ctx context.Context) ([]*entities.TestDefinition, error)

	// Update merges patch into the stored definition and returns the result
	Update(ctx context.Context, id int64, patch entities.TestDefinitionPatch) (*entities.TestDefinition, error)

	// Delete removes a definition, reporting whether it existed
	Delete(ctx context.Context, id int64) (bool, error)

	// Clear removes every definition
	Clear(ctx context.Context) error
}
