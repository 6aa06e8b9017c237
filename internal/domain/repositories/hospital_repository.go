package repositories

import (
	"context"

	"github.com/zatekoja/medlab/internal/domain/entities"
)

// HospitalRepository defines the singleton hospital profile store
type HospitalRepository interface {
	// Get returns the profile, or a not found error when none was saved
	Get(ctx context.Context) (*entities.HospitalProfile, error)

	// Save creates the profile on first call and updates it in place afterwards
	Save(ctx context.Context, profile *entities.HospitalProfile) error

	// Clear removes the profile
	Clear(ctx context.Context) error
}
