package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/medlab/internal/domain/entities"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// HospitalAdapter implements HospitalRepository
type HospitalAdapter struct {
	store *Store
}

var hospitalColumns = []interface{}{
	"id", "name", "phone", "email", "address", "department",
	"map_link", "license_number", "created_at", "updated_at",
}

// Get returns the stored profile
func (a *HospitalAdapter) Get(ctx context.Context) (*entities.HospitalProfile, error) {
	query, args, err := a.store.db.Select(hospitalColumns...).
		From(tableHospital).
		Order(goqu.C("id").Asc()).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	profile := &entities.HospitalProfile{}
	var createdAt, updatedAt int64
	err = a.store.queryRow(ctx, "select hospital", query, args).Scan(
		&profile.ID,
		&profile.Name,
		&profile.Phone,
		&profile.Email,
		&profile.Address,
		&profile.Department,
		&profile.MapLink,
		&profile.LicenseNumber,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("hospital profile has not been saved")
	}
	if err != nil {
		return nil, apperrors.NewStorageUnavailableError("failed to get hospital profile", err)
	}

	profile.CreatedAt = fromMillis(createdAt)
	profile.UpdatedAt = fromMillis(updatedAt)
	return profile, nil
}

// Save creates the profile or updates the existing one in place. The
// original creation time is kept.
func (a *HospitalAdapter) Save(ctx context.Context, profile *entities.HospitalProfile) error {
	existing, err := a.Get(ctx)
	if err != nil && !apperrors.IsNotFound(err) {
		return err
	}

	now := a.store.stamp()
	profile.UpdatedAt = now

	if existing == nil {
		profile.CreatedAt = now
		return a.insert(ctx, profile)
	}

	profile.ID = existing.ID
	profile.CreatedAt = existing.CreatedAt
	record := hospitalRecord(profile)
	delete(record, "created_at")

	found, err := a.store.updateByID(ctx, tableHospital, existing.ID, record)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.NewNotFoundError("hospital profile disappeared during save")
	}
	return nil
}

// restore inserts profile keeping any timestamps it carries
func (a *HospitalAdapter) restore(ctx context.Context, profile *entities.HospitalProfile) error {
	now := a.store.stamp()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = profile.CreatedAt
	}
	return a.insert(ctx, profile)
}

func (a *HospitalAdapter) insert(ctx context.Context, profile *entities.HospitalProfile) error {
	id, err := a.store.insert(ctx, tableHospital, hospitalRecord(profile))
	if err != nil {
		return err
	}
	profile.ID = id
	return nil
}

// Clear removes the profile
func (a *HospitalAdapter) Clear(ctx context.Context) error {
	return a.store.clear(ctx, tableHospital)
}

func hospitalRecord(profile *entities.HospitalProfile) goqu.Record {
	return goqu.Record{
		"name":           profile.Name,
		"phone":          profile.Phone,
		"email":          profile.Email,
		"address":        profile.Address,
		"department":     profile.Department,
		"map_link":       profile.MapLink,
		"license_number": profile.LicenseNumber,
		"created_at":     toMillis(profile.CreatedAt),
		"updated_at":     toMillis(profile.UpdatedAt),
	}
}
