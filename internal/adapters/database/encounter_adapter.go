package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/zatekoja/medlab/internal/domain/entities"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// EncounterAdapter implements EncounterRepository
type EncounterAdapter struct {
	store *Store
}

var encounterColumns = []interface{}{
	"id", "patient_name", "patient_age", "patient_gender", "patient_id",
	"date", "line_items", "created_at", "updated_at",
}

// Create inserts an encounter. The encounter date is taken as given.
func (a *EncounterAdapter) Create(ctx context.Context, encounter *entities.Encounter) error {
	now := a.store.stamp()
	encounter.CreatedAt = now
	encounter.UpdatedAt = now
	if encounter.Date.IsZero() {
		encounter.Date = now
	}
	return a.insert(ctx, encounter)
}

// restore inserts encounter keeping any timestamps it carries
func (a *EncounterAdapter) restore(ctx context.Context, encounter *entities.Encounter) error {
	if encounter.CreatedAt.IsZero() {
		encounter.CreatedAt = a.store.stamp()
	}
	if encounter.UpdatedAt.IsZero() {
		encounter.UpdatedAt = encounter.CreatedAt
	}
	if encounter.Date.IsZero() {
		encounter.Date = encounter.CreatedAt
	}
	return a.insert(ctx, encounter)
}

func (a *EncounterAdapter) insert(ctx context.Context, encounter *entities.Encounter) error {
	record, err := encounterRecord(encounter)
	if err != nil {
		return err
	}
	record["date"] = toMillis(encounter.Date)
	record["created_at"] = toMillis(encounter.CreatedAt)

	id, err := a.store.insert(ctx, tableResults, record)
	if err != nil {
		return err
	}
	encounter.ID = id
	return nil
}

// GetByID retrieves an encounter by ID
func (a *EncounterAdapter) GetByID(ctx context.Context, id int64) (*entities.Encounter, error) {
	query, args, err := a.store.db.Select(encounterColumns...).
		From(tableResults).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	encounter, err := scanEncounter(a.store.queryRow(ctx, "select results", query, args))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("result with id %d not found", id))
	}
	if err != nil {
		return nil, apperrors.NewStorageUnavailableError("failed to get result", err)
	}
	return encounter, nil
}

// List retrieves every encounter in insertion order
func (a *EncounterAdapter) List(ctx context.Context) ([]*entities.Encounter, error) {
	return a.list(ctx, nil)
}

// ListByDateRange retrieves encounters dated within [start, end]
func (a *EncounterAdapter) ListByDateRange(ctx context.Context, start, end time.Time) ([]*entities.Encounter, error) {
	return a.list(ctx, goqu.And(
		goqu.C("date").Gte(start.UnixMilli()),
		goqu.C("date").Lte(end.UnixMilli()),
	))
}

// ListByPatientID retrieves every encounter recorded under patientID
func (a *EncounterAdapter) ListByPatientID(ctx context.Context, patientID string) ([]*entities.Encounter, error) {
	return a.list(ctx, goqu.Ex{"patient_id": patientID})
}

func (a *EncounterAdapter) list(ctx context.Context, where exp.Expression) ([]*entities.Encounter, error) {
	ds := a.store.db.Select(encounterColumns...).From(tableResults)
	if where != nil {
		ds = ds.Where(where)
	}
	query, args, err := ds.Order(goqu.C("id").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.store.query(ctx, "select results", query, args)
	if err != nil {
		return nil, apperrors.NewStorageUnavailableError("failed to list results", err)
	}
	defer rows.Close()

	encounters := []*entities.Encounter{}
	for rows.Next() {
		encounter, err := scanEncounter(rows)
		if err != nil {
			return nil, apperrors.NewStorageUnavailableError("failed to scan result", err)
		}
		encounters = append(encounters, encounter)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageUnavailableError("failed to list results", err)
	}
	return encounters, nil
}

// Update merges patch into the stored encounter. The date is never changed.
func (a *EncounterAdapter) Update(ctx context.Context, id int64, patch entities.EncounterPatch) (*entities.Encounter, error) {
	encounter, err := a.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(encounter)
	encounter.UpdatedAt = a.store.stamp()

	record, err := encounterRecord(encounter)
	if err != nil {
		return nil, err
	}

	found, err := a.store.updateByID(ctx, tableResults, id, record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("result with id %d not found", id))
	}
	return encounter, nil
}

// Delete removes an encounter
func (a *EncounterAdapter) Delete(ctx context.Context, id int64) (bool, error) {
	return a.store.deleteByID(ctx, tableResults, id)
}

// Clear removes every encounter
func (a *EncounterAdapter) Clear(ctx context.Context) error {
	return a.store.clear(ctx, tableResults)
}

// encounterRecord holds the mutable columns; date and created_at are
// written only on insert.
func encounterRecord(encounter *entities.Encounter) (goqu.Record, error) {
	items := encounter.LineItems
	if items == nil {
		items = []entities.LineItem{}
	}
	lineItems, err := json.Marshal(items)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode test results", err)
	}

	return goqu.Record{
		"patient_name":   encounter.PatientName,
		"patient_age":    encounter.PatientAge,
		"patient_gender": string(encounter.PatientGender),
		"patient_id":     encounter.PatientID,
		"line_items":     string(lineItems),
		"updated_at":     toMillis(encounter.UpdatedAt),
	}, nil
}

func scanEncounter(row rowScanner) (*entities.Encounter, error) {
	encounter := &entities.Encounter{}
	var gender, lineItems string
	var date, createdAt, updatedAt int64

	err := row.Scan(
		&encounter.ID,
		&encounter.PatientName,
		&encounter.PatientAge,
		&gender,
		&encounter.PatientID,
		&date,
		&lineItems,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(lineItems), &encounter.LineItems); err != nil {
		return nil, fmt.Errorf("decode test results of result %d: %w", encounter.ID, err)
	}
	encounter.PatientGender = entities.Gender(gender)
	encounter.Date = fromMillis(date)
	encounter.CreatedAt = fromMillis(createdAt)
	encounter.UpdatedAt = fromMillis(updatedAt)
	return encounter, nil
}
