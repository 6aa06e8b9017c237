package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/zatekoja/medlab/internal/domain/entities"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// TestDefinitionAdapter implements TestDefinitionRepository
type TestDefinitionAdapter struct {
	store *Store
}

var testColumns = []interface{}{"id", "name", "price", "description", "created_at", "updated_at"}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Create inserts a definition
func (a *TestDefinitionAdapter) Create(ctx context.Context, def *entities.TestDefinition) error {
	now := a.store.stamp()
	def.CreatedAt = now
	def.UpdatedAt = now
	return a.insert(ctx, def)
}

// restore inserts def keeping any timestamps it carries
func (a *TestDefinitionAdapter) restore(ctx context.Context, def *entities.TestDefinition) error {
	if def.CreatedAt.IsZero() {
		def.CreatedAt = a.store.stamp()
	}
	if def.UpdatedAt.IsZero() {
		def.UpdatedAt = def.CreatedAt
	}
	return a.insert(ctx, def)
}

func (a *TestDefinitionAdapter) insert(ctx context.Context, def *entities.TestDefinition) error {
	id, err := a.store.insert(ctx, tableTests, testRecord(def))
	if err != nil {
		if apperrors.IsDuplicateName(err) {
			return apperrors.NewDuplicateNameError(fmt.Sprintf("test %q already exists", def.Name))
		}
		return err
	}
	def.ID = id
	return nil
}

// GetByID retrieves a definition by ID
func (a *TestDefinitionAdapter) GetByID(ctx context.Context, id int64) (*entities.TestDefinition, error) {
	return a.getBy(ctx, goqu.Ex{"id": id}, fmt.Sprintf("test with id %d not found", id))
}

// GetByName retrieves a definition by exact name
func (a *TestDefinitionAdapter) GetByName(ctx context.Context, name string) (*entities.TestDefinition, error) {
	return a.getBy(ctx, goqu.Ex{"name": name}, fmt.Sprintf("test named %q not found", name))
}

func (a *TestDefinitionAdapter) getBy(ctx context.Context, where exp.Ex, missing string) (*entities.TestDefinition, error) {
	query, args, err := a.store.db.Select(testColumns...).
		From(tableTests).
		Where(where).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	def, err := scanTest(a.store.queryRow(ctx, "select tests", query, args))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(missing)
	}
	if err != nil {
		return nil, apperrors.NewStorageUnavailableError("failed to get test", err)
	}
	return def, nil
}

// List retrieves every definition in insertion order
func (a *TestDefinitionAdapter) List(ctx context.Context) ([]*entities.TestDefinition, error) {
	query, args, err := a.store.db.Select(testColumns...).
		From(tableTests).
		Order(goqu.C("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.store.query(ctx, "select tests", query, args)
	if err != nil {
		return nil, apperrors.NewStorageUnavailableError("failed to list tests", err)
	}
	defer rows.Close()

	defs := []*entities.TestDefinition{}
	for rows.Next() {
		def, err := scanTest(rows)
		if err != nil {
			return nil, apperrors.NewStorageUnavailableError("failed to scan test", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageUnavailableError("failed to list tests", err)
	}
	return defs, nil
}

// Update merges patch into the stored definition
func (a *TestDefinitionAdapter) Update(ctx context.Context, id int64, patch entities.TestDefinitionPatch) (*entities.TestDefinition, error) {
	def, err := a.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(def)
	def.UpdatedAt = a.store.stamp()

	record := testRecord(def)
	delete(record, "created_at")

	found, err := a.store.updateByID(ctx, tableTests, id, record)
	if err != nil {
		if apperrors.IsDuplicateName(err) {
			return nil, apperrors.NewDuplicateNameError(fmt.Sprintf("test %q already exists", def.Name))
		}
		return nil, err
	}
	if !found {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("test with id %d not found", id))
	}
	return def, nil
}

// Delete removes a definition
func (a *TestDefinitionAdapter) Delete(ctx context.Context, id int64) (bool, error) {
	return a.store.deleteByID(ctx, tableTests, id)
}

// Clear removes every definition
func (a *TestDefinitionAdapter) Clear(ctx context.Context) error {
	return a.store.clear(ctx, tableTests)
}

func testRecord(def *entities.TestDefinition) goqu.Record {
	return goqu.Record{
		"name":        def.Name,
		"price":       def.Price,
		"description": def.Description,
		"created_at":  toMillis(def.CreatedAt),
		"updated_at":  toMillis(def.UpdatedAt),
	}
}

func scanTest(row rowScanner) (*entities.TestDefinition, error) {
	def := &entities.TestDefinition{}
	var createdAt, updatedAt int64
	if err := row.Scan(&def.ID, &def.Name, &def.Price, &def.Description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	def.CreatedAt = fromMillis(createdAt)
	def.UpdatedAt = fromMillis(updatedAt)
	return def, nil
}
