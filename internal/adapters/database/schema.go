package database

import (
	"context"
	"fmt"

	"github.com/zatekoja/medlab/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

type columnTypes struct {
	id      string
	integer string
	real    string
}

func typesFor(dialect string) columnTypes {
	if dialect == postgres.Dialect {
		return columnTypes{id: "BIGSERIAL PRIMARY KEY", integer: "BIGINT", real: "DOUBLE PRECISION"}
	}
	return columnTypes{id: "INTEGER PRIMARY KEY AUTOINCREMENT", integer: "INTEGER", real: "REAL"}
}

// SchemaStatements returns the DDL that Migrate runs for a dialect
func SchemaStatements(dialect string) []string {
	t := typesFor(dialect)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS hospital (
	id %s,
	name TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	department TEXT NOT NULL DEFAULT '',
	map_link TEXT NOT NULL DEFAULT '',
	license_number TEXT NOT NULL DEFAULT '',
	created_at %s NOT NULL,
	updated_at %s NOT NULL
)`, t.id, t.integer, t.integer),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tests (
	id %s,
	name TEXT NOT NULL,
	price %s NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at %s NOT NULL,
	updated_at %s NOT NULL
)`, t.id, t.real, t.integer, t.integer),
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tests_name ON tests (name)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS results (
	id %s,
	patient_name TEXT NOT NULL,
	patient_age %s NOT NULL DEFAULT 0,
	patient_gender TEXT NOT NULL,
	patient_id TEXT NOT NULL,
	date %s NOT NULL,
	line_items TEXT NOT NULL,
	created_at %s NOT NULL,
	updated_at %s NOT NULL
)`, t.id, t.integer, t.integer, t.integer, t.integer),
		`CREATE INDEX IF NOT EXISTS idx_results_patient_name ON results (patient_name)`,
		`CREATE INDEX IF NOT EXISTS idx_results_patient_id ON results (patient_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_date ON results (date)`,
	}
}

// Migrate creates any missing tables and indexes
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range SchemaStatements(s.client.Dialect()) {
		if _, err := s.exec(ctx, "migrate", stmt, nil); err != nil {
			return apperrors.NewStorageUnavailableError("failed to create schema", err)
		}
	}
	return nil
}
