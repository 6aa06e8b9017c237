package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/zatekoja/medlab/internal/domain/repositories"
	"github.com/zatekoja/medlab/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/medlab/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

const (
	tableHospital = "hospital"
	tableTests    = "tests"
	tableResults  = "results"
)

// SQLClient is the connection a Store runs its statements on. Both the
// SQLite and the PostgreSQL clients satisfy it.
type SQLClient interface {
	DB() *sql.DB
	Dialect() string
	Ping(ctx context.Context) error
	Close() error
}

// Store implements repositories.Gateway on a SQL database
type Store struct {
	client    SQLClient
	db        *goqu.Database
	returning bool
	now       func() time.Time
	metrics   *observability.Metrics

	hospital   *HospitalAdapter
	tests      *TestDefinitionAdapter
	encounters *EncounterAdapter
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for record timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithMetrics records statement durations
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Store) {
		s.metrics = metrics
	}
}

// NewStore wraps client without touching the schema
func NewStore(client SQLClient, opts ...Option) *Store {
	s := &Store{
		client:    client,
		db:        goqu.New(client.Dialect(), client.DB()),
		returning: client.Dialect() == postgres.Dialect,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hospital = &HospitalAdapter{store: s}
	s.tests = &TestDefinitionAdapter{store: s}
	s.encounters = &EncounterAdapter{store: s}
	return s
}

// Open wraps client and creates any missing tables and indexes
func Open(ctx context.Context, client SQLClient, opts ...Option) (*Store, error) {
	s := NewStore(client, opts...)
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

var _ repositories.Gateway = (*Store)(nil)

// Hospital returns the hospital profile repository
func (s *Store) Hospital() repositories.HospitalRepository { return s.hospital }

// Tests returns the test catalog repository
func (s *Store) Tests() repositories.TestDefinitionRepository { return s.tests }

// Encounters returns the patient results repository
func (s *Store) Encounters() repositories.EncounterRepository { return s.encounters }

// ClearAll empties every collection
func (s *Store) ClearAll(ctx context.Context) error {
	for _, table := range []string{tableResults, tableTests, tableHospital} {
		if err := s.clear(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

// Ping verifies the store responds
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx); err != nil {
		return apperrors.NewStorageUnavailableError("store did not respond", err)
	}
	return nil
}

// Close releases the store
func (s *Store) Close() error {
	return s.client.Close()
}

// stamp returns the current time at the precision the store keeps
func (s *Store) stamp() time.Time {
	return time.UnixMilli(s.now().UnixMilli())
}

func (s *Store) exec(ctx context.Context, op, query string, args []interface{}) (sql.Result, error) {
	defer s.observe(ctx, op, time.Now())
	return s.client.DB().ExecContext(ctx, query, args...)
}

func (s *Store) query(ctx context.Context, op, query string, args []interface{}) (*sql.Rows, error) {
	defer s.observe(ctx, op, time.Now())
	return s.client.DB().QueryContext(ctx, query, args...)
}

func (s *Store) queryRow(ctx context.Context, op, query string, args []interface{}) *sql.Row {
	defer s.observe(ctx, op, time.Now())
	return s.client.DB().QueryRowContext(ctx, query, args...)
}

func (s *Store) observe(ctx context.Context, op string, start time.Time) {
	if s.metrics != nil {
		observability.RecordDBMetric(ctx, s.metrics, op, time.Since(start))
	}
}

// insert writes record and returns the ID the database assigned
func (s *Store) insert(ctx context.Context, table string, record goqu.Record) (int64, error) {
	ds := s.db.Insert(table).Rows(record).Prepared(true)
	op := "insert " + table

	if s.returning {
		query, args, err := ds.Returning("id").ToSQL()
		if err != nil {
			return 0, apperrors.NewInternalError("failed to build insert query", err)
		}
		var id int64
		if err := s.queryRow(ctx, op, query, args).Scan(&id); err != nil {
			return 0, classify(err, "failed to insert into "+table)
		}
		return id, nil
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build insert query", err)
	}
	result, err := s.exec(ctx, op, query, args)
	if err != nil {
		return 0, classify(err, "failed to insert into "+table)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, apperrors.NewStorageUnavailableError("failed to read inserted id", err)
	}
	return id, nil
}

// updateByID writes record over the row with id and reports whether it existed
func (s *Store) updateByID(ctx context.Context, table string, id int64, record goqu.Record) (bool, error) {
	query, args, err := s.db.Update(table).
		Set(record).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := s.exec(ctx, "update "+table, query, args)
	if err != nil {
		return false, classify(err, "failed to update "+table)
	}
	return affected(result)
}

func (s *Store) deleteByID(ctx context.Context, table string, id int64) (bool, error) {
	query, args, err := s.db.Delete(table).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := s.exec(ctx, "delete "+table, query, args)
	if err != nil {
		return false, classify(err, "failed to delete from "+table)
	}
	return affected(result)
}

func (s *Store) clear(ctx context.Context, table string) error {
	query, args, err := s.db.Delete(table).Prepared(true).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build clear query", err)
	}
	if _, err := s.exec(ctx, "clear "+table, query, args); err != nil {
		return classify(err, "failed to clear "+table)
	}
	return nil
}

func affected(result sql.Result) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewStorageUnavailableError("failed to get rows affected", err)
	}
	return rowsAffected > 0, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
