package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Dialect is the goqu dialect name for SQLite
const Dialect = "sqlite3"

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Client represents a SQLite database client
type Client struct {
	db   *sql.DB
	path string
}

// NewClient opens the database file at path, creating parent directories as
// needed. The pool is limited to one connection so writes are serialized and
// an in-memory database survives across statements.
func NewClient(ctx context.Context, path string) (*Client, error) {
	if path == "" {
		return nil, apperrors.NewStorageUnavailableError("sqlite path is empty", nil)
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, apperrors.NewStorageUnavailableError("failed to create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, apperrors.NewStorageUnavailableError("failed to open sqlite database", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageUnavailableError(fmt.Sprintf("failed to open %s", path), err)
	}

	log.Debug().Str("path", path).Msg("opened sqlite store")
	return &Client{db: db, path: path}, nil
}

func dsn(path string) string {
	if path == MemoryPath {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Dialect returns the goqu dialect for this client
func (c *Client) Dialect() string {
	return Dialect
}

// Path returns the database file path
func (c *Client) Path() string {
	return c.path
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// BeginTx starts a new transaction
func (c *Client) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}

// Ping verifies the connection to the database
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
