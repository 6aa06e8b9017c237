package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

func TestNewClient_Memory(t *testing.T) {
	client, err := NewClient(context.Background(), MemoryPath)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, Dialect, client.Dialect())
	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewClient_FileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lab.db")

	client, err := NewClient(context.Background(), path)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.DB().Exec(`CREATE TABLE probe (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, path, client.Path())
}

func TestNewClient_EmptyPath(t *testing.T) {
	_, err := NewClient(context.Background(), "")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeStorageUnavailable))
}
