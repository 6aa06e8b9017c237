package providers

import (
	"context"
)

// BackupSink stores export snapshots under opaque keys
type BackupSink interface {
	// Put writes data under key; it fails if the key already exists
	Put(ctx context.Context, key string, data []byte) error

	// Get reads the snapshot stored under key
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns the keys under prefix in lexical order
	List(ctx context.Context, prefix string) ([]string, error)

	// Driver names the sink implementation
	Driver() string
}
