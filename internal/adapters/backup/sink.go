// Package backup stores export snapshots on the local filesystem or in an
// S3-compatible bucket.
package backup

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/zatekoja/medlab/internal/domain/providers"
	"github.com/zatekoja/medlab/pkg/config"
)

// NewSink builds the sink selected by cfg.Driver.
func NewSink(ctx context.Context, cfg *config.BackupConfig) (providers.BackupSink, error) {
	switch cfg.Driver {
	case config.BackupDriverFS, "":
		return NewFSSink(cfg.Dir)
	case config.BackupDriverS3:
		return NewS3Sink(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown backup driver %q", cfg.Driver)
	}
}

// cleanKey rejects keys that could escape the sink root.
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key %q", key)
	}
	clean := path.Clean(key)
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return clean, nil
}
