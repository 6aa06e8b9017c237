package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// DriverFS names the filesystem sink.
const DriverFS = "fs"

// FSSink keeps backups as files under a root directory. Keys map to
// relative paths.
type FSSink struct {
	root string
}

// NewFSSink returns a sink rooted at dir, creating it if needed.
func NewFSSink(dir string) (*FSSink, error) {
	if dir == "" {
		dir = "./backups"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewStorageUnavailableError("failed to create backup directory", err)
	}
	return &FSSink{root: dir}, nil
}

func (s *FSSink) Driver() string { return DriverFS }

func (s *FSSink) pathFor(key string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", apperrors.NewValidationError(err.Error())
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Put writes data under key. O_EXCL makes an existing key fail.
func (s *FSSink) Put(ctx context.Context, key string, data []byte) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return apperrors.NewStorageUnavailableError("failed to create backup directory", err)
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return apperrors.NewDuplicateNameError(fmt.Sprintf("backup %s already exists", key))
	}
	if err != nil {
		return apperrors.NewStorageUnavailableError("failed to create backup", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return apperrors.NewStorageUnavailableError("failed to write backup", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return apperrors.NewStorageUnavailableError("failed to write backup", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return apperrors.NewStorageUnavailableError("failed to write backup", err)
	}
	return nil
}

func (s *FSSink) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("backup %s not found", key))
	}
	if err != nil {
		return nil, apperrors.NewStorageUnavailableError("failed to read backup", err)
	}
	return data, nil
}

func (s *FSSink) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewStorageUnavailableError("failed to list backups", err)
	}
	sort.Strings(keys)
	return keys, nil
}
