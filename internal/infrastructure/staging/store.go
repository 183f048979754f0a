package staging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store reads and removes staged record files under a base directory.
type Store struct {
	BaseDir string
}

func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		baseDir = "."
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir %s: %w", baseDir, err)
	}
	return &Store{BaseDir: baseDir}, nil
}

func (s *Store) Open(ctx context.Context, stagedPath string) (io.ReadCloser, error) {
	_ = ctx

	path := stagedPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.BaseDir, stagedPath)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open staged file %s: %w", path, err)
	}
	return file, nil
}

func (s *Store) Remove(stagedPath string) error {
	path := stagedPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.BaseDir, stagedPath)
	}
	return os.Remove(path)
}
