package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Get when no artifact exists under the key.
var ErrNotFound = errors.New("artifact not found")

// Local persists artifacts on the filesystem under a base directory. Object
// keys map directly to relative paths, so the on-disk layout matches the
// notes/{content}/partial tree the exporter and frame extractor work with.
type Local struct {
	baseDir string
}

// NewLocal creates a filesystem store rooted at baseDir.
func NewLocal(baseDir string) *Local {
	return &Local{baseDir: baseDir}
}

// BaseDir returns the root directory artifacts are written under.
func (l *Local) BaseDir() string {
	return l.baseDir
}

// Path resolves an object key to its absolute filesystem path.
func (l *Local) Path(key string) string {
	return filepath.Join(l.baseDir, filepath.FromSlash(key))
}

func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(l.Path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l *Local) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(l.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (l *Local) Put(_ context.Context, key string, data []byte, _ string) error {
	path := l.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
