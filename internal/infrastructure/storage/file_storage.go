// Package storage keeps uploaded evidence and generated release forms
// on the local filesystem, all beneath one configured root directory.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
)

// LocalFileStorage implements port.FileStorage over a root directory.
// Relative paths that resolve outside the root are rejected.
type LocalFileStorage struct {
	root   string
	logger *zap.Logger
}

// NewLocalFileStorage creates file storage rooted at dir.
func NewLocalFileStorage(dir string, logger *zap.Logger) port.FileStorage {
	return &LocalFileStorage{root: dir, logger: logger}
}

// Save writes content to path, creating parent directories as needed.
// An existing file at the same path is overwritten.
func (s *LocalFileStorage) Save(ctx context.Context, path string, content []byte) error {
	target, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create storage directory for %s: %w", path, err)
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		s.logger.Error("Failed to write file",
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("write %s: %w", path, err)
	}

	s.logger.Debug("File stored",
		zap.String("path", path),
		zap.Int("bytes", len(content)))
	return nil
}

// Read returns the content stored at path.
func (s *LocalFileStorage) Read(ctx context.Context, path string) ([]byte, error) {
	target, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return content, nil
}

// resolve joins path onto the root and rejects results that escape it.
func (s *LocalFileStorage) resolve(path string) (string, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("resolve storage root: %w", err)
	}

	target := filepath.Join(root, filepath.FromSlash(path))
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the storage root", path)
	}
	return target, nil
}
