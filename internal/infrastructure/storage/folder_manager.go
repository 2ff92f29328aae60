package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
)

// folderNameChars matches everything a folder name must not contain.
var folderNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// LocalFolderManager implements port.FolderManager over the same root
// directory file storage writes into.
type LocalFolderManager struct {
	root   string
	logger *zap.Logger
}

// NewLocalFolderManager creates a folder manager rooted at dir.
func NewLocalFolderManager(dir string, logger *zap.Logger) port.FolderManager {
	return &LocalFolderManager{root: dir, logger: logger}
}

// CreateFolder creates the named folder under the root and returns its
// path. The name is reduced to [a-zA-Z0-9_-] first, so separators and
// parent references cannot move it outside the root. Creating a folder
// that already exists succeeds.
func (m *LocalFolderManager) CreateFolder(ctx context.Context, name string) (string, error) {
	safe := folderNameChars.ReplaceAllString(name, "")
	if safe == "" {
		return "", fmt.Errorf("folder name %q has no usable characters", name)
	}

	path := filepath.Join(m.root, safe)
	if err := os.MkdirAll(path, 0o755); err != nil {
		m.logger.Error("Failed to create folder",
			zap.String("name", safe),
			zap.Error(err))
		return "", fmt.Errorf("create folder %s: %w", safe, err)
	}
	return path, nil
}
