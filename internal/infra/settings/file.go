// Package settings persists user preferences for the harness. The browser
// entrypoints use the extension's synced storage instead; this store backs
// the CLI and the serve-mode runner with a plain YAML file.
package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/johnharris85/fab-content-filter/internal/core/domain"
)

// FileStore reads and writes settings as a YAML file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given path. The file does
// not need to exist yet; Load returns zero settings for a missing file.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the settings file. A missing file is not an error.
func (s *FileStore) Load(_ context.Context) (domain.Settings, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return domain.Settings{}, nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings domain.Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to parse settings file %s: %w", s.path, err)
	}
	return settings, nil
}

// Save writes the settings file, creating parent directories as needed.
func (s *FileStore) Save(_ context.Context, settings domain.Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}
