package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sqlite3src/internal/logfields"
)

// Manager handles the build and cache directories.
type Manager struct {
	buildDir string
	cacheDir string
}

// NewManager creates a workspace manager for the given directories.
func NewManager(buildDir, cacheDir string) *Manager {
	return &Manager{buildDir: buildDir, cacheDir: cacheDir}
}

// BuildDir returns the scratch build directory.
func (m *Manager) BuildDir() string { return m.buildDir }

// CacheDir returns the build cache directory.
func (m *Manager) CacheDir() string { return m.cacheDir }

// Path joins name onto the build directory.
func (m *Manager) Path(name string) string {
	return filepath.Join(m.buildDir, name)
}

// CachePath joins name onto the cache directory.
func (m *Manager) CachePath(name string) string {
	return filepath.Join(m.cacheDir, name)
}

// Create ensures the build directory exists.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.buildDir, 0o750); err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}
	slog.Debug("Using build workspace", logfields.Path(m.buildDir))
	return nil
}

// CreateCache ensures the cache directory exists.
func (m *Manager) CreateCache() error {
	if err := os.MkdirAll(m.cacheDir, 0o750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

// Exists reports whether the build directory exists.
func (m *Manager) Exists() bool {
	info, err := os.Stat(m.buildDir)
	return err == nil && info.IsDir()
}

// Clean removes the build directory and the cache. Missing directories are
// not an error.
func (m *Manager) Clean() error {
	var errs []error
	for _, dir := range []string{m.buildDir, m.cacheDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", dir, err))
			continue
		}
		slog.Info("Removed workspace directory", logfields.Path(dir))
	}
	return errors.Join(errs...)
}
