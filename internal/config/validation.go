package config

import (
	"fmt"
	"go/token"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/sqlite3src/internal/compileopts"
	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
)

// Validate checks the configuration and returns a config-category ClassifiedError.
func Validate(cfg *Config) error {
	checks := []func(*Config) error{
		validateSubmodule,
		validateBuild,
		validateCompile,
		validatePublish,
		validateState,
		validateLogging,
		validateWatch,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return foundationerrors.ConfigError("invalid configuration").WithCause(err).Build()
		}
	}
	return nil
}

func validateSubmodule(cfg *Config) error {
	if err := relativePath("submodule.path", cfg.Submodule.Path); err != nil {
		return err
	}
	if cfg.Submodule.Depth < 0 {
		return fmt.Errorf("submodule.depth cannot be negative")
	}
	return nil
}

func validateBuild(cfg *Config) error {
	if err := relativePath("build.directory", cfg.Build.Directory); err != nil {
		return err
	}
	if err := relativePath("build.cache_directory", cfg.Build.CacheDirectory); err != nil {
		return err
	}
	// clean removes both directories; nothing that must survive may live in or above them.
	protected := []struct{ field, path string }{
		{"submodule.path", cfg.Submodule.Path},
		{"state.directory", cfg.State.Directory},
		{"publish.directory", cfg.Publish.Directory},
		{"the superproject .git directory", ".git"},
	}
	scratch := []struct{ field, path string }{
		{"build.directory", cfg.Build.Directory},
		{"build.cache_directory", cfg.Build.CacheDirectory},
	}
	for _, s := range scratch {
		for _, p := range protected {
			if overlaps(s.path, p.path) {
				return fmt.Errorf("%s %q overlaps %s %q", s.field, s.path, p.field, p.path)
			}
		}
	}
	return nil
}

func validateCompile(cfg *Config) error {
	_, err := cfg.CompileSettings()
	return err
}

func validatePublish(cfg *Config) error {
	if err := relativePath("publish.directory", cfg.Publish.Directory); err != nil {
		return err
	}
	for _, p := range []struct{ field, path string }{
		{"submodule.path", cfg.Submodule.Path},
		{"the superproject .git directory", ".git"},
	} {
		if overlaps(cfg.Publish.Directory, p.path) {
			return fmt.Errorf("publish.directory %q overlaps %s %q", cfg.Publish.Directory, p.field, p.path)
		}
	}
	if !token.IsIdentifier(cfg.Publish.Package) {
		return fmt.Errorf("publish.package %q is not a valid Go package name", cfg.Publish.Package)
	}
	return nil
}

func validateState(cfg *Config) error {
	if err := relativePath("state.directory", cfg.State.Directory); err != nil {
		return err
	}
	if overlaps(cfg.State.Directory, cfg.Submodule.Path) {
		return fmt.Errorf("state.directory %q overlaps submodule.path %q", cfg.State.Directory, cfg.Submodule.Path)
	}
	return nil
}

func validateLogging(cfg *Config) error {
	if _, err := logLevelNormalizer.NormalizeWithError(string(cfg.Logging.Level)); err != nil {
		return err
	}
	if _, err := logFormatNormalizer.NormalizeWithError(string(cfg.Logging.Format)); err != nil {
		return err
	}
	return nil
}

func validateWatch(cfg *Config) error {
	d, err := time.ParseDuration(cfg.Watch.Debounce)
	if err != nil {
		return fmt.Errorf("watch.debounce: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("watch.debounce cannot be negative")
	}
	return nil
}

// overlaps reports whether a and b, both relative to the root, are the same
// directory or one contains the other.
func overlaps(a, b string) bool {
	return within(a, b) || within(b, a)
}

// within reports whether child is parent or lies below it.
func within(parent, child string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(child))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// relativePath rejects absolute paths and paths escaping the superproject root.
func relativePath(field, p string) error {
	if filepath.IsAbs(p) {
		return fmt.Errorf("%s must be relative to the repository root, got %q", field, p)
	}
	clean := filepath.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s must point inside the repository root, got %q", field, p)
	}
	return nil
}

// CompileSettings returns the default compile options overlaid with compile.options.
func (c *Config) CompileSettings() (*compileopts.Settings, error) {
	settings := compileopts.Default(c.Compile.Debug)
	if err := settings.Apply(c.Compile.Options); err != nil {
		return nil, err
	}
	return settings, nil
}
