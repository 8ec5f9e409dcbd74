// Package config loads the sqlite3src configuration: a YAML file, an optional
// .env file and environment overrides, resolved against the superproject root.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "sqlite3src.yaml"

// Config represents the application configuration.
type Config struct {
	Submodule SubmoduleConfig `yaml:"submodule"`
	Build     BuildConfig     `yaml:"build"`
	Compile   CompileConfig   `yaml:"compile"`
	Publish   PublishConfig   `yaml:"publish"`
	State     StateConfig     `yaml:"state"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Watch     WatchConfig     `yaml:"watch"`
}

// SubmoduleConfig describes the vendored upstream checkout.
type SubmoduleConfig struct {
	Name      string `yaml:"name"`
	Path      string `yaml:"path"`
	Depth     int    `yaml:"depth,omitempty"`      // shallow fetch depth, 0 = full history
	TagPrefix string `yaml:"tag_prefix,omitempty"` // upstream release tag prefix
}

// BuildConfig controls the configure + make amalgamation step.
type BuildConfig struct {
	Directory      string            `yaml:"directory"`
	CacheDirectory string            `yaml:"cache_directory"`
	ConfigureArgs  []string          `yaml:"configure_args,omitempty"`
	Make           string            `yaml:"make"`
	Target         string            `yaml:"target"`
	Env            map[string]string `yaml:"env,omitempty"`
}

// CompileConfig controls compiling the amalgamation into a static library.
type CompileConfig struct {
	CC      string            `yaml:"cc"`
	AR      string            `yaml:"ar"`
	CFlags  []string          `yaml:"cflags,omitempty"`
	Debug   bool              `yaml:"debug"`
	Options map[string]string `yaml:"options,omitempty"`
}

// PublishConfig controls where the bundled package is written.
type PublishConfig struct {
	Directory string `yaml:"directory"`
	Package   string `yaml:"package"`
}

// StateConfig locates persistent tool state (the build ledger).
type StateConfig struct {
	Directory string `yaml:"directory"`
}

// MetricsConfig enables writing Prometheus metrics after each run.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// Load reads the configuration file at configPath. A missing file yields the
// defaults; environment overrides and validation apply in both cases.
// .env files are read from root, the superproject worktree.
func Load(root, configPath string) (*Config, error) {
	if err := loadEnvFile(root); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := Defaults()
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("Configuration file not found, using defaults", "path", configPath)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyDefaults(cfg)
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes a configuration file populated with the defaults.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Defaults()
	example.Compile.Options = map[string]string{
		"enable_fts5":  "true",
		"enable_rtree": "true",
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// loadEnvFile loads root/.env then root/.env.local without overriding variables that are already set.
func loadEnvFile(root string) error {
	if root == "" {
		root = "."
	}
	var loaded []string
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	if len(loaded) == 0 {
		return errors.New("no .env file found")
	}
	slog.Debug("Loaded environment files", "files", loaded)
	return nil
}
