package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides lists the environment variables that take precedence over the file.
type envOverrides struct {
	BuildDir        string   `env:"SQLITE3SRC_BUILD_DIR"`
	CacheDir        string   `env:"SQLITE3SRC_CACHE_DIR"`
	ConfigureArgs   []string `env:"SQLITE3SRC_CONFIGURE_ARGS" envSeparator:" "`
	StateDir        string   `env:"SQLITE3SRC_STATE_DIR"`
	Make            string   `env:"MAKE"`
	CC              string   `env:"CC"`
	AR              string   `env:"AR"`
	LogLevel        string   `env:"SQLITE3SRC_LOG_LEVEL"`
	LogFormat       string   `env:"SQLITE3SRC_LOG_FORMAT"`
	MetricsTextfile string   `env:"SQLITE3SRC_METRICS_TEXTFILE"`
}

func applyEnvOverrides(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setIf(&cfg.Build.Directory, o.BuildDir)
	setIf(&cfg.Build.CacheDirectory, o.CacheDir)
	setIf(&cfg.State.Directory, o.StateDir)
	setIf(&cfg.Build.Make, o.Make)
	setIf(&cfg.Compile.CC, o.CC)
	setIf(&cfg.Compile.AR, o.AR)
	setIf(&cfg.Metrics.Textfile, o.MetricsTextfile)
	if len(o.ConfigureArgs) > 0 {
		cfg.Build.ConfigureArgs = o.ConfigureArgs
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = LogLevel(o.LogLevel)
	}
	if o.LogFormat != "" {
		cfg.Logging.Format = LogFormat(o.LogFormat)
	}
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
