package config

// Defaults returns a configuration with every field at its default value.
func Defaults() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Submodule.Name == "" {
		cfg.Submodule.Name = "sqlite"
	}
	if cfg.Submodule.Path == "" {
		cfg.Submodule.Path = cfg.Submodule.Name
	}
	if cfg.Submodule.TagPrefix == "" {
		cfg.Submodule.TagPrefix = "version-"
	}

	if cfg.Build.Directory == "" {
		cfg.Build.Directory = "build"
	}
	if cfg.Build.CacheDirectory == "" {
		cfg.Build.CacheDirectory = "target"
	}
	if cfg.Build.Make == "" {
		cfg.Build.Make = "make"
	}
	if cfg.Build.Target == "" {
		cfg.Build.Target = "sqlite3.c"
	}

	if cfg.Compile.CC == "" {
		cfg.Compile.CC = "cc"
	}
	if cfg.Compile.AR == "" {
		cfg.Compile.AR = "ar"
	}
	if cfg.Compile.CFlags == nil {
		cfg.Compile.CFlags = []string{"-O2", "-fPIC"}
	}

	if cfg.Publish.Directory == "" {
		cfg.Publish.Directory = "bundled"
	}
	if cfg.Publish.Package == "" {
		cfg.Publish.Package = "bundled"
	}

	if cfg.State.Directory == "" {
		cfg.State.Directory = ".sqlite3src"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}

	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "2s"
	}
}
