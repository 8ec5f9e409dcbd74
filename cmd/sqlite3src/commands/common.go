package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sqlite3src/internal/amalgamation"
	"git.home.luguber.info/inful/sqlite3src/internal/compile"
	"git.home.luguber.info/inful/sqlite3src/internal/config"
	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
	"git.home.luguber.info/inful/sqlite3src/internal/ledger"
	"git.home.luguber.info/inful/sqlite3src/internal/logfields"
	"git.home.luguber.info/inful/sqlite3src/internal/metrics"
	"git.home.luguber.info/inful/sqlite3src/internal/pipeline"
	"git.home.luguber.info/inful/sqlite3src/internal/publish"
	"git.home.luguber.info/inful/sqlite3src/internal/runner"
	"git.home.luguber.info/inful/sqlite3src/internal/submodule"
	"git.home.luguber.info/inful/sqlite3src/internal/workspace"
)

// Global is shared state passed to every command.
type Global struct {
	Ctx    context.Context
	Logger *slog.Logger
}

func (g *Global) context() context.Context {
	if g == nil || g.Ctx == nil {
		return context.Background()
	}
	return g.Ctx
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (relative to --root)" default:"sqlite3src.yaml" env:"SQLITE3SRC_CONFIG"`
	Root    string           `help:"Superproject root containing the SQLite submodule" default:"." type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"1" help:"Generate the amalgamation and compile libsqlite3.a (default)"`
	SQLite  SQLiteCmd  `cmd:"" name:"sqlite" help:"Generate sqlite3.c and sqlite3.h with configure and make"`
	Update  UpdateCmd  `cmd:"" help:"Pin the SQLite submodule to another release tag"`
	Prepare PrepareCmd `cmd:"" help:"Check out the SQLite submodule and create the build directory"`
	Clean   CleanCmd   `cmd:"" help:"Remove the build directory and build cache"`
	Publish PublishCmd `cmd:"" help:"Bundle the amalgamation as a cgo Go package"`
	Status  StatusCmd  `cmd:"" help:"Show the pinned version and the state of the build artifacts"`
	History HistoryCmd `cmd:"" help:"List recorded builds"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild whenever the pinned submodule commit changes"`
	Init    InitCmd    `cmd:"" help:"Write a default configuration file"`
}

// AfterApply runs after flag parsing; set up logging once.
// The level is refined from the configuration when a command loads it.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// configPath anchors a relative --config at --root.
func (c *CLI) configPath() string {
	if filepath.IsAbs(c.Config) {
		return c.Config
	}
	return filepath.Join(c.Root, c.Config)
}

func configureLogging(g *Global, cfg *config.Config, verbose bool) {
	level := cfg.Logging.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if config.NormalizeLogFormat(string(cfg.Logging.Format)) == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	g.Logger = slog.New(handler)
	slog.SetDefault(g.Logger)
}

// App is the wired set of components for one invocation.
type App struct {
	Config    *config.Config
	Paths     config.Paths
	Store     *submodule.Store
	Builder   *amalgamation.Builder
	Compiler  *compile.Compiler
	Publisher *publish.Publisher
	Ledger    ledger.Store
	Service   *pipeline.Service

	registry *prom.Registry
}

// loadApp loads the configuration and wires every component.
func loadApp(g *Global, cli *CLI) (*App, error) {
	cfg, err := config.Load(cli.Root, cli.configPath())
	if err != nil {
		if foundationerrors.IsClassified(err) {
			return nil, err
		}
		return nil, foundationerrors.ConfigError("cannot load configuration").
			WithCause(err).
			WithContext("path", cli.configPath()).
			Build()
	}
	configureLogging(g, cfg, cli.Verbose)

	paths, err := cfg.Resolve(cli.Root)
	if err != nil {
		return nil, foundationerrors.ConfigError("cannot resolve root").WithCause(err).Build()
	}
	settings, err := cfg.CompileSettings()
	if err != nil {
		return nil, foundationerrors.ConfigError("invalid compile options").WithCause(err).Build()
	}
	defines := settings.Defines()

	store, err := ledger.NewSQLiteStore(filepath.Join(paths.State, "ledger.db"))
	if err != nil {
		return nil, foundationerrors.FileSystemError("cannot open build ledger").WithCause(err).Build()
	}

	app := &App{Config: cfg, Paths: paths, Ledger: store}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Textfile != "" {
		app.registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(app.registry)
	}

	tools := runner.NewExecRunner()
	ws := workspace.NewManager(paths.Build, paths.Cache)

	app.Store = submodule.New(submodule.Options{
		Root:      paths.Root,
		Name:      cfg.Submodule.Name,
		Path:      cfg.Submodule.Path,
		Depth:     cfg.Submodule.Depth,
		TagPrefix: cfg.Submodule.TagPrefix,
	})
	app.Builder = amalgamation.NewBuilder(amalgamation.Options{
		Workspace:     ws,
		Runner:        tools,
		ConfigureArgs: cfg.Build.ConfigureArgs,
		Make:          cfg.Build.Make,
		Target:        cfg.Build.Target,
		Env:           cfg.Build.Env,
		Ledger:        store,
		Recorder:      recorder,
	})
	app.Compiler = compile.NewCompiler(ws, cfg.Compile.CC, cfg.Compile.AR, cfg.Compile.CFlags, tools)
	app.Publisher = publish.NewPublisher(paths.Publish, cfg.Publish.Package, defines)
	app.Service = pipeline.NewService(pipeline.Deps{
		Store:     app.Store,
		Builder:   app.Builder,
		Compiler:  app.Compiler,
		Publisher: app.Publisher,
		Defines:   defines,
	}).WithRecorder(recorder)

	return app, nil
}

// Close releases the ledger and flushes metrics.
func (a *App) Close() {
	if a.registry != nil {
		path := a.Config.Metrics.Textfile
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.Paths.Root, path)
		}
		if err := metrics.WriteTextfile(a.registry, path); err != nil {
			slog.Warn("Failed to write metrics", logfields.Error(err))
		}
	}
	if err := a.Ledger.Close(); err != nil {
		slog.Warn("Failed to close build ledger", logfields.Error(err))
	}
}

// runTask loads the app, runs one pipeline task and prints a summary.
func runTask(g *Global, cli *CLI, req pipeline.Request) error {
	app, err := loadApp(g, cli)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Service.Run(g.context(), req)
	printRunSummary(os.Stdout, res)
	if err != nil {
		return err
	}
	return nil
}

func shortCommit(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
