package commands

import (
	"context"
	"log/slog"
	"os"
	"time"

	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
	"git.home.luguber.info/inful/sqlite3src/internal/logfields"
	"git.home.luguber.info/inful/sqlite3src/internal/pipeline"
	"git.home.luguber.info/inful/sqlite3src/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Initial bool   `help:"Clean and build once before watching"`
	Task    string `help:"Task to run after cleaning" default:"build" enum:"sqlite,build,publish"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	app, err := loadApp(g, root)
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := g.context()

	if _, err := app.Service.Run(ctx, pipeline.Request{Task: pipeline.TaskPrepare}); err != nil {
		return err
	}
	files, err := app.Store.WatchPaths()
	if err != nil {
		return foundationerrors.MissingPrerequisiteError("cannot locate submodule repository").WithCause(err).Build()
	}
	debounce, err := time.ParseDuration(app.Config.Watch.Debounce)
	if err != nil {
		return foundationerrors.ConfigError("invalid watch.debounce").WithCause(err).Build()
	}

	rebuild := func(ctx context.Context) error {
		slog.Info("Pinned submodule changed, rebuilding", logfields.Task(w.Task))
		for _, task := range []string{pipeline.TaskClean, w.Task} {
			res, err := app.Service.Run(ctx, pipeline.Request{Task: task})
			printRunSummary(os.Stdout, res)
			if err != nil {
				return err
			}
		}
		return nil
	}

	if w.Initial {
		if err := rebuild(ctx); err != nil {
			slog.Error("Initial build failed", logfields.Error(err))
		}
	}

	watcher, err := watch.New(watch.Options{
		Files:    files,
		Debounce: debounce,
		Fingerprint: func(ctx context.Context) (string, error) {
			co, err := app.Store.Checkout(ctx)
			if err != nil {
				return "", err
			}
			return co.Branch + "@" + co.Commit, nil
		},
		OnChange: rebuild,
	})
	if err != nil {
		return foundationerrors.InternalError("cannot start watcher").WithCause(err).Build()
	}
	return watcher.Run(ctx)
}
