package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/sqlite3src/internal/config"
	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
	"git.home.luguber.info/inful/sqlite3src/internal/logfields"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	path := root.configPath()
	if err := config.Init(path, i.Force); err != nil {
		if foundationerrors.IsClassified(err) {
			return err
		}
		return foundationerrors.FileSystemError("cannot write configuration").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	slog.Info("Configuration file created", logfields.Path(path))
	return nil
}
