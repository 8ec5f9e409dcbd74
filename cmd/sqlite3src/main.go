package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sqlite3src/cmd/sqlite3src/commands"
	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
	"git.home.luguber.info/inful/sqlite3src/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("sqlite3src"),
		kong.Description("Regenerate, compile and publish the SQLite amalgamation from a pinned upstream submodule."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Ctx: ctx}
	if err := parser.Run(global, &cli); err != nil {
		stop()
		foundationerrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
