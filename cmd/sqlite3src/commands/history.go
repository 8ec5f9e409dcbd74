package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"git.home.luguber.info/inful/sqlite3src/internal/ledger"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of builds to show" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	app, err := loadApp(g, root)
	if err != nil {
		return err
	}
	defer app.Close()

	records, err := app.Ledger.Recent(g.context(), h.Limit)
	if err != nil {
		return err
	}
	printHistory(os.Stdout, records)
	return nil
}

func printHistory(w io.Writer, records []ledger.Record) {
	if len(records) == 0 {
		_, _ = dimmed().Fprintf(w, "No builds recorded\n")
		return
	}
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"Started", "Task", "Version", "Commit", "Result", "Duration", "sqlite3.c"})
	for _, r := range records {
		tw.AppendRow(table.Row{
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Task,
			orDash(r.Version),
			orDash(shortCommit(r.Commit)),
			statusColor(string(r.Status)).Sprint(r.Status),
			formatDuration(r.Duration()),
			orDash(shortCommit(r.SourceSHA256)),
		})
	}
	_, _ = fmt.Fprintln(w, tw.Render())
	_, _ = dimmed().Fprintf(w, "Showing the last %d builds\n", len(records))
}
