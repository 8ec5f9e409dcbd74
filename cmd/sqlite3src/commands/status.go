package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"git.home.luguber.info/inful/sqlite3src/internal/amalgamation"
	"git.home.luguber.info/inful/sqlite3src/internal/publish"
	"git.home.luguber.info/inful/sqlite3src/internal/submodule"
)

// Artifact states reported by status.
const (
	artifactMissing = "missing"
	artifactCurrent = "current"
	artifactStale   = "stale"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	Remote bool `help:"Also query upstream for the latest release tag"`
}

type statusReport struct {
	Checkout *submodule.Checkout
	Stamp    *amalgamation.Stamp
	State    string
	Manifest *publish.Manifest
	Latest   *submodule.Version
}

func (s *StatusCmd) Run(g *Global, root *CLI) error {
	app, err := loadApp(g, root)
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := collectStatus(g.context(), app, s.Remote)
	if err != nil {
		return err
	}
	printStatus(os.Stdout, report)
	return nil
}

func collectStatus(ctx context.Context, app *App, remote bool) (*statusReport, error) {
	co, err := app.Store.Checkout(ctx)
	if err != nil {
		return nil, err
	}
	stamp, err := amalgamation.ReadStamp(app.Paths.Build)
	if err != nil {
		return nil, err
	}
	report := &statusReport{Checkout: co, Stamp: stamp, State: artifactState(co, stamp)}
	if stamp != nil {
		// the stamp outlives a hand-deleted sqlite3.c
		if _, err := app.Builder.Current(); err != nil {
			report.State = artifactMissing
		}
	}

	manifest, err := publish.ReadManifest(app.Paths.Publish)
	switch {
	case err == nil:
		report.Manifest = manifest
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	if remote {
		versions, err := app.Store.ListVersions(ctx)
		if err != nil {
			return nil, err
		}
		if n := len(versions); n > 0 {
			report.Latest = &versions[n-1]
		}
	}
	return report, nil
}

// artifactState compares the build stamp with the pinned checkout.
func artifactState(co *submodule.Checkout, stamp *amalgamation.Stamp) string {
	switch {
	case stamp == nil:
		return artifactMissing
	case stamp.Matches(co.Commit):
		return artifactCurrent
	default:
		return artifactStale
	}
}

func printStatus(w io.Writer, r *statusReport) {
	co := r.Checkout
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"Item", "Value"})
	tw.AppendRows([]table.Row{
		{"Submodule", co.Name},
		{"Path", co.Path},
		{"URL", orDash(co.URL)},
		{"Pinned", orDash(co.Version())},
		{"Checked out", fmt.Sprintf("%t", co.Present)},
		{"Commit", orDash(shortCommit(co.Commit))},
		{"Amalgamation", statusColor(r.State).Sprint(r.State)},
	})
	if r.Stamp != nil {
		tw.AppendRows([]table.Row{
			{"Built from", fmt.Sprintf("%s (%s)", r.Stamp.Version, shortCommit(r.Stamp.Commit))},
			{"Built at", r.Stamp.BuiltAt.Local().Format("2006-01-02 15:04:05")},
		})
	}
	if r.Manifest != nil {
		tw.AppendRow(table.Row{"Published", fmt.Sprintf("%s %s", r.Manifest.Package, r.Manifest.Version)})
	}
	if r.Latest != nil {
		tw.AppendRow(table.Row{"Latest upstream", r.Latest.Tag})
	}
	_, _ = fmt.Fprintln(w, tw.Render())

	if r.State == artifactStale {
		_, _ = dimmed().Fprintf(w, "Run 'sqlite3src clean' before rebuilding\n")
	}
	if r.Latest != nil && r.Latest.Tag != co.Version() {
		_, _ = dimmed().Fprintf(w, "A newer release is available: sqlite3src update %s\n", r.Latest.Number)
	}
}
