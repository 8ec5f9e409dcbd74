package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"git.home.luguber.info/inful/sqlite3src/internal/pipeline"
)

// newTableWriter returns a table.Writer with the CLI's styles.
func newTableWriter() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Color.Header = text.Colors{text.FgCyan, text.Bold}
	tw.Style().Color.Footer = text.Colors{text.FgCyan, text.Bold}
	return tw
}

// dimmed prints secondary information.
func dimmed() *color.Color {
	return color.RGB(128, 128, 128)
}

func statusColor(status string) *color.Color {
	switch status {
	case string(pipeline.StatusSuccess), "succeeded", "current":
		return color.New(color.FgGreen)
	case string(pipeline.StatusCanceled), "stale":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}

// printRunSummary prints one row per executed task of res.
func printRunSummary(w io.Writer, res *pipeline.Result) {
	if res == nil || len(res.Tasks) == 0 {
		return
	}
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"Task", "Result", "Duration"})
	for _, tr := range res.Tasks {
		result := string(pipeline.StatusSuccess)
		if tr.Err != nil {
			result = string(pipeline.StatusFailed)
		}
		tw.AppendRow(table.Row{tr.Name, statusColor(result).Sprint(result), formatDuration(tr.Duration)})
	}
	tw.AppendFooter(table.Row{"Total", statusColor(string(res.Status)).Sprint(res.Status), formatDuration(res.Duration)})
	_, _ = fmt.Fprintln(w, tw.Render())

	st := res.State
	if st == nil {
		return
	}
	if st.Checkout != nil && st.Checkout.Branch != "" {
		_, _ = dimmed().Fprintf(w, "Pinned: %s (%s)\n", st.Checkout.Version(), shortCommit(st.Checkout.Commit))
	}
	if st.Artifact != nil {
		_, _ = dimmed().Fprintf(w, "Amalgamation: %s\n", st.Artifact.Dir)
	}
	if st.Library != nil {
		_, _ = dimmed().Fprintf(w, "Library: %s\n", st.Library.Path)
	}
	if st.Manifest != nil {
		_, _ = dimmed().Fprintf(w, "Published package %q at %s\n", st.Manifest.Package, st.Manifest.Version)
	}
}
