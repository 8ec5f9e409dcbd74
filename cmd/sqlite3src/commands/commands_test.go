package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sqlite3src/internal/amalgamation"
	"git.home.luguber.info/inful/sqlite3src/internal/config"
	"git.home.luguber.info/inful/sqlite3src/internal/ledger"
	"git.home.luguber.info/inful/sqlite3src/internal/submodule"
)

const gitmodules = `[submodule "sqlite"]
	path = sqlite
	url = https://github.com/sqlite/sqlite.git
	branch = tags/version-3.46.0
`

func newParser(t *testing.T, cli *CLI) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli, kong.Name("sqlite3src"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	return parser
}

func newRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Chdir(root)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitmodules"), []byte(gitmodules), 0o600))
	return root
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		args    []string
		command string
	}{
		{nil, "build"},
		{[]string{"build"}, "build"},
		{[]string{"sqlite"}, "sqlite"},
		{[]string{"update", "3.46.0"}, "update <version>"},
		{[]string{"prepare"}, "prepare"},
		{[]string{"clean"}, "clean"},
		{[]string{"publish"}, "publish"},
		{[]string{"status", "--remote"}, "status"},
		{[]string{"history", "-n", "5"}, "history"},
		{[]string{"watch", "--task", "sqlite"}, "watch"},
		{[]string{"init", "--force"}, "init"},
	}
	for _, tt := range tests {
		var cli CLI
		ctx, err := newParser(t, &cli).Parse(tt.args)
		require.NoError(t, err, "args %v", tt.args)
		require.Equal(t, tt.command, ctx.Command(), "args %v", tt.args)
	}
}

func TestParseFlags(t *testing.T) {
	var cli CLI
	_, err := newParser(t, &cli).Parse([]string{"-v", "-c", "custom.yaml", "update", "version-3.45.0"})
	require.NoError(t, err)
	require.True(t, cli.Verbose)
	require.Equal(t, "custom.yaml", cli.Config)
	require.Equal(t, "version-3.45.0", cli.Update.Version)
	require.True(t, filepath.IsAbs(cli.Root))
}

func TestParseRejectsMissingVersion(t *testing.T) {
	var cli CLI
	_, err := newParser(t, &cli).Parse([]string{"update"})
	require.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	root := t.TempDir()
	cli := &CLI{Config: config.DefaultPath, Root: root}

	require.NoError(t, (&InitCmd{}).Run(&Global{}, cli))
	require.FileExists(t, filepath.Join(root, config.DefaultPath))

	require.Error(t, (&InitCmd{}).Run(&Global{}, cli))
	require.NoError(t, (&InitCmd{Force: true}).Run(&Global{}, cli))
}

func TestHistoryEmptyLedger(t *testing.T) {
	root := newRoot(t)
	cli := &CLI{Config: config.DefaultPath, Root: root}

	require.NoError(t, (&HistoryCmd{Limit: 10}).Run(&Global{Ctx: context.Background()}, cli))
	require.FileExists(t, filepath.Join(root, ".sqlite3src", "ledger.db"))

	var buf bytes.Buffer
	printHistory(&buf, nil)
	require.Contains(t, buf.String(), "No builds recorded")
}

func TestPrintHistory(t *testing.T) {
	start := time.Date(2024, 5, 23, 10, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printHistory(&buf, []ledger.Record{{
		Task:         "sqlite",
		Version:      "version-3.46.0",
		Commit:       "96c92aba00c8375bc32fafcdf12429c58bd8aabfcadab6683e35bbb9cdebf19e",
		SourceSHA256: "0123456789abcdef0123",
		Status:       ledger.StatusSucceeded,
		StartedAt:    start,
		FinishedAt:   start.Add(90 * time.Second),
	}})
	out := buf.String()
	require.Contains(t, out, "version-3.46.0")
	require.Contains(t, out, "96c92aba00c8")
	require.Contains(t, out, "1m30s")
	require.Contains(t, out, "Showing the last 1 builds")
}

func TestCleanCommandWritesMetrics(t *testing.T) {
	root := newRoot(t)
	cfg := "metrics:\n  textfile: out/sqlite3src.prom\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, config.DefaultPath), []byte(cfg), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build", "sub"), 0o750))

	cli := &CLI{Config: config.DefaultPath, Root: root}
	require.NoError(t, (&CleanCmd{}).Run(&Global{Ctx: context.Background()}, cli))
	require.NoDirExists(t, filepath.Join(root, "build"))

	data, err := os.ReadFile(filepath.Join(root, "out", "sqlite3src.prom"))
	require.NoError(t, err)
	require.Contains(t, string(data), `sqlite3src_run_outcomes_total{outcome="success"} 1`)
	require.Contains(t, string(data), `sqlite3src_task_results_total{result="success",task="clean"} 1`)
}

func TestLoadAppRejectsInvalidConfig(t *testing.T) {
	root := newRoot(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, config.DefaultPath), []byte("publish:\n  package: not-an-identifier\n"), 0o600))

	_, err := loadApp(&Global{}, &CLI{Config: config.DefaultPath, Root: root})
	require.Error(t, err)
}

func TestCollectStatus(t *testing.T) {
	root := newRoot(t)
	app, err := loadApp(&Global{}, &CLI{Config: config.DefaultPath, Root: root})
	require.NoError(t, err)
	defer app.Close()

	report, err := collectStatus(context.Background(), app, false)
	require.NoError(t, err)
	require.Equal(t, "version-3.46.0", report.Checkout.Version())
	require.False(t, report.Checkout.Present)
	require.Equal(t, artifactMissing, report.State)
	require.Nil(t, report.Manifest)

	var buf bytes.Buffer
	printStatus(&buf, report)
	require.Contains(t, buf.String(), "https://github.com/sqlite/sqlite.git")
	require.Contains(t, buf.String(), artifactMissing)
}

func TestArtifactState(t *testing.T) {
	co := &submodule.Checkout{Branch: "tags/version-3.46.0", Commit: "abc"}

	require.Equal(t, artifactMissing, artifactState(co, nil))
	require.Equal(t, artifactCurrent, artifactState(co, &amalgamation.Stamp{Commit: "abc"}))
	require.Equal(t, artifactStale, artifactState(co, &amalgamation.Stamp{Commit: "def"}))
}

func TestCollectStatusStampWithoutFiles(t *testing.T) {
	root := newRoot(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build"), 0o750))
	stamp := "version: version-3.46.0\ncommit: abc\nsource_sha256: x\nheader_sha256: y\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", amalgamation.StampFile), []byte(stamp), 0o600))

	app, err := loadApp(&Global{}, &CLI{Config: config.DefaultPath, Root: root})
	require.NoError(t, err)
	defer app.Close()

	report, err := collectStatus(context.Background(), app, false)
	require.NoError(t, err)
	require.NotNil(t, report.Stamp)
	require.Equal(t, artifactMissing, report.State)
}
