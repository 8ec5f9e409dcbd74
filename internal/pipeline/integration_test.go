package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sqlite3src/internal/amalgamation"
	"git.home.luguber.info/inful/sqlite3src/internal/ledger"
	"git.home.luguber.info/inful/sqlite3src/internal/runner"
	"git.home.luguber.info/inful/sqlite3src/internal/submodule"
	"git.home.luguber.info/inful/sqlite3src/internal/workspace"
)

func gitSignature() *object.Signature {
	return &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}
}

// newSQLiteUpstream creates a repository shaped like the SQLite sources,
// tagged version-3.45.0 and version-3.46.0.
func newSQLiteUpstream(t *testing.T) (string, plumbing.Hash) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "upstream")
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	commit := func(version string) plumbing.Hash {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "configure"), []byte("#!/bin/sh\n"), 0o700))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "VERSION"), []byte(version+"\n"), 0o600))
		_, err := wt.Add("configure")
		require.NoError(t, err)
		_, err = wt.Add("VERSION")
		require.NoError(t, err)
		hash, err := wt.Commit(version, &git.CommitOptions{Author: gitSignature()})
		require.NoError(t, err)
		_, err = repo.CreateTag("version-"+version, hash, nil)
		require.NoError(t, err)
		return hash
	}

	first := commit("3.45.0")
	commit("3.46.0")
	return dir, first
}

func newSQLiteSuperproject(t *testing.T, upstream string, pinned plumbing.Hash) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "super")
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	modules := fmt.Sprintf("[submodule \"sqlite\"]\n\tpath = sqlite\n\turl = %s\n\tbranch = tags/version-3.45.0\n", upstream)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitmodules"), []byte(modules), 0o600))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".gitmodules")
	require.NoError(t, err)

	idx, err := repo.Storer.Index()
	require.NoError(t, err)
	idx.Entries = append(idx.Entries, &index.Entry{Name: "sqlite", Hash: pinned, Mode: filemode.Submodule})
	require.NoError(t, repo.Storer.SetIndex(idx))

	_, err = wt.Commit("add sqlite submodule", &git.CommitOptions{Author: gitSignature()})
	require.NoError(t, err)
	return dir
}

// makeAmalgamation stands in for configure and make, writing the
// amalgamation into the build directory on the make step.
func makeAmalgamation(_ context.Context, cmd runner.Command) error {
	if filepath.Base(cmd.Name) != "make" {
		return nil
	}
	if err := os.WriteFile(filepath.Join(cmd.Dir, amalgamation.SourceFile), []byte("/* amalgamation */\n"), 0o600); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cmd.Dir, amalgamation.HeaderFile), []byte("#define SQLITE_VERSION \"3.45.0\"\n"), 0o600)
}

type realComponents struct {
	root    string
	ws      *workspace.Manager
	store   *submodule.Store
	builder *amalgamation.Builder
	ledger  *ledger.SQLiteStore
}

func newRealComponents(t *testing.T) *realComponents {
	t.Helper()
	up, pinned := newSQLiteUpstream(t)
	root := newSQLiteSuperproject(t, up, pinned)

	l, err := ledger.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	ws := workspace.NewManager(filepath.Join(root, "build"), filepath.Join(root, "target"))
	return &realComponents{
		root:  root,
		ws:    ws,
		store: submodule.New(submodule.Options{Root: root, Name: "sqlite", Path: "sqlite"}),
		builder: amalgamation.NewBuilder(amalgamation.Options{
			Workspace: ws,
			Runner:    runner.Func(makeAmalgamation),
			Ledger:    l,
		}),
		ledger: l,
	}
}

func (rc *realComponents) service(f *fakes) *Service {
	return NewService(Deps{Store: rc.store, Builder: rc.builder, Compiler: f, Publisher: f})
}

func TestRunSQLiteFromFreshClone(t *testing.T) {
	rc := newRealComponents(t)
	ctx := context.Background()

	res, err := rc.service(&fakes{}).Run(ctx, Request{Task: TaskSQLite})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)

	require.True(t, res.State.Checkout.Present)
	require.Equal(t, "tags/version-3.45.0", res.State.Checkout.Branch)
	require.FileExists(t, filepath.Join(rc.root, "sqlite", "configure"))
	require.DirExists(t, rc.ws.BuildDir())
	require.FileExists(t, filepath.Join(rc.ws.BuildDir(), amalgamation.SourceFile))
	require.FileExists(t, filepath.Join(rc.ws.BuildDir(), amalgamation.HeaderFile))
	require.Equal(t, res.State.Checkout.Commit, res.State.Artifact.Commit)
}

func TestRunBuildCleanBuildIsDeterministic(t *testing.T) {
	rc := newRealComponents(t)
	f := &fakes{}
	svc := rc.service(f)
	ctx := context.Background()

	first, err := svc.Run(ctx, Request{Task: TaskBuild})
	require.NoError(t, err)

	_, err = svc.Run(ctx, Request{Task: TaskClean})
	require.NoError(t, err)
	require.NoDirExists(t, rc.ws.BuildDir())

	second, err := svc.Run(ctx, Request{Task: TaskBuild})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, second.Status)
	require.FileExists(t, filepath.Join(rc.ws.BuildDir(), amalgamation.SourceFile))
	require.FileExists(t, filepath.Join(rc.ws.BuildDir(), amalgamation.HeaderFile))

	require.Equal(t, first.State.Artifact.SourceSHA256, second.State.Artifact.SourceSHA256)
	require.Equal(t, first.State.Artifact.HeaderSHA256, second.State.Artifact.HeaderSHA256)

	records, err := rc.ledger.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.False(t, records[0].Drifted(records[1]))
}

func TestRunUpdateThenBuildUsesPinnedRelease(t *testing.T) {
	rc := newRealComponents(t)
	svc := rc.service(&fakes{})
	ctx := context.Background()

	before, err := svc.Run(ctx, Request{Task: TaskSQLite})
	require.NoError(t, err)

	updated, err := svc.Run(ctx, Request{Task: TaskUpdate, Version: "3.46.0"})
	require.NoError(t, err)
	require.Equal(t, "tags/version-3.46.0", updated.State.Checkout.Branch)
	require.NotEqual(t, before.State.Checkout.Commit, updated.State.Checkout.Commit)

	_, err = svc.Run(ctx, Request{Task: TaskClean})
	require.NoError(t, err)
	after, err := svc.Run(ctx, Request{Task: TaskSQLite})
	require.NoError(t, err)
	require.Equal(t, updated.State.Checkout.Commit, after.State.Artifact.Commit)
	require.Equal(t, "version-3.46.0", after.State.Artifact.Version)
}
