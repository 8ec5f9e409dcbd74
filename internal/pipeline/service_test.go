package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sqlite3src/internal/amalgamation"
	"git.home.luguber.info/inful/sqlite3src/internal/compile"
	"git.home.luguber.info/inful/sqlite3src/internal/compileopts"
	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
	"git.home.luguber.info/inful/sqlite3src/internal/metrics"
	"git.home.luguber.info/inful/sqlite3src/internal/publish"
	"git.home.luguber.info/inful/sqlite3src/internal/submodule"
)

// fakes records the order in which components are driven.
type fakes struct {
	calls    []string
	buildErr error
	pinned   string
}

func (f *fakes) EnsurePresent(context.Context) (*submodule.Checkout, error) {
	f.calls = append(f.calls, "ensure")
	return &submodule.Checkout{Name: "sqlite", Present: true, Branch: "tags/version-3.45.0", Commit: "abc"}, nil
}

func (f *fakes) Pin(_ context.Context, version string) (*submodule.Checkout, error) {
	f.calls = append(f.calls, "pin:"+version)
	f.pinned = version
	return &submodule.Checkout{Name: "sqlite", Present: true, Branch: "tags/version-" + version, Commit: "def"}, nil
}

func (f *fakes) Prepare() error {
	f.calls = append(f.calls, "mkdir")
	return nil
}

func (f *fakes) Build(_ context.Context, co *submodule.Checkout) (*amalgamation.Artifact, error) {
	f.calls = append(f.calls, "make")
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	return &amalgamation.Artifact{Version: co.Version(), Commit: co.Commit}, nil
}

func (f *fakes) Clean() error {
	f.calls = append(f.calls, "clean")
	return nil
}

func (f *fakes) Compile(_ context.Context, a *amalgamation.Artifact, defines []compileopts.Define) (*compile.Library, error) {
	f.calls = append(f.calls, "cc")
	return &compile.Library{Path: "libsqlite3.a", Defines: defines}, nil
}

func (f *fakes) Publish(_ context.Context, a *amalgamation.Artifact) (*publish.Manifest, error) {
	f.calls = append(f.calls, "publish")
	return &publish.Manifest{Version: a.Version, Commit: a.Commit}, nil
}

func newFakeService(f *fakes) *Service {
	return NewService(Deps{
		Store:     f,
		Builder:   f,
		Compiler:  f,
		Publisher: f,
		Defines:   []compileopts.Define{{Name: "SQLITE_DQS", Value: "0"}},
	})
}

type countingRecorder struct {
	metrics.NoopRecorder
	results  map[string]metrics.ResultLabel
	outcomes []metrics.OutcomeLabel
}

func (c *countingRecorder) IncTaskResult(task string, r metrics.ResultLabel) { c.results[task] = r }
func (c *countingRecorder) IncRunOutcome(o metrics.OutcomeLabel) { c.outcomes = append(c.outcomes, o) }

func TestRunBuild(t *testing.T) {
	f := &fakes{}
	rec := &countingRecorder{results: map[string]metrics.ResultLabel{}}
	svc := newFakeService(f).WithRecorder(rec)

	res, err := svc.Run(context.Background(), Request{Task: TaskBuild})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.Equal(t, []string{"ensure", "mkdir", "make", "cc"}, f.calls)
	require.Equal(t, []string{"prepare", "sqlite", "build"}, res.Plan)
	require.Len(t, res.Tasks, 3)
	require.NotEmpty(t, res.BuildID)
	require.Equal(t, "libsqlite3.a", res.State.Library.Path)
	require.Equal(t, "SQLITE_DQS", res.State.Library.Defines[0].Name)
	require.Equal(t, metrics.ResultSuccess, rec.results["build"])
	require.Equal(t, []metrics.OutcomeLabel{metrics.OutcomeSuccess}, rec.outcomes)
}

func TestRunPublishCarriesArtifact(t *testing.T) {
	f := &fakes{}
	res, err := newFakeService(f).Run(context.Background(), Request{Task: TaskPublish})
	require.NoError(t, err)
	require.Equal(t, "version-3.45.0", res.State.Manifest.Version)
	require.Equal(t, []string{"ensure", "mkdir", "make", "publish"}, f.calls)
}

func TestRunAbortsOnFirstFailure(t *testing.T) {
	f := &fakes{buildErr: foundationerrors.BuildError("make failed").Build()}
	rec := &countingRecorder{results: map[string]metrics.ResultLabel{}}

	res, err := newFakeService(f).WithRecorder(rec).Run(context.Background(), Request{Task: TaskBuild})
	require.Error(t, err)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryBuild))
	require.Equal(t, StatusFailed, res.Status)
	require.Equal(t, []string{"ensure", "mkdir", "make"}, f.calls)
	require.Len(t, res.Tasks, 2)
	require.Equal(t, metrics.ResultFailed, rec.results["sqlite"])
	require.NotContains(t, rec.results, "build")
}

func TestRunUpdate(t *testing.T) {
	f := &fakes{}
	res, err := newFakeService(f).Run(context.Background(), Request{Task: TaskUpdate, Version: "3.46.0"})
	require.NoError(t, err)
	require.Equal(t, "3.46.0", f.pinned)
	require.Equal(t, "def", res.State.Checkout.Commit)
	require.Equal(t, []string{"ensure", "mkdir", "pin:3.46.0"}, f.calls)
}

func TestRunUpdateRequiresVersion(t *testing.T) {
	_, err := newFakeService(&fakes{}).Run(context.Background(), Request{Task: TaskUpdate})
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
}

func TestRunCleanHasNoDependencies(t *testing.T) {
	f := &fakes{}
	_, err := newFakeService(f).Run(context.Background(), Request{Task: TaskClean})
	require.NoError(t, err)
	require.Equal(t, []string{"clean"}, f.calls)
}

func TestRunCanceled(t *testing.T) {
	f := &fakes{buildErr: context.Canceled}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := newFakeService(f).Run(ctx, Request{Task: TaskSQLite})
	require.True(t, errors.Is(err, context.Canceled))
	require.Equal(t, StatusCanceled, res.Status)
}

func TestRunUnknownTask(t *testing.T) {
	res, err := newFakeService(&fakes{}).Run(context.Background(), Request{Task: "deploy"})
	require.Error(t, err)
	require.Equal(t, StatusFailed, res.Status)
	require.Empty(t, res.Tasks)
}
