package amalgamation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
	"git.home.luguber.info/inful/sqlite3src/internal/ledger"
	"git.home.luguber.info/inful/sqlite3src/internal/logfields"
	"git.home.luguber.info/inful/sqlite3src/internal/metrics"
	"git.home.luguber.info/inful/sqlite3src/internal/observability"
	"git.home.luguber.info/inful/sqlite3src/internal/runner"
	"git.home.luguber.info/inful/sqlite3src/internal/submodule"
	"git.home.luguber.info/inful/sqlite3src/internal/workspace"
)

// LedgerTask is the task name amalgamation builds are recorded under.
const LedgerTask = "sqlite"

// Options configures a Builder.
type Options struct {
	Workspace     *workspace.Manager
	Runner        runner.Runner
	ConfigureArgs []string
	Make          string
	Target        string
	Env           map[string]string
	Ledger        ledger.Store     // optional
	Recorder      metrics.Recorder // optional
}

// Builder is the Amalgamation Builder.
type Builder struct {
	ws            *workspace.Manager
	run           runner.Runner
	configureArgs []string
	make          string
	target        string
	env           []string
	ledger        ledger.Store
	recorder      metrics.Recorder
}

// NewBuilder returns a Builder; zero option values fall back to defaults.
func NewBuilder(opts Options) *Builder {
	b := &Builder{
		ws:            opts.Workspace,
		run:           opts.Runner,
		configureArgs: opts.ConfigureArgs,
		make:          opts.Make,
		target:        opts.Target,
		env:           envList(opts.Env),
		ledger:        opts.Ledger,
		recorder:      opts.Recorder,
	}
	if b.run == nil {
		b.run = runner.NewExecRunner()
	}
	if b.make == "" {
		b.make = "make"
	}
	if b.target == "" {
		b.target = SourceFile
	}
	if b.recorder == nil {
		b.recorder = metrics.NoopRecorder{}
	}
	return b
}

// Location returns the artifact paths inside the build directory.
func (b *Builder) Location() Location {
	return Location{
		Dir:    b.ws.BuildDir(),
		Source: b.ws.Path(SourceFile),
		Header: b.ws.Path(HeaderFile),
	}
}

// Prepare creates the build directory.
func (b *Builder) Prepare() error {
	if err := b.ws.Create(); err != nil {
		return foundationerrors.FileSystemError("cannot create build directory").WithCause(err).Build()
	}
	return nil
}

// Clean removes the build directory and the build cache.
func (b *Builder) Clean() error {
	if err := b.ws.Clean(); err != nil {
		return foundationerrors.FileSystemError("failed to clean build workspace").WithCause(err).Build()
	}
	return nil
}

// Build runs configure and make for the given checkout and returns the artifact.
// A failed build leaves the workspace as the tools left it.
func (b *Builder) Build(ctx context.Context, co *submodule.Checkout) (*Artifact, error) {
	if co == nil || !co.Present {
		return nil, foundationerrors.MissingPrerequisiteError("submodule checkout is missing, run prepare first").Build()
	}
	configure := filepath.Join(co.Path, "configure")
	if _, err := os.Stat(configure); err != nil {
		return nil, foundationerrors.MissingPrerequisiteError("configure script not found in checkout").
			WithCause(err).
			WithContext("path", configure).
			Build()
	}
	if err := b.Prepare(); err != nil {
		return nil, err
	}

	if stamp, err := ReadStamp(b.ws.BuildDir()); err == nil && stamp != nil && !stamp.Matches(co.Commit) {
		observability.WarnContext(ctx, "Build directory holds artifacts from another commit; run clean before rebuilding",
			logfields.Commit(stamp.Commit),
			logfields.Version(stamp.Version))
	}

	started := time.Now()
	artifact, err := b.build(ctx, co, configure)
	b.record(ctx, co, artifact, err, started)
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

func (b *Builder) build(ctx context.Context, co *submodule.Checkout, configure string) (*Artifact, error) {
	dir := b.ws.BuildDir()
	steps := []runner.Command{
		{Name: configure, Args: b.configureArgs, Dir: dir, Env: b.env},
		{Name: b.make, Args: []string{b.target}, Dir: dir, Env: b.env},
	}
	for _, cmd := range steps {
		observability.InfoContext(ctx, "Running build step", logfields.Command(cmd.String()))
		if err := b.run.Run(ctx, cmd); err != nil {
			return nil, foundationerrors.BuildError(fmt.Sprintf("%s failed", filepath.Base(cmd.Name))).
				WithCause(err).
				WithContext("command", cmd.String()).
				WithContext("dir", dir).
				Build()
		}
	}

	loc := b.Location()
	artifact := &Artifact{Location: loc, Version: co.Version(), Commit: co.Commit}
	var err error
	if artifact.SourceSHA256, artifact.SourceBytes, err = digestFile(loc.Source); err != nil {
		return nil, missingOutput(loc.Source, err)
	}
	if artifact.HeaderSHA256, artifact.HeaderBytes, err = digestFile(loc.Header); err != nil {
		return nil, missingOutput(loc.Header, err)
	}
	if err := writeStamp(dir, artifact.Stamp()); err != nil {
		return nil, foundationerrors.FileSystemError("cannot write build stamp").WithCause(err).Build()
	}

	b.recorder.SetArtifactBytes(SourceFile, artifact.SourceBytes)
	b.recorder.SetArtifactBytes(HeaderFile, artifact.HeaderBytes)
	observability.InfoContext(ctx, "Amalgamation generated",
		logfields.Path(loc.Source),
		logfields.Digest(artifact.SourceSHA256),
		logfields.Commit(artifact.Commit))
	return artifact, nil
}

func missingOutput(path string, err error) error {
	msg := "cannot hash build output"
	if errors.Is(err, os.ErrNotExist) {
		msg = "build finished without producing " + filepath.Base(path)
	}
	return foundationerrors.BuildError(msg).WithCause(err).WithContext("path", path).Build()
}

// record appends the outcome to the ledger and flags digest drift for the commit.
func (b *Builder) record(ctx context.Context, co *submodule.Checkout, artifact *Artifact, buildErr error, started time.Time) {
	if b.ledger == nil {
		return
	}
	rec := ledger.Record{
		Task:      LedgerTask,
		Version:   co.Version(),
		Commit:    co.Commit,
		Status:    ledger.StatusSucceeded,
		StartedAt: started,
	}
	if buildErr != nil {
		rec.Status = ledger.StatusFailed
		rec.Error = buildErr.Error()
	} else {
		rec.SourceSHA256 = artifact.SourceSHA256
		rec.HeaderSHA256 = artifact.HeaderSHA256
		if prev, found, err := b.ledger.LastSuccessful(ctx, LedgerTask, co.Commit); err != nil {
			observability.WarnContext(ctx, "Cannot read build ledger", logfields.Error(err))
		} else if found && prev.Drifted(rec) {
			b.recorder.IncDeterminismDrift()
			observability.WarnContext(ctx, "Amalgamation differs from an earlier build of the same commit",
				logfields.Commit(co.Commit),
				logfields.BuildID(prev.ID),
				logfields.Digest(prev.SourceSHA256))
		}
	}
	rec.FinishedAt = time.Now()
	if _, err := b.ledger.Append(ctx, rec); err != nil {
		observability.WarnContext(ctx, "Cannot record build in ledger", logfields.Error(err))
	}
}

// Current returns the artifact in the build directory, as described by its stamp.
func (b *Builder) Current() (*Artifact, error) {
	loc := b.Location()
	stamp, err := ReadStamp(loc.Dir)
	if err != nil {
		return nil, foundationerrors.FileSystemError("cannot read build stamp").WithCause(err).Build()
	}
	if stamp == nil {
		return nil, foundationerrors.MissingPrerequisiteError("no amalgamation in build directory, run sqlite first").
			WithContext("path", loc.Dir).
			Build()
	}
	artifact := &Artifact{
		Location:     loc,
		Version:      stamp.Version,
		Commit:       stamp.Commit,
		SourceSHA256: stamp.SourceSHA256,
		HeaderSHA256: stamp.HeaderSHA256,
	}
	for _, p := range []string{loc.Source, loc.Header} {
		if _, err := os.Stat(p); err != nil {
			return nil, foundationerrors.MissingPrerequisiteError("amalgamation file missing, run sqlite first").
				WithCause(err).
				WithContext("path", p).
				Build()
		}
	}
	return artifact, nil
}

// envList renders env as sorted KEY=VALUE pairs.
func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
