package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sqlite3src/internal/amalgamation"
	"git.home.luguber.info/inful/sqlite3src/internal/compile"
	"git.home.luguber.info/inful/sqlite3src/internal/compileopts"
	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
	"git.home.luguber.info/inful/sqlite3src/internal/logfields"
	"git.home.luguber.info/inful/sqlite3src/internal/metrics"
	"git.home.luguber.info/inful/sqlite3src/internal/observability"
	"git.home.luguber.info/inful/sqlite3src/internal/publish"
	"git.home.luguber.info/inful/sqlite3src/internal/submodule"
)

// SourceStore is the part of submodule.Store the pipeline needs.
type SourceStore interface {
	EnsurePresent(ctx context.Context) (*submodule.Checkout, error)
	Pin(ctx context.Context, version string) (*submodule.Checkout, error)
}

// AmalgamationBuilder is the part of amalgamation.Builder the pipeline needs.
type AmalgamationBuilder interface {
	Prepare() error
	Build(ctx context.Context, co *submodule.Checkout) (*amalgamation.Artifact, error)
	Clean() error
}

// LibraryCompiler compiles an artifact into a static library.
type LibraryCompiler interface {
	Compile(ctx context.Context, artifact *amalgamation.Artifact, defines []compileopts.Define) (*compile.Library, error)
}

// ArtifactPublisher bundles an artifact for downstream use.
type ArtifactPublisher interface {
	Publish(ctx context.Context, artifact *amalgamation.Artifact) (*publish.Manifest, error)
}

// Deps are the components the tasks drive.
type Deps struct {
	Store     SourceStore
	Builder   AmalgamationBuilder
	Compiler  LibraryCompiler
	Publisher ArtifactPublisher
	Defines   []compileopts.Define
}

// State carries values between the tasks of one run.
type State struct {
	Version  string // requested version for update
	Checkout *submodule.Checkout
	Artifact *amalgamation.Artifact
	Library  *compile.Library
	Manifest *publish.Manifest
}

// Request selects the task to run.
type Request struct {
	Task    string
	Version string
}

// Status is the outcome of a run.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// TaskResult is the outcome of one executed task.
type TaskResult struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Result is the outcome of a run.
type Result struct {
	BuildID   string
	Status    Status
	Plan      []string
	Tasks     []TaskResult
	State     *State
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Service runs tasks from the default graph.
type Service struct {
	graph    *Graph
	deps     Deps
	recorder metrics.Recorder
}

// NewService returns a Service with the standard tasks registered.
func NewService(deps Deps) *Service {
	s := &Service{graph: NewGraph(), deps: deps, recorder: metrics.NoopRecorder{}}
	for _, t := range s.defaultTasks() {
		if err := s.graph.Add(t); err != nil {
			panic(err)
		}
	}
	return s
}

// WithRecorder sets the metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Graph exposes the task graph.
func (s *Service) Graph() *Graph { return s.graph }

// Plan returns the execution order for task.
func (s *Service) Plan(task string) ([]string, error) {
	return s.graph.Plan(task)
}

// Run executes req.Task and its dependencies.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{
		BuildID:   uuid.NewString(),
		StartTime: time.Now(),
		State:     &State{Version: req.Version},
	}
	ctx = observability.WithBuildID(ctx, result.BuildID)

	finish := func(status Status, err error) (*Result, error) {
		result.Status = status
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		s.recorder.ObserveRunDuration(result.Duration)
		s.recorder.IncRunOutcome(metrics.OutcomeLabel(status))
		return result, err
	}

	plan, err := s.graph.Plan(req.Task)
	if err != nil {
		return finish(StatusFailed, err)
	}
	result.Plan = plan
	observability.DebugContext(ctx, "Resolved task plan", logfields.Task(req.Task))

	for _, name := range plan {
		task, _ := s.graph.Task(name)
		taskCtx := observability.WithTask(ctx, name)
		start := time.Now()
		observability.InfoContext(taskCtx, "Task started")

		err := task.Run(taskCtx, result.State)
		tr := TaskResult{Name: name, Duration: time.Since(start), Err: err}
		result.Tasks = append(result.Tasks, tr)
		s.recorder.ObserveTaskDuration(name, tr.Duration)

		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				s.recorder.IncTaskResult(name, metrics.ResultCanceled)
				observability.WarnContext(taskCtx, "Task canceled", logfields.Duration(tr.Duration))
				return finish(StatusCanceled, err)
			}
			s.recorder.IncTaskResult(name, metrics.ResultFailed)
			observability.ErrorContext(taskCtx, "Task failed", logfields.Duration(tr.Duration), logfields.Error(err))
			return finish(StatusFailed, err)
		}
		s.recorder.IncTaskResult(name, metrics.ResultSuccess)
		observability.InfoContext(taskCtx, "Task finished", logfields.Duration(tr.Duration))
	}
	return finish(StatusSuccess, nil)
}

func (s *Service) defaultTasks() []Task {
	return []Task{
		{
			Name:        TaskPrepare,
			Description: "Check out the SQLite submodule and create the build directory",
			Run: func(ctx context.Context, st *State) error {
				co, err := s.deps.Store.EnsurePresent(ctx)
				if err != nil {
					return err
				}
				st.Checkout = co
				return s.deps.Builder.Prepare()
			},
		},
		{
			Name:        TaskSQLite,
			Description: "Generate sqlite3.c and sqlite3.h with configure and make",
			Deps:        []string{TaskPrepare},
			Run: func(ctx context.Context, st *State) error {
				artifact, err := s.deps.Builder.Build(ctx, st.Checkout)
				if err != nil {
					return err
				}
				st.Artifact = artifact
				return nil
			},
		},
		{
			Name:        TaskBuild,
			Description: "Compile the amalgamation into a static library",
			Deps:        []string{TaskSQLite},
			Run: func(ctx context.Context, st *State) error {
				if s.deps.Compiler == nil {
					return foundationerrors.InternalError("no compiler configured").Build()
				}
				lib, err := s.deps.Compiler.Compile(ctx, st.Artifact, s.deps.Defines)
				if err != nil {
					return err
				}
				st.Library = lib
				return nil
			},
		},
		{
			Name:        TaskPublish,
			Description: "Bundle the amalgamation as a cgo Go package",
			Deps:        []string{TaskSQLite},
			Run: func(ctx context.Context, st *State) error {
				if s.deps.Publisher == nil {
					return foundationerrors.InternalError("no publisher configured").Build()
				}
				m, err := s.deps.Publisher.Publish(ctx, st.Artifact)
				if err != nil {
					return err
				}
				st.Manifest = m
				return nil
			},
		},
		{
			Name:        TaskUpdate,
			Description: "Pin the SQLite submodule to another release",
			Deps:        []string{TaskPrepare},
			Run: func(ctx context.Context, st *State) error {
				if st.Version == "" {
					return foundationerrors.ValidationError("update requires a version").Build()
				}
				co, err := s.deps.Store.Pin(ctx, st.Version)
				if err != nil {
					return err
				}
				st.Checkout = co
				observability.InfoContext(ctx, "Existing artifacts are stale until clean and rebuild", logfields.Version(co.Version()))
				return nil
			},
		},
		{
			Name:        TaskClean,
			Description: "Remove the build directory and build cache",
			Run: func(_ context.Context, _ *State) error {
				return s.deps.Builder.Clean()
			},
		},
	}
}
