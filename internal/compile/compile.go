// Package compile turns the amalgamation into a static library in the build
// cache using the host C compiler and archiver.
package compile

import (
	"context"
	"os"

	"git.home.luguber.info/inful/sqlite3src/internal/amalgamation"
	"git.home.luguber.info/inful/sqlite3src/internal/compileopts"
	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
	"git.home.luguber.info/inful/sqlite3src/internal/logfields"
	"git.home.luguber.info/inful/sqlite3src/internal/observability"
	"git.home.luguber.info/inful/sqlite3src/internal/runner"
	"git.home.luguber.info/inful/sqlite3src/internal/workspace"
)

const (
	ObjectFile  = "sqlite3.o"
	LibraryFile = "libsqlite3.a"
)

// Library is the result of a successful compile.
type Library struct {
	Path    string
	Object  string
	Defines []compileopts.Define
}

// Compiler compiles sqlite3.c with cc and archives it with ar.
type Compiler struct {
	CC     string
	AR     string
	CFlags []string
	Runner runner.Runner
	ws     *workspace.Manager
}

// NewCompiler returns a Compiler writing into the workspace's cache directory.
func NewCompiler(ws *workspace.Manager, cc, ar string, cflags []string, r runner.Runner) *Compiler {
	if cc == "" {
		cc = "cc"
	}
	if ar == "" {
		ar = "ar"
	}
	if r == nil {
		r = runner.NewExecRunner()
	}
	return &Compiler{CC: cc, AR: ar, CFlags: cflags, Runner: r, ws: ws}
}

// Compile builds libsqlite3.a from artifact with the given defines.
func (c *Compiler) Compile(ctx context.Context, artifact *amalgamation.Artifact, defines []compileopts.Define) (*Library, error) {
	if artifact == nil {
		return nil, foundationerrors.MissingPrerequisiteError("no amalgamation to compile").Build()
	}
	if _, err := os.Stat(artifact.Source); err != nil {
		return nil, foundationerrors.MissingPrerequisiteError("amalgamation source missing, run sqlite first").
			WithCause(err).
			WithContext("path", artifact.Source).
			Build()
	}
	if err := c.ws.CreateCache(); err != nil {
		return nil, foundationerrors.FileSystemError("cannot create build cache").WithCause(err).Build()
	}

	lib := &Library{
		Path:    c.ws.CachePath(LibraryFile),
		Object:  c.ws.CachePath(ObjectFile),
		Defines: defines,
	}

	ccArgs := []string{"-c", artifact.Source, "-o", lib.Object, "-I" + artifact.Dir}
	ccArgs = append(ccArgs, c.CFlags...)
	for _, d := range defines {
		ccArgs = append(ccArgs, d.Flag())
	}
	steps := []runner.Command{
		{Name: c.CC, Args: ccArgs, Dir: c.ws.CacheDir()},
		{Name: c.AR, Args: []string{"rcs", lib.Path, lib.Object}, Dir: c.ws.CacheDir()},
	}
	for _, cmd := range steps {
		observability.DebugContext(ctx, "Compiling", logfields.Command(cmd.String()))
		if err := c.Runner.Run(ctx, cmd); err != nil {
			return nil, foundationerrors.BuildError(cmd.Name + " failed").
				WithCause(err).
				WithContext("command", cmd.String()).
				Build()
		}
	}

	observability.InfoContext(ctx, "Static library built", logfields.Path(lib.Path))
	return lib, nil
}
