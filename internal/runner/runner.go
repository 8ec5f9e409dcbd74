// Package runner executes the external build tools (configure, make, cc, ar)
// that do the real work of producing and compiling the amalgamation.
//
// Contract:
//
//	Run(ctx, cmd) blocks until the process exits. Output is streamed to the
//	configured writers unmodified; a non-zero exit is returned as an error
//	whose chain contains the *exec.ExitError so callers can propagate the
//	exit status.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"git.home.luguber.info/inful/sqlite3src/internal/logfields"
)

// ErrToolNotFound is returned when the executable cannot be located.
var ErrToolNotFound = errors.New("tool not found")

// Command describes one process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // KEY=VALUE pairs appended to the inherited environment
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner abstracts process execution so the build steps can be exercised
// without a C toolchain.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// Func adapts a function to the Runner interface.
type Func func(ctx context.Context, cmd Command) error

func (f Func) Run(ctx context.Context, cmd Command) error { return f(ctx, cmd) }

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner that streams child output to the process' own stdout/stderr.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	path, err := exec.LookPath(cmd.Name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrToolNotFound, cmd.Name, err)
	}

	// #nosec G204 -- tool names and arguments come from the build configuration
	c := exec.CommandContext(ctx, path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	slog.Debug("Running command", logfields.Command(cmd.String()), logfields.Path(cmd.Dir))
	start := time.Now()
	err = c.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			slog.Debug("Command failed", logfields.Command(cmd.Name), logfields.ExitCode(exitErr.ExitCode()), logfields.Duration(time.Since(start)))
		}
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	slog.Debug("Command finished", logfields.Command(cmd.Name), logfields.Duration(time.Since(start)))
	return nil
}
