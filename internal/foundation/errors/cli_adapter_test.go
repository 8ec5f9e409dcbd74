package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"testing"
)

type customError struct{ msg string }

func (e *customError) Error() string { return e.msg }

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("invalid input").Build(), expected: 2},
		{name: "pin", err: PinError("no such tag").Build(), expected: 3},
		{name: "prerequisite", err: MissingPrerequisiteError("run prepare first").Build(), expected: 4},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "fetch", err: FetchError("unreachable").Build(), expected: 8},
		{name: "build", err: BuildError("make failed").Build(), expected: 11},
		{name: "wrapped classified", err: fmt.Errorf("task sqlite: %w", BuildError("make failed").Build()), expected: 11},
		{name: "unclassified", err: &customError{msg: "unknown error"}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_SubprocessExitStatusWins(t *testing.T) {
	runErr := exec.Command("sh", "-c", "exit 3").Run()
	if runErr == nil {
		t.Fatal("expected sh to fail")
	}

	err := BuildError("configure failed").WithCause(runErr).Build()
	adapter := NewCLIErrorAdapter(false, slog.Default())
	if got := adapter.ExitCodeFor(err); got != 3 {
		t.Errorf("ExitCodeFor() = %d, want subprocess status 3", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	var code int
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	adapter.out = &out
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(FetchError("submodule init failed").WithCause(&customError{msg: "remote hung up"}).Build())

	if code != 8 {
		t.Errorf("exit code = %d, want 8", code)
	}
	if got := out.String(); got != "Error: submodule init failed: remote hung up\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestCLIErrorAdapter_HandleNil(t *testing.T) {
	called := false
	adapter := NewCLIErrorAdapter(true, nil)
	adapter.exit = func(int) { called = true }
	adapter.HandleError(nil)
	if called {
		t.Error("exit must not be called for nil error")
	}
}
