package logfields

import (
	"errors"
	"testing"
	"time"
)

func TestHelpers(t *testing.T) {
	if a := Task("sqlite"); a.Key != KeyTask || a.Value.String() != "sqlite" {
		t.Fatalf("unexpected task attr: %v", a)
	}
	if a := Ref("refs/tags/version-3.46.0"); a.Key != KeyRef || a.Value.String() != "refs/tags/version-3.46.0" {
		t.Fatalf("unexpected ref attr: %v", a)
	}
	if a := ExitCode(2); a.Key != KeyExitCode || a.Value.Int64() != 2 {
		t.Fatalf("unexpected exit code attr: %v", a)
	}
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("expected empty error attr, got %v", a)
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("unexpected error attr: %v", a)
	}
}

func TestCommitAbbreviates(t *testing.T) {
	if a := Commit("0123456789abcdef"); a.Value.String() != "01234567" {
		t.Fatalf("expected abbreviated commit, got %v", a.Value)
	}
	if a := Commit("abc"); a.Value.String() != "abc" {
		t.Fatalf("short hashes are kept, got %v", a.Value)
	}
}

func TestDuration(t *testing.T) {
	if a := Duration(1500 * time.Microsecond); a.Value.Float64() != 1.5 {
		t.Fatalf("expected 1.5ms, got %v", a.Value)
	}
}
