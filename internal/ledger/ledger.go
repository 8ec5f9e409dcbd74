// Package ledger keeps a persistent history of amalgamation builds. It is
// used to answer "history" and to spot upstream output that differs between
// two builds of the same commit.
package ledger

import (
	"context"
	"time"
)

// Status is the outcome of a recorded task.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record is one build ledger entry.
type Record struct {
	ID           string
	Task         string
	Version      string
	Commit       string
	SourceSHA256 string
	HeaderSHA256 string
	Status       Status
	Error        string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration returns the wall time of the recorded task.
func (r Record) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Drifted reports whether r and other built the same commit into different artifacts.
func (r Record) Drifted(other Record) bool {
	if r.Commit == "" || r.Commit != other.Commit {
		return false
	}
	return r.SourceSHA256 != other.SourceSHA256 || r.HeaderSHA256 != other.HeaderSHA256
}

// Store persists build records.
type Store interface {
	// Append stores rec, assigning an ID when it has none.
	Append(ctx context.Context, rec Record) (Record, error)
	// Recent returns up to limit records, newest first. limit <= 0 means all.
	Recent(ctx context.Context, limit int) ([]Record, error)
	// LastSuccessful returns the newest successful record for commit.
	LastSuccessful(ctx context.Context, task, commit string) (Record, bool, error)
	Close() error
}
