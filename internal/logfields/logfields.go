// Package logfields holds the canonical slog attribute keys used by sqlite3src.
package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTask       = "task"
	KeyStage      = "stage"
	KeyVersion    = "version"
	KeyRef        = "ref"
	KeyCommit     = "commit"
	KeySubmodule  = "submodule"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyCommand    = "command"
	KeyExitCode   = "exit_code"
	KeyDigest     = "sha256"
	KeyBuildID    = "build_id"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Task(name string) slog.Attr      { return slog.String(KeyTask, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func Ref(r string) slog.Attr          { return slog.String(KeyRef, r) }
func Submodule(name string) slog.Attr { return slog.String(KeySubmodule, name) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func Digest(d string) slog.Attr       { return slog.String(KeyDigest, d) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }

// Commit logs the abbreviated form of a commit hash.
func Commit(hash string) slog.Attr {
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return slog.String(KeyCommit, hash)
}

// Duration logs d in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
