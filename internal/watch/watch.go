// Package watch rebuilds the amalgamation when the pinned submodule commit
// changes on disk, for example after a checkout or an update in another shell.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sqlite3src/internal/logfields"
)

// Options configures a Watcher.
type Options struct {
	// Files are watched through their parent directories.
	Files    []string
	Debounce time.Duration
	// Fingerprint identifies the watched state; OnChange only runs when it differs
	// from the value seen at the previous run.
	Fingerprint func(ctx context.Context) (string, error)
	OnChange    func(ctx context.Context) error
}

// Watcher monitors files and calls OnChange after activity settles.
type Watcher struct {
	files    map[string]struct{}
	dirs     []string
	debounce time.Duration
	print    func(ctx context.Context) (string, error)
	onChange func(ctx context.Context) error
	watcher  *fsnotify.Watcher
}

// New creates a Watcher. Call Run to start it.
func New(opts Options) (*Watcher, error) {
	if opts.OnChange == nil {
		return nil, errors.New("watch: OnChange is required")
	}
	if len(opts.Files) == 0 {
		return nil, errors.New("watch: no files to watch")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		files:    map[string]struct{}{},
		debounce: opts.Debounce,
		print:    opts.Fingerprint,
		onChange: opts.OnChange,
		watcher:  fw,
	}
	seen := map[string]bool{}
	for _, f := range opts.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		w.files[abs] = struct{}{}
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Run blocks until ctx is done. OnChange runs on the calling goroutine, so
// rebuilds never overlap; errors from it are logged and watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	// Watching the directory survives editors and git replacing the file.
	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	last := w.fingerprint(ctx)
	slog.Info("Watching for submodule changes", slog.Any("files", w.fileList()))

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if _, watched := w.files[filepath.Clean(event.Name)]; !watched {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			slog.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case <-timer.C:
			current := w.fingerprint(ctx)
			if w.print != nil && current == last {
				slog.Debug("Pinned state unchanged, skipping rebuild")
				continue
			}
			last = current
			if err := w.onChange(ctx); err != nil {
				slog.Error("Rebuild failed", logfields.Error(err))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) fingerprint(ctx context.Context) string {
	if w.print == nil {
		return ""
	}
	fp, err := w.print(ctx)
	if err != nil {
		slog.Warn("Cannot fingerprint watched state", logfields.Error(err))
		return ""
	}
	return fp
}

func (w *Watcher) fileList() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	return out
}
