package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, opts Options) context.CancelFunc {
	t.Helper()
	w, err := New(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	// give the watcher time to register its directories
	time.Sleep(100 * time.Millisecond)
	return cancel
}

func TestWatcherDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	head := filepath.Join(dir, "HEAD")
	require.NoError(t, os.WriteFile(head, []byte("aaa\n"), 0o600))

	var calls atomic.Int32
	startWatcher(t, Options{
		Files:    []string{head},
		Debounce: 200 * time.Millisecond,
		Fingerprint: func(context.Context) (string, error) {
			b, err := os.ReadFile(head)
			return string(b), err
		},
		OnChange: func(context.Context) error {
			calls.Add(1)
			return nil
		},
	})

	for _, c := range []string{"bbb\n", "ccc\n", "ddd\n"} {
		require.NoError(t, os.WriteFile(head, []byte(c), 0o600))
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}

func TestWatcherSkipsUnchangedFingerprint(t *testing.T) {
	dir := t.TempDir()
	head := filepath.Join(dir, "HEAD")
	require.NoError(t, os.WriteFile(head, []byte("aaa\n"), 0o600))

	var calls atomic.Int32
	startWatcher(t, Options{
		Files:       []string{head},
		Debounce:    50 * time.Millisecond,
		Fingerprint: func(context.Context) (string, error) { return "constant", nil },
		OnChange: func(context.Context) error {
			calls.Add(1)
			return nil
		},
	})

	require.NoError(t, os.WriteFile(head, []byte("bbb\n"), 0o600))
	time.Sleep(500 * time.Millisecond)
	require.Equal(t, int32(0), calls.Load())
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	head := filepath.Join(dir, "HEAD")
	require.NoError(t, os.WriteFile(head, []byte("aaa\n"), 0o600))

	var calls atomic.Int32
	startWatcher(t, Options{
		Files:    []string{head},
		Debounce: 50 * time.Millisecond,
		OnChange: func(context.Context) error {
			calls.Add(1)
			return nil
		},
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ORIG_HEAD"), []byte("x"), 0o600))
	time.Sleep(400 * time.Millisecond)
	require.Equal(t, int32(0), calls.Load())
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{Files: []string{"HEAD"}})
	require.Error(t, err)
	_, err = New(Options{OnChange: func(context.Context) error { return nil }})
	require.Error(t, err)
}
