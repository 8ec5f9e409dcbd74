package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveTaskDuration("sqlite", 150*time.Millisecond)
	pr.IncTaskResult("sqlite", ResultSuccess)
	pr.IncTaskResult("sqlite", ResultSuccess)
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.IncRunOutcome(OutcomeSuccess)
	pr.SetArtifactBytes("sqlite3.c", 9_000_000)
	pr.IncDeterminismDrift()

	if got := testutil.ToFloat64(pr.taskResults.WithLabelValues("sqlite", string(ResultSuccess))); got != 2 {
		t.Fatalf("task results = %v, want 2", got)
	}
	if got := testutil.ToFloat64(pr.artifactBytes.WithLabelValues("sqlite3.c")); got != 9_000_000 {
		t.Fatalf("artifact bytes = %v", got)
	}
	if got := testutil.ToFloat64(pr.drift); got != 1 {
		t.Fatalf("drift = %v, want 1", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 6 {
		t.Fatalf("expected 6 metric families, got %d", len(mfs))
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncRunOutcome(OutcomeFailed)

	path := filepath.Join(t.TempDir(), "textfile", "sqlite3src.prom")
	if err := WriteTextfile(reg, path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `sqlite3src_run_outcomes_total{outcome="failed"} 1`) {
		t.Fatalf("unexpected textfile contents:\n%s", data)
	}
}

func TestWriteTextfileDisabled(t *testing.T) {
	if err := WriteTextfile(prom.NewRegistry(), ""); err != nil {
		t.Fatalf("empty path should be a no-op: %v", err)
	}
}
