package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sqlite3src"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	taskDuration  *prom.HistogramVec
	taskResults   *prom.CounterVec
	runDuration   prom.Histogram
	runOutcome    *prom.CounterVec
	artifactBytes *prom.GaugeVec
	drift         prom.Counter
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	// configure and make on a cold tree take minutes
	buckets := prom.ExponentialBuckets(0.1, 2, 12)

	pr := &PrometheusRecorder{
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of individual pipeline tasks",
			Buckets:   buckets,
		}, []string{"task"}),
		taskResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_results_total",
			Help:      "Task result counts by outcome",
		}, []string{"task", "result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total pipeline run duration",
			Buckets:   buckets,
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Pipeline runs by final status",
		}, []string{"outcome"}),
		artifactBytes: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      "Size of the generated amalgamation files",
		}, []string{"file"}),
		drift: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "determinism_drift_total",
			Help:      "Builds whose artifacts differ from an earlier build of the same commit",
		}),
	}
	reg.MustRegister(pr.taskDuration, pr.taskResults, pr.runDuration, pr.runOutcome, pr.artifactBytes, pr.drift)
	return pr
}

func (p *PrometheusRecorder) ObserveTaskDuration(task string, d time.Duration) {
	if p == nil {
		return
	}
	p.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskResult(task string, result ResultLabel) {
	if p == nil {
		return
	}
	p.taskResults.WithLabelValues(task, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetArtifactBytes(file string, n int64) {
	if p == nil {
		return
	}
	p.artifactBytes.WithLabelValues(file).Set(float64(n))
}

func (p *PrometheusRecorder) IncDeterminismDrift() {
	if p == nil {
		return
	}
	p.drift.Inc()
}
