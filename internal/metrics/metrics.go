package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	ExtractionAttempts *prometheus.CounterVec
	BackendAttempts    *prometheus.CounterVec
	PipelineRuns       *prometheus.CounterVec
	PipelineDuration   *prometheus.HistogramVec
	CleanupFailures    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ExtractionAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "career_hub_extraction_attempts_total",
				Help: "Text extraction attempts by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		BackendAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "career_hub_backend_attempts_total",
				Help: "Analysis backend calls by backend and outcome",
			},
			[]string{"backend", "outcome"},
		),
		PipelineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "career_hub_pipeline_runs_total",
				Help: "Analysis pipeline runs by variant and outcome",
			},
			[]string{"variant", "outcome"},
		),
		PipelineDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "career_hub_pipeline_duration_seconds",
				Help:    "End to end duration of analysis pipeline runs",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"variant"},
		),
		CleanupFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "career_hub_cleanup_failures_total",
				Help: "Temporary files or directories that could not be removed",
			},
		),
	}
}

func (m *Metrics) ObserveExtraction(strategy, outcome string) {
	if m == nil {
		return
	}
	m.ExtractionAttempts.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) ObserveBackend(backend, outcome string) {
	if m == nil {
		return
	}
	m.BackendAttempts.WithLabelValues(backend, outcome).Inc()
}

func (m *Metrics) ObservePipeline(variant, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(variant, outcome).Inc()
	m.PipelineDuration.WithLabelValues(variant).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveCleanupFailure() {
	if m == nil {
		return
	}
	m.CleanupFailures.Inc()
}
