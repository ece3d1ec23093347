// Package metrics exposes Prometheus instrumentation for time machine runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Document outcomes.
const (
	OutcomeRouted   = "routed"
	OutcomeUnrouted = "unrouted"
	OutcomeUndated  = "undated"
)

// Recorder collects run metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry  *prometheus.Registry
	runs      *prometheus.CounterVec
	documents *prometheus.CounterVec
	duration  prometheus.Histogram
	retained  *prometheus.GaugeVec
}

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timemachine_runs_total",
			Help: "Total number of time machine runs by status",
		}, []string{"status"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timemachine_documents_total",
			Help: "Documents seen by runs, by routing outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "timemachine_run_duration_seconds",
			Help:    "Run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		retained: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "timemachine_retained_notes",
			Help: "Notes retained per horizon in the latest run",
		}, []string{"horizon"}),
	}
	r.registry.MustRegister(r.runs, r.documents, r.duration, r.retained)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// Document counts one document outcome.
func (r *Recorder) Document(outcome string) {
	if r == nil {
		return
	}
	r.documents.WithLabelValues(outcome).Inc()
}

// Run records a finished run.
func (r *Recorder) Run(status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(status).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// Retained sets the number of notes a horizon kept.
func (r *Recorder) Retained(horizon string, n int) {
	if r == nil {
		return
	}
	r.retained.WithLabelValues(horizon).Set(float64(n))
}
