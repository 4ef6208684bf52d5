package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ReconcileRuns     *prometheus.CounterVec
	ReconcileDuration *prometheus.HistogramVec
	RecordsSaved      *prometheus.CounterVec
	DuplicateRejected *prometheus.CounterVec

	WorkflowTransitions *prometheus.CounterVec
	SigningStepDuration *prometheus.HistogramVec
	SigningStepFailures *prometheus.CounterVec

	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ReconcileRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "servicebook_reconcile_runs_total",
			Help: "Reconciliation engine runs by entity category",
		}, []string{"category"}),
		ReconcileDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "servicebook_reconcile_duration_seconds",
			Help:    "Reconciliation engine latency by entity category",
			Buckets: prometheus.DefBuckets,
		}, []string{"category"}),
		RecordsSaved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "servicebook_records_saved_total",
			Help: "Records created or updated by entity category",
		}, []string{"category"}),
		DuplicateRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "servicebook_duplicate_rejected_total",
			Help: "Record creations rejected by the save-time duplicate check",
		}, []string{"category"}),
		WorkflowTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "servicebook_workflow_transitions_total",
			Help: "Workflow status transitions by action and outcome",
		}, []string{"action", "outcome"}),
		SigningStepDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "servicebook_signing_step_duration_seconds",
			Help:    "Signing protocol step latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"step"}),
		SigningStepFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "servicebook_signing_step_failures_total",
			Help: "Signing protocol step failures by step and failure class",
		}, []string{"step", "class"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "servicebook_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
