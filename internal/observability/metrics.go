// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	RepetitionsCompleted *prometheus.CounterVec
	RepetitionsFailed    *prometheus.CounterVec
	StepsExecuted        prometheus.Counter
	ClampEvents          prometheus.Counter
	RunDuration          *prometheus.HistogramVec
	ActiveRuns           prometheus.Gauge

	// Storage metrics
	PointsStored     prometheus.Counter
	AggregatesStored prometheus.Counter
	DBQueryDuration  *prometheus.HistogramVec
	DBQueryErrors    *prometheus.CounterVec

	// Stream metrics
	StreamClients        prometheus.Gauge
	StreamEventsSent     prometheus.Counter
	StreamClientsDropped prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tokensim"
	}

	return &Metrics{
		RepetitionsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "repetitions_completed_total",
			Help:      "Total number of successful repetitions by scenario",
		}, []string{"scenario"}),
		RepetitionsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "repetitions_failed_total",
			Help:      "Total number of repetitions aborted by numerical failures",
		}, []string{"scenario"}),
		StepsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "steps_executed_total",
			Help:      "Total number of economy steps executed",
		}),
		ClampEvents: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "clamp_events_total",
			Help:      "Total number of price/supply values floored at zero",
		}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "run_duration_seconds",
			Help:      "Monte-Carlo execute duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"scenario"}),
		ActiveRuns: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "active_runs",
			Help:      "Number of Monte-Carlo runs currently executing",
		}),

		PointsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "points_stored_total",
			Help:      "Total number of time-series points written",
		}),
		AggregatesStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "aggregates_stored_total",
			Help:      "Total number of per-step aggregates written",
		}),
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Number of connected progress stream clients",
		}),
		StreamEventsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "events_sent_total",
			Help:      "Total number of progress events broadcast",
		}),
		StreamClientsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients_dropped_total",
			Help:      "Total number of clients dropped for slow consumption",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRepetition records the outcome of one repetition.
func RecordRepetition(scenario string, failed bool) {
	if failed {
		DefaultMetrics.RepetitionsFailed.WithLabelValues(scenario).Inc()
		return
	}
	DefaultMetrics.RepetitionsCompleted.WithLabelValues(scenario).Inc()
}

// RecordSteps adds to the executed step counter.
func RecordSteps(n int) {
	DefaultMetrics.StepsExecuted.Add(float64(n))
}

// RecordClamps adds to the clamp event counter.
func RecordClamps(n int) {
	DefaultMetrics.ClampEvents.Add(float64(n))
}

// RecordRunDuration records one execute call's duration.
func RecordRunDuration(scenario string, seconds float64) {
	DefaultMetrics.RunDuration.WithLabelValues(scenario).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
