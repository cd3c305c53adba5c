package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "collection"},
	)

	// Sweep Metrics
	SweepItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_items_total",
			Help: "Total number of items processed by reset sweeps",
		},
		[]string{"frequency", "status"}, // reset, skipped, failed
	)

	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Duration of reset sweeps",
			Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"frequency"},
	)

	// Completion Metrics
	CompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completions_total",
			Help: "Total number of completion operations",
		},
		[]string{"kind", "action"}, // complete, uncomplete, noop
	)

	// Analytics Metrics
	AnalyticsFoldsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_folds_total",
			Help: "Total number of events folded into analytics documents",
		},
		[]string{"event"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type", "reason"},
	)
)

// TrackDBOperation tracks database operation duration
func TrackDBOperation(operation, collection string) *prometheus.Timer {
	return prometheus.NewTimer(DBOperationDuration.WithLabelValues(operation, collection))
}

// TrackError increments the error counter by type
func TrackError(errorType, reason string) {
	ErrorsTotal.WithLabelValues(errorType, reason).Inc()
}

func TrackSweepItem(frequency, status string) {
	SweepItemsTotal.WithLabelValues(frequency, status).Inc()
}

func TrackCompletion(kind, action string) {
	CompletionsTotal.WithLabelValues(kind, action).Inc()
}

func TrackFold(event string) {
	AnalyticsFoldsTotal.WithLabelValues(event).Inc()
}
