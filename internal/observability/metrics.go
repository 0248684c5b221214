// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Detector metrics
	DetectorRuns      *prometheus.CounterVec
	CandidatesEmitted *prometheus.CounterVec

	// Scoring metrics
	ScoresComputed  prometheus.Counter
	ScoringDuration prometheus.Histogram

	// Calibration metrics
	CalibrationRuns     *prometheus.CounterVec
	FeedbackProcessed   prometheus.Counter
	WeightSnapshotCount prometheus.Counter

	// Engine metrics
	ItemsProcessed prometheus.Counter
	ItemErrors     prometheus.Counter
	BatchDuration  prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "property_risk_lab"
	}

	return &Metrics{
		DetectorRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "runs_total",
			Help:      "Total number of detector runs by detector",
		}, []string{"detector"}),
		CandidatesEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "candidates_emitted_total",
			Help:      "Total number of anomaly candidates emitted by detector and severity",
		}, []string{"detector", "severity"}),

		ScoresComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "scores_computed_total",
			Help:      "Total number of unified risk scores computed",
		}),
		ScoringDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "duration_seconds",
			Help:      "Time spent computing one unified risk score",
			Buckets:   prometheus.DefBuckets,
		}),

		CalibrationRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calibration",
			Name:      "runs_total",
			Help:      "Total number of calibration runs by status",
		}, []string{"status"}),
		FeedbackProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calibration",
			Name:      "feedback_processed_total",
			Help:      "Total number of feedback records processed by calibration",
		}),
		WeightSnapshotCount: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calibration",
			Name:      "weight_snapshots_published_total",
			Help:      "Total number of weight snapshots published",
		}),

		ItemsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "items_processed_total",
			Help:      "Total number of work items processed by the batch engine",
		}),
		ItemErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "item_errors_total",
			Help:      "Total number of work items that failed",
		}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of one full batch run",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query latency by database and operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors by database and operation",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDetectorRun increments the detector run counter.
func RecordDetectorRun(detector string) {
	DefaultMetrics.DetectorRuns.WithLabelValues(detector).Inc()
}

// RecordCandidateEmitted increments the candidate counter for a detector
// and severity.
func RecordCandidateEmitted(detector, severity string) {
	DefaultMetrics.CandidatesEmitted.WithLabelValues(detector, severity).Inc()
}

// RecordScore records one computed score and its duration.
func RecordScore(seconds float64) {
	DefaultMetrics.ScoresComputed.Inc()
	DefaultMetrics.ScoringDuration.Observe(seconds)
}

// RecordCalibrationRun records a calibration run outcome.
func RecordCalibrationRun(status string, feedbackCount int) {
	DefaultMetrics.CalibrationRuns.WithLabelValues(status).Inc()
	if feedbackCount > 0 {
		DefaultMetrics.FeedbackProcessed.Add(float64(feedbackCount))
		DefaultMetrics.WeightSnapshotCount.Inc()
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
