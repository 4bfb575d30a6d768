package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the scheduler's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scheduler",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	sweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "deadline",
			Name:      "sweeps_total",
			Help:      "Total number of deadline sweeps by outcome.",
		},
		[]string{"outcome"},
	)

	jobsAutoReturned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "deadline",
			Name:      "jobs_returned_total",
			Help:      "Total number of jobs returned to the queue after missing their deadline.",
		},
	)

	sweepItemFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "deadline",
			Name:      "item_failures_total",
			Help:      "Total number of jobs a sweep failed to return.",
		},
	)

	occurrencesGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "occurrences",
			Name:      "generated_total",
			Help:      "Total number of service occurrences generated from schedules.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		sweepRuns,
		jobsAutoReturned,
		sweepItemFailures,
		occurrencesGenerated,
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one handled request. path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSweep records a finished sweep. outcome is "ok" or "error".
func RecordSweep(outcome string, returned, failed int) {
	sweepRuns.WithLabelValues(outcome).Inc()
	jobsAutoReturned.Add(float64(returned))
	sweepItemFailures.Add(float64(failed))
}

func RecordOccurrencesGenerated(n int) {
	occurrencesGenerated.Add(float64(n))
}
