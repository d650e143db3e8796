// Package metrics provides the prometheus collectors for fitpress.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fitpress"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "route"},
	)

	// PostWrites counts primary post mutations by operation and outcome.
	PostWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "content",
			Name:      "post_writes_total",
			Help:      "Post create/update/delete calls by operation and result",
		},
		[]string{"op", "result"},
	)

	// SoftFailures counts errors that were logged and absorbed.
	SoftFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "content",
			Name:      "soft_failures_total",
			Help:      "Absorbed failures by kind (tag, category, view_count)",
		},
		[]string{"kind"},
	)

	Generations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "runs_total",
			Help:      "AI blog generation runs by trigger and status",
		},
		[]string{"trigger", "status"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Duration of a generation run including the completion call",
			Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
)

// ObservePostWrite records the outcome of a primary post mutation.
func ObservePostWrite(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	PostWrites.WithLabelValues(op, result).Inc()
}

// ObserveSoftFailure records an absorbed failure of the given kind.
func ObserveSoftFailure(kind string) {
	SoftFailures.WithLabelValues(kind).Inc()
}

// ObserveGeneration records a finished generation run.
func ObserveGeneration(trigger string, seconds float64, err error) {
	status := "completed"
	if err != nil {
		status = "failed"
	}
	Generations.WithLabelValues(trigger, status).Inc()
	GenerationDuration.Observe(seconds)
}
