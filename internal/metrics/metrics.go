// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wonderfulgo"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"method", "path"},
	)

	// outcome is "ok" or "soft_failure".
	UpstreamAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gemini",
			Name:      "attempts_total",
			Help:      "Generation attempts per model and outcome",
		},
		[]string{"model", "outcome"},
	)

	UpstreamAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gemini",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of a single generation attempt",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 45, 90},
		},
		[]string{"model"},
	)

	UpstreamChainExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gemini",
			Name:      "chain_exhausted_total",
			Help:      "Requests for which every model in the chain failed",
		},
	)

	// kind is "plan", "advice" or "plan_fallback".
	ChatResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "responses_total",
			Help:      "Successful chat responses by shape",
		},
		[]string{"kind"},
	)
)
