package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	sessionsActiveGauge prometheus.Gauge
	gradingsTotal       *prometheus.CounterVec
	staleResponsesTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skriba",
			Name:      "http_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "skriba",
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skriba",
			Name:      "http_errors_total",
			Help:      "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		sessionsActiveGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "skriba",
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of grading sessions currently held in memory.",
		})

		gradingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "skriba",
			Subsystem: "session",
			Name:      "gradings_total",
			Help:      "Completed grading attempts by outcome.",
		}, []string{"outcome"})

		staleResponsesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "skriba",
			Subsystem: "session",
			Name:      "stale_responses_total",
			Help:      "Scorer responses dropped because they no longer matched the outstanding request.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			sessionsActiveGauge,
			gradingsTotal,
			staleResponsesTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SessionsActive exposes the live session gauge.
func SessionsActive() prometheus.Gauge {
	RegisterMetrics()
	return sessionsActiveGauge
}

// Gradings exposes the grading outcome counter.
func Gradings() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingsTotal
}

// StaleResponses exposes the dropped-response counter.
func StaleResponses() prometheus.Counter {
	RegisterMetrics()
	return staleResponsesTotal
}
