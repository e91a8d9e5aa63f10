// Package metrics provides Prometheus instrumentation for the recommendation
// pipeline, the generation guard and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for recommendation and search requests.
const (
	OutcomeOK         = "ok"
	OutcomeDegraded   = "degraded"
	OutcomeValidation = "validation"
	OutcomeError      = "error"
)

// Registry holds every collector exported by this package. It is separate
// from the default registry so tests and embedded servers see only our series.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// Pipeline metrics
	RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_requests_total",
			Help: "Total number of pipeline requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	RetrievalDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animerec_retrieval_duration_seconds",
			Help:    "Duration of top-k similarity retrieval in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	GenerationDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animerec_generation_duration_seconds",
			Help:    "Duration of LLM answer generation in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	RetrievedDocuments = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animerec_retrieved_documents",
			Help:    "Number of chunks retrieved per query",
			Buckets: prometheus.LinearBuckets(0, 2, 8),
		},
	)

	// Index metrics
	IndexEntries = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "animerec_index_entries",
			Help: "Number of entries in the loaded vector index",
		},
	)

	IndexBuildDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animerec_index_build_duration_seconds",
			Help:    "Duration of vector index builds in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)

	// Generation guard metrics
	CircuitBreakerState = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "animerec_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_circuit_breaker_requests_total",
			Help: "Requests passing through the circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// HTTP API metrics
	APIRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_api_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animerec_api_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler returns the /metrics handler for Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// RecordRequest records the outcome of a recommend or search request.
func RecordRequest(operation, outcome string) {
	RequestsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordRetrieval records retrieval latency and the number of hits returned.
func RecordRetrieval(duration time.Duration, hits int) {
	RetrievalDuration.Observe(duration.Seconds())
	RetrievedDocuments.Observe(float64(hits))
}

// RecordGeneration records generation latency.
func RecordGeneration(duration time.Duration) {
	GenerationDuration.Observe(duration.Seconds())
}

// RecordIndexBuild records a completed index build.
func RecordIndexBuild(duration time.Duration, entries int) {
	IndexBuildDuration.Observe(duration.Seconds())
	IndexEntries.Set(float64(entries))
}

// SetIndexEntries sets the loaded index size.
func SetIndexEntries(entries int) {
	IndexEntries.Set(float64(entries))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
