// Package metrics defines the Prometheus instrumentation surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "searchcore"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	embeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "requests_total",
			Help:      "Embedding provider calls by outcome.",
		},
		[]string{"status"},
	)

	embeddingTokens = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "tokens_total",
			Help:      "Total tokens billed by the embedding provider.",
		},
	)

	embeddingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "cache_lookups_total",
			Help:      "Embedding cache lookups by result.",
		},
		[]string{"result"},
	)

	searchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Search executions by retrieval mode.",
		},
		[]string{"mode"},
	)

	searchCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "candidates",
			Help:      "Candidates surviving constraint filtering per search.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	eventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "ingested_total",
			Help:      "Behavioral events accepted by type.",
		},
		[]string{"type"},
	)

	eventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Behavioral events dropped due to a full queue.",
		},
	)
)

// ObserveEmbedding records one provider call.
func ObserveEmbedding(err error, totalTokens int) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	embeddingRequests.WithLabelValues(status).Inc()
	if totalTokens > 0 {
		embeddingTokens.Add(float64(totalTokens))
	}
}

// ObserveEmbeddingCache records one cache lookup; result is "hit" or "miss".
func ObserveEmbeddingCache(result string) {
	embeddingCacheLookups.WithLabelValues(result).Inc()
}

// ObserveSearch records one search execution; mode is "semantic" or "fallback".
func ObserveSearch(mode string, candidates int) {
	searchRequests.WithLabelValues(mode).Inc()
	searchCandidates.Observe(float64(candidates))
}

// ObserveEventIngested records one accepted behavioral event.
func ObserveEventIngested(eventType string) {
	eventsIngested.WithLabelValues(eventType).Inc()
}

// ObserveEventDropped records one event rejected by backpressure.
func ObserveEventDropped() {
	eventsDropped.Inc()
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware instruments HTTP handlers with request counts and latency,
// labeled by the chi route pattern rather than the raw path.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
