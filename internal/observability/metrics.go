// Package observability defines the prometheus collectors for the API and
// exposes them on the main router's /metrics endpoint.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts inbound requests by matched route, method, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "webgis", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	// HTTPLatency tracks request duration by matched route and method.
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webgis", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	// CacheEvents counts catalog cache hits, misses, sets, and deletes.
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "webgis", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"},
	)
	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "webgis", Name: "rate_limited_total", Help: "Requests rejected with 429."},
	)
)

// NewRegistry returns a registry with all application collectors registered.
// A dedicated registry (rather than the global default) keeps tests from
// tripping duplicate-registration panics.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, CacheEvents, RateLimited)
	return reg
}

// Handler returns the /metrics HTTP handler for the given registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveCache records one cache event. event is hit|miss|set|del.
func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}
