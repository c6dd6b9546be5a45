// Package metrics exposes Prometheus instrumentation for the API server and
// the client caches.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is a no-op.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	transferActions *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invman",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "invman",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invman",
			Name:      "cache_lookups_total",
			Help:      "Catalog cache lookups by cache name and result.",
		}, []string{"cache", "result"}),
		transferActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invman",
			Name:      "transfer_actions_total",
			Help:      "Stock transfer lifecycle actions by outcome.",
		}, []string{"action", "outcome"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.cacheLookups,
		m.transferActions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency labelled by the matched
// ServeMux pattern, so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// CacheHit counts a lookup served from cache.
func (m *Metrics) CacheHit(cache string) {
	if m != nil {
		m.cacheLookups.WithLabelValues(cache, "hit").Inc()
	}
}

// CacheMiss counts a lookup that went to the backend.
func (m *Metrics) CacheMiss(cache string) {
	if m != nil {
		m.cacheLookups.WithLabelValues(cache, "miss").Inc()
	}
}

// TransferAction counts a lifecycle action; a nil err is a success.
func (m *Metrics) TransferAction(action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.transferActions.WithLabelValues(action, outcome).Inc()
}
