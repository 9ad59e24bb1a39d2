// Package metrics holds the Prometheus collectors for the redirect path,
// the cache gateway, the janitor and the HTTP layer.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shortlinks"

// Metrics groups all collectors registered by the service.
type Metrics struct {
	registry *prometheus.Registry

	cacheOps     *prometheus.CounterVec
	resolutions  *prometheus.CounterVec
	sweptLinks   prometheus.Counter
	sweeps       *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry along
// with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Cache gateway operations by operation and result.",
		}, []string{"op", "result"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redirect",
			Name:      "resolutions_total",
			Help:      "Short code resolutions by source and outcome.",
		}, []string{"source", "outcome"}),
		sweptLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "janitor",
			Name:      "swept_links_total",
			Help:      "Expired links removed by the janitor.",
		}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "janitor",
			Name:      "runs_total",
			Help:      "Janitor sweep runs by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cacheOps,
		m.resolutions,
		m.sweptLinks,
		m.sweeps,
		m.httpRequests,
		m.httpLatency,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CacheOp records one cache gateway operation ("get", "put", "delete",
// "purge") and its result ("hit", "miss", "ok", "error").
func (m *Metrics) CacheOp(op, result string) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues(op, result).Inc()
}

// Resolution records a redirect outcome. source is "cache" or "store".
func (m *Metrics) Resolution(source, outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(source, outcome).Inc()
}

// Sweep records one janitor run.
func (m *Metrics) Sweep(removed int64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.sweeps.WithLabelValues("error").Inc()
		return
	}
	m.sweeps.WithLabelValues("ok").Inc()
	m.sweptLinks.Add(float64(removed))
}

// HTTPRequest records a served request.
func (m *Metrics) HTTPRequest(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(took.Seconds())
}
