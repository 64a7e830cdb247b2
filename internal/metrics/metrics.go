// Package metrics owns the prometheus registry for the service: request
// counters and latency, cache hit/miss counters and oracle failure counts.
// Everything here is fire-and-forget from the core's perspective.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
	cacheHits       *prometheus.CounterVec
	cacheMisses     prometheus.Counter
	oracleFailures  prometheus.Counter

	requestCount atomic.Int64
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "clipserve",
				Name:      "requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path"},
		),
		requestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "clipserve",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency",
			},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "clipserve",
				Name:      "cache_hits_total",
				Help:      "Embedding cache hits by tier",
			},
			[]string{"tier"},
		),
		cacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "clipserve",
				Name:      "cache_misses_total",
				Help:      "Embedding cache misses",
			},
		),
		oracleFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "clipserve",
				Name:      "oracle_failures_total",
				Help:      "Embedding backend failures",
			},
		),
	}
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.cacheHits,
		m.cacheMisses,
		m.oracleFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// CacheHit and CacheMiss satisfy the cache Recorder interface.
func (m *Metrics) CacheHit(tier string) {
	m.cacheHits.WithLabelValues(tier).Inc()
}

func (m *Metrics) CacheMiss() {
	m.cacheMisses.Inc()
}

func (m *Metrics) OracleFailure() {
	m.oracleFailures.Inc()
}

// RequestCount reports total requests served since startup.
func (m *Metrics) RequestCount() int64 {
	return m.requestCount.Load()
}

// Middleware tracks per-request counters and latency.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		m.requestsTotal.WithLabelValues(c.Request.Method, path).Inc()
		m.requestDuration.Observe(time.Since(start).Seconds())
		m.requestCount.Add(1)
	}
}

// Handler serves the /metrics scrape endpoint against the private registry.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
