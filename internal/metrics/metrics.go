// Package metrics owns the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds every collector. A nil *Metrics is valid and records nothing,
// which keeps tests and tools free of registry setup.
type Metrics struct {
	// Registry owns the collectors below and backs the /metrics endpoint.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	recomputes      *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	publishErrors   prometheus.Counter
	ledgerSize      prometheus.Gauge
}

// New creates a private registry so repeated construction in tests never
// trips over duplicate registration.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finvue_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
		recomputes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvue_analytics_recomputes_total",
				Help: "Full recomputations of derived analytics.",
			},
			[]string{"view"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvue_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvue_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvue_ledger_mutations_total",
				Help: "Ledger mutations by kind.",
			},
			[]string{"kind"},
		),
		publishErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "finvue_event_publish_errors_total",
				Help: "Ledger events that could not be published.",
			},
		),
		ledgerSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "finvue_ledger_transactions",
				Help: "Number of transactions currently in the ledger.",
			},
		),
	}
}

// Handler serves the private registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, status).Observe(d.Seconds())
}

func (m *Metrics) IncrRecompute(view string) {
	if m == nil {
		return
	}
	m.recomputes.WithLabelValues(view).Inc()
}

func (m *Metrics) IncrCacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(cache).Inc()
}

func (m *Metrics) IncrCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(cache).Inc()
}

func (m *Metrics) IncrMutation(kind string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrPublishError() {
	if m == nil {
		return
	}
	m.publishErrors.Inc()
}

func (m *Metrics) SetLedgerSize(n int) {
	if m == nil {
		return
	}
	m.ledgerSize.Set(float64(n))
}

// CacheHits returns the current hit count for cache.
func (m *Metrics) CacheHits(cache string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.cacheHits.WithLabelValues(cache))
}

// CacheMisses returns the current miss count for cache.
func (m *Metrics) CacheMisses(cache string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.cacheMisses.WithLabelValues(cache))
}

// Recomputes returns how often view was recomputed.
func (m *Metrics) Recomputes(view string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.recomputes.WithLabelValues(view))
}

func counterValue(c prometheus.Counter) float64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		return 0
	}
	if out.Counter != nil && out.Counter.Value != nil {
		return *out.Counter.Value
	}
	return 0
}
