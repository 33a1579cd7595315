package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"finvue/internal/cache"
	"finvue/internal/core"
	"finvue/internal/log"
	"finvue/internal/metrics"
)

// Snapshot is a consistent read of the ledger. Version changes on every
// mutation of either the transactions or the taxonomy.
type Snapshot struct {
	Version      uint64
	Transactions []core.Transaction
	Taxonomy     core.Taxonomy
}

// Source hands out ledger snapshots.
type Source interface {
	Snapshot() Snapshot
}

// Engine memoizes Build and Trend on the snapshot version, the selection and
// the current month. Results equal a direct call; they are shared between
// callers and must be treated as read-only.
type Engine struct {
	source     Source
	dashboards *cache.LRUCache[Dashboard]
	trends     *cache.LRUCache[[]core.TrendPoint]
	group      singleflight.Group
	metrics    *metrics.Metrics
	now        func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithNow sets the clock that decides the trend window.
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithMetrics records cache hits, misses and recomputes.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine builds an engine whose caches hold size entries for ttl.
func NewEngine(src Source, size int, ttl time.Duration, opts ...EngineOption) *Engine {
	e := &Engine{
		source:     src,
		dashboards: cache.NewLRUCache[Dashboard](size, ttl),
		trends:     cache.NewLRUCache[[]core.TrendPoint](size, ttl),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterCaches hands the engine caches to a cleanup manager.
func (e *Engine) RegisterCaches(m *cache.Manager) {
	m.Register("dashboard", e.dashboards)
	m.Register("trend", e.trends)
}

// Dashboard returns the dashboard for sel over the current ledger.
func (e *Engine) Dashboard(ctx context.Context, sel Selection, opts TrendOptions) Dashboard {
	snap := e.source.Snapshot()
	now := e.now()
	key := fmt.Sprintf("d|%d|%s|%d|%d|%q|%t", snap.Version, now.Format("2006-01"), sel.Month, sel.Year, sel.Query, opts.CollapseYears)

	if d, ok := e.dashboards.Get(key); ok {
		e.metrics.IncrCacheHit("dashboard")
		return d
	}
	e.metrics.IncrCacheMiss("dashboard")

	v, _, _ := e.group.Do(key, func() (any, error) {
		start := time.Now()
		d := Build(snap.Transactions, snap.Taxonomy, sel, now, opts)
		e.dashboards.Set(key, d)
		e.metrics.IncrRecompute("dashboard")
		logger(ctx).DebugContext(ctx, "Dashboard recomputed",
			log.FieldVersion, snap.Version,
			log.FieldMonth, sel.Month,
			log.FieldYear, sel.Year,
			"transactions", len(d.Transactions),
			"duration", time.Since(start))
		return d, nil
	})
	return v.(Dashboard)
}

// Trend returns the rolling series over the current ledger.
func (e *Engine) Trend(ctx context.Context, opts TrendOptions) []core.TrendPoint {
	snap := e.source.Snapshot()
	now := e.now()
	key := fmt.Sprintf("t|%d|%s|%t", snap.Version, now.Format("2006-01"), opts.CollapseYears)

	if points, ok := e.trends.Get(key); ok {
		e.metrics.IncrCacheHit("trend")
		return points
	}
	e.metrics.IncrCacheMiss("trend")

	v, _, _ := e.group.Do(key, func() (any, error) {
		points := Trend(snap.Transactions, snap.Taxonomy, now, opts)
		e.trends.Set(key, points)
		e.metrics.IncrRecompute("trend")
		logger(ctx).DebugContext(ctx, "Trend recomputed", log.FieldVersion, snap.Version)
		return points, nil
	})
	return v.([]core.TrendPoint)
}

// Invalidate drops every memoized result.
func (e *Engine) Invalidate() {
	e.dashboards.Purge()
	e.trends.Purge()
}

func logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentAnalytics)
}
