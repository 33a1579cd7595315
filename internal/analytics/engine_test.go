package analytics

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"finvue/internal/cache"
	"finvue/internal/core"
	"finvue/internal/metrics"
)

type fakeSource struct {
	mu   sync.Mutex
	snap Snapshot
}

func (f *fakeSource) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSource) replace(txs []core.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = Snapshot{Version: f.snap.Version + 1, Transactions: txs, Taxonomy: f.snap.Taxonomy}
}

func newFakeSource() *fakeSource {
	return &fakeSource{snap: Snapshot{
		Version:      1,
		Transactions: core.DemoTransactions(),
		Taxonomy:     core.DefaultTaxonomy(),
	}}
}

func TestEngineMatchesDirectComputation(t *testing.T) {
	src := newFakeSource()
	e := NewEngine(src, 8, time.Minute, WithNow(func() time.Time { return march2024 }))
	sel := Selection{Month: 2, Year: 2024}

	got := e.Dashboard(context.Background(), sel, TrendOptions{})
	want := Build(src.snap.Transactions, src.snap.Taxonomy, sel, march2024, TrendOptions{})
	if !reflect.DeepEqual(got, want) {
		t.Fatal("memoized dashboard differs from direct build")
	}

	trend := e.Trend(context.Background(), TrendOptions{})
	if !reflect.DeepEqual(trend, want.Trend) {
		t.Fatal("memoized trend differs from direct computation")
	}
}

func TestEngineCachesPerVersion(t *testing.T) {
	src := newFakeSource()
	m := metrics.New()
	e := NewEngine(src, 8, time.Minute,
		WithNow(func() time.Time { return march2024 }),
		WithMetrics(m))
	ctx := context.Background()
	sel := Selection{Month: 2}

	first := e.Dashboard(ctx, sel, TrendOptions{})
	e.Dashboard(ctx, sel, TrendOptions{})
	if m.Recomputes("dashboard") != 1 || m.CacheHits("dashboard") != 1 {
		t.Fatalf("expected 1 recompute and 1 hit, got %v/%v", m.Recomputes("dashboard"), m.CacheHits("dashboard"))
	}

	src.replace(nil)
	second := e.Dashboard(ctx, sel, TrendOptions{})
	if m.Recomputes("dashboard") != 2 {
		t.Fatalf("version change should force recompute, got %v", m.Recomputes("dashboard"))
	}
	if first.Stats.Income.IsZero() || !second.Stats.Income.IsZero() {
		t.Fatal("new snapshot not reflected")
	}

	e.Dashboard(ctx, Selection{Month: 2, Query: "x"}, TrendOptions{})
	if m.Recomputes("dashboard") != 3 {
		t.Fatal("different selection should miss the cache")
	}
}

func TestEngineClockRollover(t *testing.T) {
	src := newFakeSource()
	now := march2024
	e := NewEngine(src, 8, time.Minute, WithNow(func() time.Time { return now }))

	before := e.Trend(context.Background(), TrendOptions{})
	now = now.AddDate(0, 1, 0)
	after := e.Trend(context.Background(), TrendOptions{})
	if before[5].Label != "Mar" || after[5].Label != "Apr" {
		t.Fatalf("window did not follow the clock: %s then %s", before[5].Label, after[5].Label)
	}
}

func TestEngineInvalidateAndRegister(t *testing.T) {
	src := newFakeSource()
	m := metrics.New()
	e := NewEngine(src, 8, time.Minute, WithMetrics(m))
	mgr := cache.NewManager()
	e.RegisterCaches(mgr)

	e.Trend(context.Background(), TrendOptions{})
	e.Invalidate()
	e.Trend(context.Background(), TrendOptions{})
	if m.Recomputes("trend") != 2 {
		t.Fatalf("expected recompute after invalidate, got %v", m.Recomputes("trend"))
	}
	if n := mgr.Sweep(context.Background()); n != 0 {
		t.Fatalf("fresh entries should not be swept, got %d", n)
	}
}

func TestEngineConcurrentReaders(t *testing.T) {
	src := newFakeSource()
	e := NewEngine(src, 8, time.Minute, WithNow(func() time.Time { return march2024 }))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(month int) {
			defer wg.Done()
			d := e.Dashboard(context.Background(), Selection{Month: month % 3}, TrendOptions{})
			if len(d.Trend) != TrendWindow {
				t.Errorf("bad trend length %d", len(d.Trend))
			}
		}(i)
	}
	wg.Wait()
}
