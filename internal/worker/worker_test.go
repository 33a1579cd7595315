package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"finvue/internal/amqp"
	"finvue/internal/core"
)

type fakeMirror struct {
	mu        sync.Mutex
	rows      map[string]core.Transaction
	upserts   []string
	deletes   []string
	failIDs   map[string]bool
	listErr   error
	listCalls int
}

func newFakeMirror(txs ...core.Transaction) *fakeMirror {
	m := &fakeMirror{rows: map[string]core.Transaction{}, failIDs: map[string]bool{}}
	for _, tx := range txs {
		m.rows[tx.ID] = tx
	}
	return m
}

func (m *fakeMirror) Upsert(_ context.Context, tx core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIDs[tx.ID] {
		return errors.New("quota exceeded")
	}
	m.upserts = append(m.upserts, tx.ID)
	m.rows[tx.ID] = tx
	return nil
}

func (m *fakeMirror) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIDs[id] {
		return errors.New("quota exceeded")
	}
	m.deletes = append(m.deletes, id)
	delete(m.rows, id)
	return nil
}

func (m *fakeMirror) List(context.Context) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]core.Transaction, 0, len(m.rows))
	for _, tx := range m.rows {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *fakeMirror) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

func tx(id string, cents int64) core.Transaction {
	return core.Transaction{
		ID:          id,
		Date:        core.NewDate(2024, 3, 12),
		Amount:      core.Money{Cents: cents},
		Type:        core.Expense,
		Category:    "Groceries",
		Description: "Whole Foods Market",
	}
}

func TestHandleEvent(t *testing.T) {
	ctx := context.Background()
	m := newFakeMirror()
	w := NewMirrorWorker(m)

	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventCreated, tx("a", 100), 2)); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventUpdated, tx("a", 250), 3)); err != nil {
		t.Fatal(err)
	}
	if got := m.rows["a"].Amount.Cents; got != 250 {
		t.Fatalf("row amount = %d, want 250", got)
	}
	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventDeleted, tx("a", 250), 4)); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.rows["a"]; ok {
		t.Fatal("row should be deleted")
	}
	if err := w.HandleEvent(ctx, amqp.LedgerEvent{Kind: "archived", Transaction: tx("b", 1)}); err != nil {
		t.Fatalf("unknown kinds are ignored, got %v", err)
	}
}

func TestHandleEventPropagatesFailure(t *testing.T) {
	m := newFakeMirror()
	m.failIDs["a"] = true
	w := NewMirrorWorker(m)
	if err := w.HandleEvent(context.Background(), amqp.NewLedgerEvent(amqp.EventCreated, tx("a", 100), 1)); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
}

func TestReconcile(t *testing.T) {
	stale := tx("b", 100)
	m := newFakeMirror(tx("a", 100), stale, tx("orphan", 5))
	ledger := []core.Transaction{tx("a", 100), tx("b", 999), tx("c", 42)}
	r := NewReconciler(func(context.Context) ([]core.Transaction, error) { return ledger, nil }, m, ReconcilerConfig{})

	res, err := r.Reconcile(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res != (Result{Upserted: 2, Deleted: 1}) {
		t.Fatalf("unexpected result %+v", res)
	}
	if m.rows["b"].Amount.Cents != 999 {
		t.Fatal("changed row should be rewritten")
	}
	if _, ok := m.rows["orphan"]; ok {
		t.Fatal("orphan row should be deleted")
	}

	res, err = r.Reconcile(context.Background())
	if err != nil || res != (Result{}) {
		t.Fatalf("second pass should be a no-op, got %+v %v", res, err)
	}
}

func TestReconcileCountsFailures(t *testing.T) {
	m := newFakeMirror()
	m.failIDs["bad"] = true
	r := NewReconciler(func(context.Context) ([]core.Transaction, error) {
		return []core.Transaction{tx("bad", 1), tx("good", 2)}, nil
	}, m, ReconcilerConfig{})

	res, err := r.Reconcile(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 || res.Upserted != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestReconcileSourceErrors(t *testing.T) {
	m := newFakeMirror()
	r := NewReconciler(func(context.Context) ([]core.Transaction, error) {
		return nil, errors.New("db locked")
	}, m, ReconcilerConfig{})
	if _, err := r.Reconcile(context.Background()); err == nil {
		t.Fatal("expected ledger error")
	}

	m.listErr = errors.New("sheets down")
	r = NewReconciler(func(context.Context) ([]core.Transaction, error) { return nil, nil }, m, ReconcilerConfig{})
	if _, err := r.Reconcile(context.Background()); err == nil {
		t.Fatal("expected mirror error")
	}
}

func TestReconcilerLifecycle(t *testing.T) {
	m := newFakeMirror()
	r := NewReconciler(func(context.Context) ([]core.Transaction, error) { return nil, nil }, m,
		ReconcilerConfig{Interval: 10 * time.Millisecond})

	if r.IsRunning() {
		t.Fatal("should not run before Start")
	}
	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(ctx); err == nil {
		t.Fatal("second Start should fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.calls() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if m.calls() < 2 {
		t.Fatalf("expected periodic passes, got %d", m.calls())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if r.IsRunning() {
		t.Fatal("should not run after Stop")
	}
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("second Stop should be a no-op: %v", err)
	}
}

func TestHandleEventLogsWithWorkerComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	w := NewMirrorWorker(newFakeMirror())
	if err := w.HandleEvent(context.Background(), amqp.NewLedgerEvent(amqp.EventCreated, tx("a", 100), 7)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"component=worker", "event_kind=created", "transaction_id=a", "ledger_version=7", "operation=mirror"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}
