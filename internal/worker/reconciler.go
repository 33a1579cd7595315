package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finvue/internal/core"
	"finvue/internal/log"
	"finvue/internal/sheets"
)

// Mirror is a sheet that can be read back and written.
type Mirror interface {
	sheets.RowWriter
	sheets.RowLister
}

type ReconcilerConfig struct {
	// Interval between passes (default: 10m)
	Interval time.Duration
}

func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{Interval: 10 * time.Minute}
}

// Result counts the rows one pass changed.
type Result struct {
	Upserted int
	Deleted  int
	Failed   int
}

// Reconciler repairs drift between the ledger and the mirror, covering
// events lost while the worker or the broker was down.
type Reconciler struct {
	source func(ctx context.Context) ([]core.Transaction, error)
	mirror Mirror
	config ReconcilerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewReconciler compares the transactions returned by source against mirror.
func NewReconciler(source func(ctx context.Context) ([]core.Transaction, error), mirror Mirror, config ReconcilerConfig) *Reconciler {
	if config.Interval <= 0 {
		config.Interval = DefaultReconcilerConfig().Interval
	}
	return &Reconciler{source: source, mirror: mirror, config: config}
}

// Start runs a pass immediately and then every Interval.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("reconciler is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)
	logger(ctx).InfoContext(ctx, "Mirror reconciler started", "interval", r.config.Interval)
	return nil
}

// Stop waits for the current pass to finish.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.running = false
	r.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		logger(ctx).InfoContext(ctx, "Mirror reconciler stopped")
		return nil
	case <-ctx.Done():
		logger(ctx).WarnContext(ctx, "Mirror reconciler stop timed out")
		return ctx.Err()
	}
}

func (r *Reconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Reconciler) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	r.logPass(ctx)
	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.logPass(ctx)
		}
	}
}

func (r *Reconciler) logPass(ctx context.Context) {
	res, err := r.Reconcile(ctx)
	if err != nil {
		logger(ctx).ErrorContext(ctx, "Mirror reconcile failed", log.FieldError, err)
		return
	}
	if res != (Result{}) {
		logger(ctx).InfoContext(ctx, "Mirror reconciled",
			"upserted", res.Upserted,
			"deleted", res.Deleted,
			"failed", res.Failed)
	}
}

// Reconcile upserts ledger records that are missing or different in the
// mirror and deletes mirror rows whose ID is not in the ledger. Row failures
// are counted and skipped.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	var res Result

	want, err := r.source(ctx)
	if err != nil {
		return res, fmt.Errorf("read ledger: %w", err)
	}
	have, err := r.mirror.List(ctx)
	if err != nil {
		return res, fmt.Errorf("read mirror: %w", err)
	}

	mirrored := make(map[string]core.Transaction, len(have))
	for _, tx := range have {
		mirrored[tx.ID] = tx
	}
	inLedger := make(map[string]struct{}, len(want))

	for _, tx := range want {
		inLedger[tx.ID] = struct{}{}
		if got, ok := mirrored[tx.ID]; ok && sameRow(got, tx) {
			continue
		}
		if err := r.mirror.Upsert(ctx, tx); err != nil {
			logger(ctx).WarnContext(ctx, "Reconcile upsert failed", log.FieldTransactionID, tx.ID, log.FieldError, err)
			res.Failed++
			continue
		}
		res.Upserted++
	}

	for _, tx := range have {
		if _, ok := inLedger[tx.ID]; ok {
			continue
		}
		if err := r.mirror.Delete(ctx, tx.ID); err != nil {
			logger(ctx).WarnContext(ctx, "Reconcile delete failed", log.FieldTransactionID, tx.ID, log.FieldError, err)
			res.Failed++
			continue
		}
		res.Deleted++
	}
	return res, nil
}

func sameRow(a, b core.Transaction) bool {
	return a.ID == b.ID &&
		a.Date.Equal(b.Date.Time) &&
		a.Amount == b.Amount &&
		a.Type == b.Type &&
		a.Category == b.Category &&
		a.Description == b.Description
}
