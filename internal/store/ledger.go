// Package store holds the authoritative transaction list and category
// taxonomy, and persists them after every change.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"finvue/internal/analytics"
	"finvue/internal/core"
	"finvue/internal/log"
)

var (
	ErrNotFound    = errors.New("transaction not found")
	ErrDuplicateID = errors.New("duplicate transaction id")
)

// Options tunes Open.
type Options struct {
	// SeedDemo fills a never-saved ledger with the demo transactions.
	SeedDemo bool
}

// Ledger is the in-memory transaction store. Transactions are kept most
// recent first, in insertion order. Every mutation bumps the version and
// is written through the Persister; a failed write is rolled back.
type Ledger struct {
	mu        sync.RWMutex
	txs       []core.Transaction
	tax       core.Taxonomy
	version   uint64
	persister Persister
}

// Open loads the ledger from p. A missing transaction document is seeded
// with demo data when opts.SeedDemo is set, and a missing taxonomy with
// the default one. Stored records that fail validation are skipped.
func Open(ctx context.Context, p Persister, opts Options) (*Ledger, error) {
	l := &Ledger{persister: p, version: 1}

	txs, found, err := p.LoadTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if !found && opts.SeedDemo {
		txs = core.DemoTransactions()
		logger(ctx).InfoContext(ctx, "Seeding ledger with demo transactions", "count", len(txs))
	}
	l.txs = make([]core.Transaction, 0, len(txs))
	seen := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			logger(ctx).WarnContext(ctx, "Skipping invalid stored transaction", log.FieldTransactionID, tx.ID, log.FieldError, err)
			continue
		}
		if _, dup := seen[tx.ID]; dup {
			logger(ctx).WarnContext(ctx, "Skipping duplicate stored transaction", log.FieldTransactionID, tx.ID)
			continue
		}
		seen[tx.ID] = struct{}{}
		l.txs = append(l.txs, tx)
	}

	tax, found, err := p.LoadTaxonomy(ctx)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	if !found || tax == nil {
		tax = core.DefaultTaxonomy()
	}
	l.tax = tax

	logger(ctx).InfoContext(ctx, "Ledger opened",
		"transactions", len(l.txs),
		"seeded", !found && opts.SeedDemo)
	return l, nil
}

// List returns a copy of the transactions, most recent first.
func (l *Ledger) List() []core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]core.Transaction(nil), l.txs...)
}

// Len returns the number of transactions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.txs)
}

// Get returns the transaction with id.
func (l *Ledger) Get(id string) (core.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexOf(id); i >= 0 {
		return l.txs[i], nil
	}
	return core.Transaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Taxonomy returns a copy of the category taxonomy.
func (l *Ledger) Taxonomy() core.Taxonomy {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tax.Clone()
}

// Version changes whenever transactions or taxonomy change.
func (l *Ledger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Snapshot is a consistent copy of transactions and taxonomy.
func (l *Ledger) Snapshot() analytics.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return analytics.Snapshot{
		Version:      l.version,
		Transactions: append([]core.Transaction(nil), l.txs...),
		Taxonomy:     l.tax.Clone(),
	}
}

// Add inserts tx at the head of the list and returns the version it
// committed.
func (l *Ledger) Add(ctx context.Context, tx core.Transaction) (uint64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexOf(tx.ID) >= 0 {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateID, tx.ID)
	}
	next := make([]core.Transaction, 0, len(l.txs)+1)
	next = append(next, tx)
	next = append(next, l.txs...)
	return l.commitTransactions(ctx, next)
}

// Update replaces the transaction with the same ID, keeping its position.
func (l *Ledger) Update(ctx context.Context, tx core.Transaction) (uint64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(tx.ID)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, tx.ID)
	}
	next := append([]core.Transaction(nil), l.txs...)
	next[i] = tx
	return l.commitTransactions(ctx, next)
}

// Remove deletes the transaction with id and returns it with the version
// the removal committed.
func (l *Ledger) Remove(ctx context.Context, id string) (core.Transaction, uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return core.Transaction{}, 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := l.txs[i]
	next := make([]core.Transaction, 0, len(l.txs)-1)
	next = append(next, l.txs[:i]...)
	next = append(next, l.txs[i+1:]...)
	version, err := l.commitTransactions(ctx, next)
	if err != nil {
		return core.Transaction{}, 0, err
	}
	return removed, version, nil
}

// AddCategory appends name to the list of t.
func (l *Ledger) AddCategory(ctx context.Context, t core.Type, name string) error {
	return l.editTaxonomy(ctx, func(tax core.Taxonomy) error { return tax.Add(t, name) })
}

// RenameCategory renames the category at index. Existing transactions keep
// the old name.
func (l *Ledger) RenameCategory(ctx context.Context, t core.Type, index int, name string) error {
	return l.editTaxonomy(ctx, func(tax core.Taxonomy) error { return tax.Rename(t, index, name) })
}

// RemoveCategory drops the category at index. Existing transactions keep
// their category.
func (l *Ledger) RemoveCategory(ctx context.Context, t core.Type, index int) error {
	return l.editTaxonomy(ctx, func(tax core.Taxonomy) error { return tax.Remove(t, index) })
}

func (l *Ledger) editTaxonomy(ctx context.Context, edit func(core.Taxonomy) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.tax.Clone()
	if err := edit(next); err != nil {
		return err
	}
	if err := l.persister.SaveTaxonomy(ctx, next); err != nil {
		return fmt.Errorf("save taxonomy: %w", err)
	}
	l.tax = next
	l.version++
	return nil
}

// commitTransactions persists next, swaps it in and returns the new version.
// Callers hold l.mu.
func (l *Ledger) commitTransactions(ctx context.Context, next []core.Transaction) (uint64, error) {
	if err := l.persister.SaveTransactions(ctx, next); err != nil {
		return 0, fmt.Errorf("save transactions: %w", err)
	}
	l.txs = next
	l.version++
	return l.version, nil
}

func (l *Ledger) indexOf(id string) int {
	for i := range l.txs {
		if l.txs[i].ID == id {
			return i
		}
	}
	return -1
}

func logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentLedger)
}
