// Package services orchestrates ledger writes: validation, persistence,
// cache invalidation and change events.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"finvue/internal/amqp"
	"finvue/internal/core"
	"finvue/internal/log"
	"finvue/internal/metrics"
	"finvue/internal/store"
)

// EventPublisher sends ledger change events. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev amqp.LedgerEvent) error
}

// Invalidator drops derived views after a write.
type Invalidator interface {
	Invalidate()
}

// LedgerService is the write path. Reads go straight to the ledger or the
// analytics engine.
type LedgerService struct {
	ledger    *store.Ledger
	publisher EventPublisher
	views     Invalidator
	metrics   *metrics.Metrics
	newID     func() string
}

type Option func(*LedgerService)

// WithPublisher sends an event after every transaction write.
func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithInvalidator clears v after every successful write.
func WithInvalidator(v Invalidator) Option {
	return func(s *LedgerService) { s.views = v }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *LedgerService) { s.metrics = m }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(f func() string) Option {
	return func(s *LedgerService) { s.newID = f }
}

func NewLedgerService(ledger *store.Ledger, opts ...Option) *LedgerService {
	s := &LedgerService{
		ledger: ledger,
		newID:  func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	s.metrics.SetLedgerSize(ledger.Len())
	return s
}

func (s *LedgerService) Ledger() *store.Ledger {
	return s.ledger
}

// Create validates in and stores it at the head of the list under a fresh ID.
func (s *LedgerService) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	tx, err := in.ToTransaction(s.newID())
	if err != nil {
		return core.Transaction{}, err
	}
	version, err := s.ledger.Add(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}
	s.afterWrite(ctx, amqp.EventCreated, tx, version)
	slog.InfoContext(ctx, "Transaction created", transactionFields(tx, version, log.OpCreate)...)
	return tx, nil
}

// Update replaces the fields of the transaction with id.
func (s *LedgerService) Update(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	tx, err := in.ToTransaction(id)
	if err != nil {
		return core.Transaction{}, err
	}
	version, err := s.ledger.Update(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.afterWrite(ctx, amqp.EventUpdated, tx, version)
	slog.InfoContext(ctx, "Transaction updated", transactionFields(tx, version, log.OpUpdate)...)
	return tx, nil
}

// Delete removes the transaction with id.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	tx, version, err := s.ledger.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.afterWrite(ctx, amqp.EventDeleted, tx, version)
	slog.InfoContext(ctx, "Transaction deleted", transactionFields(tx, version, log.OpDelete)...)
	return nil
}

func (s *LedgerService) AddCategory(ctx context.Context, t core.Type, name string) error {
	if err := s.ledger.AddCategory(ctx, t, name); err != nil {
		return err
	}
	s.afterTaxonomy(ctx, "category_add")
	return nil
}

func (s *LedgerService) RenameCategory(ctx context.Context, t core.Type, index int, name string) error {
	if err := s.ledger.RenameCategory(ctx, t, index, name); err != nil {
		return err
	}
	s.afterTaxonomy(ctx, "category_rename")
	return nil
}

func (s *LedgerService) RemoveCategory(ctx context.Context, t core.Type, index int) error {
	if err := s.ledger.RemoveCategory(ctx, t, index); err != nil {
		return err
	}
	s.afterTaxonomy(ctx, "category_remove")
	return nil
}

func (s *LedgerService) afterTaxonomy(ctx context.Context, kind string) {
	if s.views != nil {
		s.views.Invalidate()
	}
	s.metrics.IncrMutation(kind)
	slog.DebugContext(ctx, "Taxonomy changed", log.FieldOperation, kind, log.FieldVersion, s.ledger.Version())
}

// afterWrite runs once the ledger has accepted a change. Publish failures
// are logged and counted, never returned.
func (s *LedgerService) afterWrite(ctx context.Context, kind amqp.EventKind, tx core.Transaction, version uint64) {
	if s.views != nil {
		s.views.Invalidate()
	}
	s.metrics.IncrMutation(string(kind))
	s.metrics.SetLedgerSize(s.ledger.Len())

	if s.publisher == nil {
		return
	}
	ev := amqp.NewLedgerEvent(kind, tx, version)
	if err := s.publisher.PublishEvent(ctx, ev); err != nil {
		s.metrics.IncrPublishError()
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldEventKind, kind,
			log.FieldTransactionID, tx.ID,
			log.FieldVersion, version,
			log.FieldError, err)
	}
}

func transactionFields(tx core.Transaction, version uint64, op string) []any {
	return log.NewFields().
		WithComponent(log.ComponentLedger).
		WithOperation(op).
		WithTransaction(tx.ID, string(tx.Type), tx.Category, tx.Amount.Cents).
		WithVersion(version).
		ToSlice()
}
