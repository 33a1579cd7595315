// Package worker keeps the spreadsheet mirror in step with the ledger.
package worker

import (
	"context"
	"fmt"

	"finvue/internal/amqp"
	"finvue/internal/log"
	"finvue/internal/sheets"
)

// MirrorWorker applies ledger events to the mirror sheet.
type MirrorWorker struct {
	rows sheets.RowWriter
}

func NewMirrorWorker(rows sheets.RowWriter) *MirrorWorker {
	return &MirrorWorker{rows: rows}
}

// HandleEvent is an amqp.Client.ConsumeEvents handler. A returned error
// requeues the message.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev amqp.LedgerEvent) error {
	logger(ctx).InfoContext(ctx, "Processing ledger event",
		log.FieldEventKind, ev.Kind,
		log.FieldTransactionID, ev.Transaction.ID,
		log.FieldVersion, ev.Version)

	switch ev.Kind {
	case amqp.EventCreated, amqp.EventUpdated:
		if err := w.rows.Upsert(ctx, ev.Transaction); err != nil {
			return fmt.Errorf("mirror %s: %w", ev.Kind, err)
		}
	case amqp.EventDeleted:
		if err := w.rows.Delete(ctx, ev.Transaction.ID); err != nil {
			return fmt.Errorf("mirror delete: %w", err)
		}
	default:
		logger(ctx).WarnContext(ctx, "Ignoring unknown event kind", log.FieldEventKind, ev.Kind)
		return nil
	}

	logger(ctx).InfoContext(ctx, "Mirror updated",
		log.FieldOperation, log.OpMirror,
		log.FieldEventKind, ev.Kind,
		log.FieldTransactionID, ev.Transaction.ID)
	return nil
}

func logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentWorker)
}
