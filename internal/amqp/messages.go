package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"finvue/internal/core"
)

// EventKind names the ledger mutation an event reports.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

func (k EventKind) Valid() bool {
	switch k {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	}
	return false
}

// LedgerEvent carries the full transaction, so consumers never read back
// from the ledger. For deletions it is the record as it was.
type LedgerEvent struct {
	Kind        EventKind        `json:"kind"`
	Transaction core.Transaction `json:"transaction"`
	Version     uint64           `json:"version"`
	Timestamp   time.Time        `json:"timestamp"`
}

func NewLedgerEvent(kind EventKind, tx core.Transaction, version uint64) LedgerEvent {
	return LedgerEvent{
		Kind:        kind,
		Transaction: tx,
		Version:     version,
		Timestamp:   time.Now().UTC(),
	}
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and sanity checks an event body.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LedgerEvent{}, err
	}
	if !e.Kind.Valid() {
		return LedgerEvent{}, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.Transaction.ID == "" {
		return LedgerEvent{}, core.ErrEmptyID
	}
	return e, nil
}
