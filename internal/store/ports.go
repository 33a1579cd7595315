package store

import (
	"context"
	"encoding/json"
	"fmt"

	"finvue/internal/core"
)

// Keys of the two persisted entries. Each holds a full JSON document and is
// replaced wholesale on save.
const (
	TransactionsKey = "finvue_simple_data"
	TaxonomyKey     = "finvue_categories"
)

// KV is a minimal key-value blob store.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error
}

// Persister loads and saves the two ledger documents. The found flag
// separates "never saved" from "saved empty".
type Persister interface {
	LoadTransactions(ctx context.Context) (txs []core.Transaction, found bool, err error)
	SaveTransactions(ctx context.Context, txs []core.Transaction) error
	LoadTaxonomy(ctx context.Context) (tax core.Taxonomy, found bool, err error)
	SaveTaxonomy(ctx context.Context, tax core.Taxonomy) error
}

// JSONPersister stores the ledger documents as JSON in a KV.
type JSONPersister struct {
	kv KV
}

func NewJSONPersister(kv KV) *JSONPersister {
	return &JSONPersister{kv: kv}
}

func (p *JSONPersister) LoadTransactions(ctx context.Context) ([]core.Transaction, bool, error) {
	var txs []core.Transaction
	found, err := p.load(ctx, TransactionsKey, &txs)
	return txs, found, err
}

func (p *JSONPersister) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	return p.save(ctx, TransactionsKey, txs)
}

func (p *JSONPersister) LoadTaxonomy(ctx context.Context) (core.Taxonomy, bool, error) {
	var tax core.Taxonomy
	found, err := p.load(ctx, TaxonomyKey, &tax)
	return tax, found, err
}

func (p *JSONPersister) SaveTaxonomy(ctx context.Context, tax core.Taxonomy) error {
	return p.save(ctx, TaxonomyKey, tax)
}

func (p *JSONPersister) load(ctx context.Context, key string, v any) (bool, error) {
	raw, found, err := p.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (p *JSONPersister) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := p.kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
