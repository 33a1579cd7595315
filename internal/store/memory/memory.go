// Package memory is an in-process key-value backend, optionally seeded from
// files in a data directory.
package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"finvue/internal/core"
	"finvue/internal/store"
)

// Seed file names looked up by NewFromFiles.
const (
	SeedTransactionsFile = "seed_transactions.json"
	SeedCategoriesFile   = "seed_categories.txt"
)

type Store struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// NewFromFiles builds a store pre-loaded from base. seed_transactions.json
// holds a JSON transaction list. seed_categories.txt holds "type: Name"
// lines; blanks and # comments are ignored. Missing files leave the
// matching key unset.
func NewFromFiles(base string) *Store {
	s := New()

	if raw, err := os.ReadFile(filepath.Join(base, SeedTransactionsFile)); err == nil {
		var txs []core.Transaction
		if err := json.Unmarshal(raw, &txs); err != nil {
			slog.Warn("Ignoring unreadable seed transactions", "file", SeedTransactionsFile, "error", err)
		} else {
			s.blobs[store.TransactionsKey] = raw
		}
	}

	if tax := readTaxonomy(filepath.Join(base, SeedCategoriesFile)); len(tax) > 0 {
		raw, err := json.Marshal(tax)
		if err == nil {
			s.blobs[store.TaxonomyKey] = raw
		}
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), value...)
	return nil
}

func readTaxonomy(path string) core.Taxonomy {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	tax := core.Taxonomy{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		typ, name, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		t, err := core.ParseType(typ)
		if err != nil {
			continue
		}
		// Duplicates and blank names are dropped by Add.
		_ = tax.Add(t, name)
	}
	return tax
}
