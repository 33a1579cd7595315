// Package backend builds the key-value store the ledger persists into.
package backend

import (
	"context"

	"finvue/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult is a ready store plus its health probe and cleanup.
type BackendResult struct {
	KV      store.KV
	Health  func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend seed directory
	DataDirectory string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
