// Package cache holds the in-process caches used for derived analytics.
package cache

import (
	"context"
	"sync"
	"time"

	"finvue/internal/log"
)

// Cache is the subset of LRUCache the rest of the code depends on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Purge()
	Size() int
}

// Cleaner is implemented by caches with expiring entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps expired entries out of registered caches.
type Manager struct {
	mu     sync.Mutex
	caches map[string]Cleaner
	stop   chan struct{}
	done   chan struct{}
}

func NewManager() *Manager {
	return &Manager{caches: make(map[string]Cleaner)}
}

// Register adds a cache under a name used in log lines.
func (m *Manager) Register(name string, c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = c
}

// Sweep runs one cleanup pass and returns the number of removed entries.
func (m *Manager) Sweep(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for name, c := range m.caches {
		n := c.CleanExpired()
		if n > 0 {
			logger(ctx).DebugContext(ctx, "Cache entries expired", "cache", name, "removed", n)
		}
		total += n
	}
	return total
}

// StartCleanup sweeps every interval until Stop is called or ctx ends.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	m.mu.Lock()
	if m.stop != nil {
		m.mu.Unlock()
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	stop, done := m.stop, m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sweep(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine and waits for it. Safe to call without Start.
func (m *Manager) Stop() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop = nil
	m.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentCache)
}
