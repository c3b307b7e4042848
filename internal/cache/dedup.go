// Package cache provides the best-effort de-duplication layer sitting
// in front of the durable ledger markers, plus the sweep run lock.
package cache

import (
	"context"
	"sync"
	"time"
)

// Dedup marks keys for a bounded TTL. TryMark returns true when the
// key was not marked yet. This layer may lose state on restart; the
// ledger markers stay authoritative.
type Dedup interface {
	TryMark(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MemoryDedup is the process-local implementation used in tests and
// as a fallback when Redis is unavailable.
type MemoryDedup struct {
	mu    sync.Mutex
	marks map[string]time.Time
}

func NewMemoryDedup() *MemoryDedup {
	return &MemoryDedup{marks: make(map[string]time.Time)}
}

func (m *MemoryDedup) TryMark(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if expiry, ok := m.marks[key]; ok && now.Before(expiry) {
		return false, nil
	}

	m.marks[key] = now.Add(ttl)

	// Opportunistic cleanup keeps the map bounded without a janitor.
	if len(m.marks) > 4096 {
		for k, exp := range m.marks {
			if now.After(exp) {
				delete(m.marks, k)
			}
		}
	}

	return true, nil
}
