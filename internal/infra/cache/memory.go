package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bryanwahyu/lexiguard/internal/application"
	domain "github.com/bryanwahyu/lexiguard/internal/domain/analysis"
)

// Memory is the in-process Cache implementation, used as a fallback
// when Redis is unreachable and in tests. Entries expire lazily on
// lookup; cleared only on process restart.
type Memory struct {
	Clock application.Clock

	mu      sync.RWMutex
	entries map[domain.Fingerprint]*domain.CacheEntry
}

func NewMemory(clock application.Clock) *Memory {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Memory{Clock: clock, entries: make(map[domain.Fingerprint]*domain.CacheEntry)}
}

func (m *Memory) Lookup(ctx context.Context, fp domain.Fingerprint) (*domain.CacheEntry, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[fp]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if e.Expired(m.Clock.Now()) {
		// lazy expiry: treated as a miss, removed for memory hygiene
		m.mu.Lock()
		if cur, still := m.entries[fp]; still && cur == e {
			delete(m.entries, fp)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return e, true, nil
}

func (m *Memory) Store(ctx context.Context, fp domain.Fingerprint, res domain.Result, ttl time.Duration) error {
	entry := &domain.CacheEntry{
		Fingerprint: fp,
		Result:      res,
		CreatedAt:   m.Clock.Now(),
		TTL:         ttl,
	}
	// whole-entry swap under lock: readers see old or new, never torn
	m.mu.Lock()
	m.entries[fp] = entry
	m.mu.Unlock()
	return nil
}
