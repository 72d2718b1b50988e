package rate

import (
	"context"
	"sync"
	"time"
)

// MemoryConfig tunes the in-process store.
type MemoryConfig struct {
	Now func() time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string][]time.Time
}

// NewMemoryStore creates an in-process Store guarded by a single mutex.
func NewMemoryStore(cfg MemoryConfig) Store {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &memoryStore{
		now:     cfg.Now,
		windows: make(map[string][]time.Time),
	}
}

func (m *memoryStore) Allow(_ context.Context, key string, max int, window time.Duration) (Decision, error) {
	if max <= 0 {
		return Decision{Allowed: true, Remaining: 0}, nil
	}
	now := m.now()
	cutoff := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := pruneWindow(m.windows[key], cutoff)

	if len(kept) >= max {
		m.windows[key] = kept
		// Oldest retained timestamp leaves the window first.
		retry := kept[0].Add(window).Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}, nil
	}

	kept = append(kept, now)
	m.windows[key] = kept
	return Decision{Allowed: true, Remaining: max - len(kept)}, nil
}

func (m *memoryStore) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
	return nil
}

func (m *memoryStore) Sweep(_ context.Context, stale time.Duration) (int, error) {
	cutoff := m.now().Add(-stale)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, stamps := range m.windows {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(m.windows, key)
			removed++
		}
	}
	return removed, nil
}

// pruneWindow drops timestamps at or before cutoff, preserving order.
func pruneWindow(stamps []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(stamps) && !stamps[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return stamps
	}
	kept := make([]time.Time, len(stamps)-idx)
	copy(kept, stamps[idx:])
	return kept
}
