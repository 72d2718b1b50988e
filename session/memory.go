package session

import (
	"context"
	"sync"
	"time"
)

// MemoryConfig tunes the in-process registry.
type MemoryConfig struct {
	// InvalidationRetention bounds how long invalidation marks are
	// kept. Zero keeps them for 24h.
	InvalidationRetention time.Duration
	Now                   func() time.Time
}

type memoryRegistry struct {
	retention time.Duration
	now       func() time.Time

	mu          sync.Mutex
	records     map[string]*Record
	byUser      map[string]map[string]struct{}
	invalidated map[string]time.Time
}

// NewMemoryRegistry creates an in-process Registry guarded by a single
// mutex.
func NewMemoryRegistry(cfg MemoryConfig) Registry {
	if cfg.InvalidationRetention <= 0 {
		cfg.InvalidationRetention = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &memoryRegistry{
		retention:   cfg.InvalidationRetention,
		now:         cfg.Now,
		records:     make(map[string]*Record),
		byUser:      make(map[string]map[string]struct{}),
		invalidated: make(map[string]time.Time),
	}
}

func (m *memoryRegistry) Save(_ context.Context, rec *Record, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[rec.SessionID] = rec.Clone()
	ids, ok := m.byUser[rec.UserID]
	if !ok {
		ids = make(map[string]struct{})
		m.byUser[rec.UserID] = ids
	}
	ids[rec.SessionID] = struct{}{}
	return nil
}

func (m *memoryRegistry) Get(_ context.Context, sessionID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *memoryRegistry) Touch(_ context.Context, sessionID string, at time.Time, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[sessionID]
	if !ok {
		return ErrNotFound
	}
	rec.LastActivity = at
	return nil
}

func (m *memoryRegistry) SetFreshAuth(_ context.Context, sessionID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[sessionID]
	if !ok {
		return ErrNotFound
	}
	rec.FreshAuthAt = at
	return nil
}

func (m *memoryRegistry) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(sessionID)
	return nil
}

func (m *memoryRegistry) Invalidate(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.invalidated[sessionID] = m.now()
	m.deleteLocked(sessionID)
	m.pruneInvalidatedLocked()
	return nil
}

func (m *memoryRegistry) IsInvalidated(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.invalidated[sessionID]
	return ok, nil
}

func (m *memoryRegistry) SessionsForUser(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.byUser[userID]))
	for id := range m.byUser[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memoryRegistry) InvalidateUser(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	count := 0
	for id := range m.byUser[userID] {
		m.invalidated[id] = now
		delete(m.records, id)
		count++
	}
	delete(m.byUser, userID)
	m.pruneInvalidatedLocked()
	return count, nil
}

func (m *memoryRegistry) deleteLocked(sessionID string) {
	rec, ok := m.records[sessionID]
	if !ok {
		return
	}
	delete(m.records, sessionID)
	if ids, ok := m.byUser[rec.UserID]; ok {
		delete(ids, sessionID)
		if len(ids) == 0 {
			delete(m.byUser, rec.UserID)
		}
	}
}

// pruneInvalidatedLocked bounds the invalidation set. A mark only
// needs to outlive any cookie still carrying the dead token.
func (m *memoryRegistry) pruneInvalidatedLocked() {
	cutoff := m.now().Add(-m.retention)
	for id, at := range m.invalidated {
		if at.Before(cutoff) {
			delete(m.invalidated, id)
		}
	}
}
