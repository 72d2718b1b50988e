package goGuard

import (
	"sync"
	"time"
)

// lockoutTracker locks an identity after repeated login-tier limiter
// rejections. A strike is one rejected login attempt; Threshold
// strikes inside Window trigger a lock for Duration.
type lockoutTracker struct {
	threshold int
	window    time.Duration
	duration  time.Duration
	now       func() time.Time

	mu      sync.Mutex
	strikes map[string][]time.Time
	locked  map[string]time.Time
}

func newLockoutTracker(cfg LockoutConfig, now func() time.Time) *lockoutTracker {
	if !cfg.Enabled {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	return &lockoutTracker{
		threshold: cfg.Threshold,
		window:    cfg.Window,
		duration:  cfg.Duration,
		now:       now,
		strikes:   make(map[string][]time.Time),
		locked:    make(map[string]time.Time),
	}
}

// strike records one rejected attempt and reports whether it tripped a
// new lock.
func (l *lockoutTracker) strike(id string) (bool, time.Time) {
	if l == nil {
		return false, time.Time{}
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if until, ok := l.locked[id]; ok && until.After(now) {
		return false, until
	}

	cutoff := now.Add(-l.window)
	kept := l.strikes[id][:0]
	for _, at := range l.strikes[id] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	kept = append(kept, now)
	l.strikes[id] = kept

	if len(kept) < l.threshold {
		return false, time.Time{}
	}

	until := now.Add(l.duration)
	l.locked[id] = until
	delete(l.strikes, id)
	return true, until
}

// isLocked reports the lock state and its expiry. Expired locks are
// removed on read.
func (l *lockoutTracker) isLocked(id string) (bool, time.Time) {
	if l == nil {
		return false, time.Time{}
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	until, ok := l.locked[id]
	if !ok {
		return false, time.Time{}
	}
	if !until.After(now) {
		delete(l.locked, id)
		return false, time.Time{}
	}
	return true, until
}

// clear removes any lock and strikes, typically after a successful
// authentication.
func (l *lockoutTracker) clear(id string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locked, id)
	delete(l.strikes, id)
}
