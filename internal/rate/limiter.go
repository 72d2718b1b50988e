package rate

import (
	"context"
	"time"
)

// Limiter binds a Store to one tier's budget. Tiers never share a
// Limiter, so their counters stay independent.
type Limiter struct {
	store  Store
	max    int
	window time.Duration
}

// NewLimiter creates a sliding-window Limiter admitting at most max
// requests per key in any trailing window interval.
func NewLimiter(store Store, max int, window time.Duration) *Limiter {
	return &Limiter{
		store:  store,
		max:    max,
		window: window,
	}
}

// Allow admits or rejects one request for key. Rejected requests are
// not recorded against the window.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l == nil || l.store == nil {
		return Decision{Allowed: true}, nil
	}
	return l.store.Allow(ctx, key, l.max, l.window)
}

// Reset clears key's window, typically after a successful login so
// transient failures stop penalizing the identity.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if l == nil || l.store == nil {
		return nil
	}
	return l.store.Reset(ctx, key)
}

// Sweep drops keys idle longer than stale.
func (l *Limiter) Sweep(ctx context.Context, stale time.Duration) (int, error) {
	if l == nil || l.store == nil {
		return 0, nil
	}
	return l.store.Sweep(ctx, stale)
}

// Window returns the configured trailing interval.
func (l *Limiter) Window() time.Duration {
	if l == nil {
		return 0
	}
	return l.window
}

// Max returns the configured per-window budget.
func (l *Limiter) Max() int {
	if l == nil {
		return 0
	}
	return l.max
}
