package rate

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRateLimited is returned when a key's trailing window is full.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps transport failures from the Redis store.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Store owns the per-key timestamp windows. Implementations must make
// each Allow call a single atomic read-modify-write on the key: two
// callers racing on the last slot must never both be admitted.
type Store interface {
	// Allow prunes the key's window to the trailing interval, rejects
	// without recording when the window is full, and records the
	// current instant otherwise.
	Allow(ctx context.Context, key string, max int, window time.Duration) (Decision, error)

	// Reset clears the key's window immediately.
	Reset(ctx context.Context, key string) error

	// Sweep removes keys whose entire window is older than stale and
	// returns the number of keys removed. Keys with live entries are
	// never touched.
	Sweep(ctx context.Context, stale time.Duration) (int, error)
}
