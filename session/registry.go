package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the session id is absent from the registry.
	ErrNotFound = errors.New("session not found")
	// ErrRedisUnavailable wraps transport failures from the Redis registry.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Registry owns raw session records and the invalidation set. The
// lifecycle rules (timeouts, freshness, rotation) live in Store;
// implementations only provide linearizable per-key record operations.
type Registry interface {
	Save(ctx context.Context, rec *Record, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*Record, error)
	Touch(ctx context.Context, sessionID string, at time.Time, ttl time.Duration) error
	SetFreshAuth(ctx context.Context, sessionID string, at time.Time) error
	Delete(ctx context.Context, sessionID string) error

	// Invalidate marks the id permanently unusable and removes the
	// record. The mark survives record deletion so a stale cookie can
	// never resurrect the session.
	Invalidate(ctx context.Context, sessionID string) error
	IsInvalidated(ctx context.Context, sessionID string) (bool, error)

	SessionsForUser(ctx context.Context, userID string) ([]string, error)
	InvalidateUser(ctx context.Context, userID string) (int, error)
}
