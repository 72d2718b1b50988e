package session

import (
	"context"
	"net/netip"
	"time"

	"github.com/google/uuid"
)

// Reason explains a Validate verdict.
type Reason string

const (
	ReasonOK          Reason = "ok"
	ReasonInvalidated Reason = "invalidated"
	ReasonNotFound    Reason = "not_found"
	ReasonExpired     Reason = "expired"
)

// ValidateResult is the outcome of validating a session id.
//
// IPMismatch is advisory: a session whose caller IP drifted outside
// the bound network is still valid, but the engine records the drift.
// Hard-binding breaks mobile and corporate-NAT users, so the check
// never denies on its own.
type ValidateResult struct {
	Record     *Record
	Reason     Reason
	IPMismatch bool
}

// Valid reports whether the session may be used.
func (v ValidateResult) Valid() bool { return v.Reason == ReasonOK }

// Config tunes the session lifecycle.
type Config struct {
	// Timeout is the idle timeout for ordinary sessions.
	Timeout time.Duration
	// RememberTimeout is the idle timeout when the session was created
	// with the remember flag.
	RememberTimeout time.Duration
	// FreshAuthWindow bounds how recently the user must have
	// authenticated for sensitive operations.
	FreshAuthWindow time.Duration
	// InvalidationRetention is handed to registries that mark dead ids.
	InvalidationRetention time.Duration

	Now func() time.Time
}

// Store implements the session lifecycle over a Registry: creation,
// sliding idle expiry, rotation, invalidation, and the fresh-auth
// window.
type Store struct {
	reg Registry
	cfg Config
}

// NewStore wraps a Registry with lifecycle rules.
func NewStore(reg Registry, cfg Config) *Store {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	if cfg.RememberTimeout <= 0 {
		cfg.RememberTimeout = 30 * 24 * time.Hour
	}
	if cfg.FreshAuthWindow <= 0 {
		cfg.FreshAuthWindow = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{reg: reg, cfg: cfg}
}

// Create mints a new session for an authenticated user. The id is a
// random UUID; creation counts as a fresh authentication.
func (s *Store) Create(ctx context.Context, userID, role, ip, device string, remember bool) (*Record, error) {
	now := s.cfg.Now()
	rec := &Record{
		SessionID:         uuid.NewString(),
		UserID:            userID,
		Role:              role,
		IP:                ip,
		DeviceFingerprint: device,
		Remember:          remember,
		CreatedAt:         now,
		LastActivity:      now,
		FreshAuthAt:       now,
	}
	if err := s.reg.Save(ctx, rec, s.timeoutFor(rec)); err != nil {
		return nil, err
	}
	return rec, nil
}

// Validate checks a session id against the invalidation set and the
// idle timeout, then slides the activity window. The returned record
// reflects the touched state.
func (s *Store) Validate(ctx context.Context, sessionID, callerIP string) (ValidateResult, error) {
	dead, err := s.reg.IsInvalidated(ctx, sessionID)
	if err != nil {
		return ValidateResult{}, err
	}
	if dead {
		return ValidateResult{Reason: ReasonInvalidated}, nil
	}

	rec, err := s.reg.Get(ctx, sessionID)
	if err == ErrNotFound {
		return ValidateResult{Reason: ReasonNotFound}, nil
	}
	if err != nil {
		return ValidateResult{}, err
	}

	now := s.cfg.Now()
	timeout := s.timeoutFor(rec)
	if now.Sub(rec.LastActivity) > timeout {
		// Expired sessions are deleted, not invalidated: the id was
		// never compromised, it just aged out.
		_ = s.reg.Delete(ctx, sessionID)
		return ValidateResult{Reason: ReasonExpired}, nil
	}

	mismatch := ipDrifted(rec.IP, callerIP)

	if err := s.reg.Touch(ctx, sessionID, now, timeout); err != nil && err != ErrNotFound {
		return ValidateResult{}, err
	}
	rec.LastActivity = now
	return ValidateResult{Record: rec, Reason: ReasonOK, IPMismatch: mismatch}, nil
}

// Rotate issues a new session id carrying the old session's state and
// invalidates the old id, defeating fixation after privilege changes.
func (s *Store) Rotate(ctx context.Context, sessionID string) (*Record, error) {
	res, err := s.Validate(ctx, sessionID, "")
	if err != nil {
		return nil, err
	}
	if !res.Valid() {
		return nil, ErrNotFound
	}

	next := res.Record.Clone()
	next.SessionID = uuid.NewString()
	if err := s.reg.Save(ctx, next, s.timeoutFor(next)); err != nil {
		return nil, err
	}
	if err := s.reg.Invalidate(ctx, sessionID); err != nil {
		return nil, err
	}
	return next, nil
}

// Destroy invalidates a single session.
func (s *Store) Destroy(ctx context.Context, sessionID string) error {
	return s.reg.Invalidate(ctx, sessionID)
}

// DestroyAll invalidates every session belonging to the user and
// returns how many were killed.
func (s *Store) DestroyAll(ctx context.Context, userID string) (int, error) {
	return s.reg.InvalidateUser(ctx, userID)
}

// Sessions lists the user's live session ids.
func (s *Store) Sessions(ctx context.Context, userID string) ([]string, error) {
	return s.reg.SessionsForUser(ctx, userID)
}

// IsFresh reports whether the session's last authentication falls
// within the fresh-auth window required for sensitive operations.
func (s *Store) IsFresh(ctx context.Context, sessionID string) (bool, error) {
	rec, err := s.reg.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return s.cfg.Now().Sub(rec.FreshAuthAt) < s.cfg.FreshAuthWindow, nil
}

// RefreshFreshAuth restamps the fresh-auth time after the user
// re-proves their identity.
func (s *Store) RefreshFreshAuth(ctx context.Context, sessionID string) error {
	return s.reg.SetFreshAuth(ctx, sessionID, s.cfg.Now())
}

// FreshAuthWindow exposes the configured window.
func (s *Store) FreshAuthWindow() time.Duration { return s.cfg.FreshAuthWindow }

func (s *Store) timeoutFor(rec *Record) time.Duration {
	if rec.Remember {
		return s.cfg.RememberTimeout
	}
	return s.cfg.Timeout
}

// ipDrifted reports whether the caller's address left the network the
// session was bound to. IPv4 compares /24, IPv6 compares /48; an
// unparseable or absent side never counts as drift.
func ipDrifted(bound, caller string) bool {
	if bound == "" || caller == "" || bound == caller {
		return false
	}
	ba, err1 := netip.ParseAddr(bound)
	ca, err2 := netip.ParseAddr(caller)
	if err1 != nil || err2 != nil {
		return false
	}
	bits := 24
	if ba.Is6() || ca.Is6() {
		bits = 48
	}
	bp, err1 := ba.Prefix(bits)
	cp, err2 := ca.Prefix(bits)
	if err1 != nil || err2 != nil {
		return true
	}
	return bp != cp
}
