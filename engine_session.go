package goGuard

import (
	"context"
	"errors"
	"net/http"

	"github.com/kharven/goGuard/internal/limiters"
	"github.com/kharven/goGuard/internal/metrics"
	"github.com/kharven/goGuard/session"
)

// AllowLogin gates an authentication attempt for the identifier
// (username, email, or user id) against the login tier and the lockout
// tracker. Call it before verifying credentials; every rejected
// attempt counts toward lockout.
func (e *Engine) AllowLogin(ctx context.Context, identifier string) (Decision, error) {
	if locked, until := e.lockouts.isLocked(identifier); locked {
		return Decision{
			Code:       DecisionDeny,
			Reason:     ReasonLocked,
			HTTPStatus: http.StatusForbidden,
			RetryAfter: until.Sub(e.now()),
			Score:      -1,
		}, nil
	}

	rl, err := e.limiters.Allow(ctx, limiters.TierLogin, identifier)
	if err != nil {
		return Decision{
			Code:       DecisionDeny,
			Reason:     ReasonForbidden,
			HTTPStatus: http.StatusServiceUnavailable,
			Score:      -1,
		}, errors.Join(ErrStoreUnavailable, err)
	}
	if rl.Allowed {
		return Decision{Code: DecisionAllow, Reason: ReasonOK, HTTPStatus: http.StatusOK, Score: -1}, nil
	}

	e.metrics.Inc(metrics.MetricRateLimitHit)
	e.emitAudit(ctx, AuditEvent{
		EventType: EventRateLimitTriggered,
		ActorID:   identifier,
		IP:        clientIPFromContext(ctx),
		Success:   false,
		Reason:    "tier_login",
	})

	if tripped, until := e.lockouts.strike(identifier); tripped {
		e.metrics.Inc(metrics.MetricAccountLocked)
		e.emitAudit(ctx, AuditEvent{
			EventType: EventAccountLocked,
			ActorID:   identifier,
			IP:        clientIPFromContext(ctx),
			Success:   false,
			Metadata:  map[string]string{"locked_until": until.UTC().Format("2006-01-02T15:04:05Z07:00")},
		})
		return Decision{
			Code:       DecisionDeny,
			Reason:     ReasonLocked,
			HTTPStatus: http.StatusForbidden,
			RetryAfter: until.Sub(e.now()),
			Score:      -1,
		}, nil
	}

	return Decision{
		Code:       DecisionDeny,
		Reason:     ReasonRateLimited,
		HTTPStatus: http.StatusTooManyRequests,
		RetryAfter: rl.RetryAfter,
		Score:      -1,
	}, nil
}

// StartSession creates a session for an already-authenticated identity
// and returns the signed token. Creation clears login throttling for
// the user and counts as a fresh authentication.
func (e *Engine) StartSession(ctx context.Context, userID, role string, opts SessionOptions) (string, SessionInfo, error) {
	if _, ok := e.roles.Get(role); !ok {
		return "", SessionInfo{}, ErrRoleUnknown
	}

	ip := opts.IP
	if ip == "" {
		ip = clientIPFromContext(ctx)
	}
	device := opts.DeviceFingerprint
	if device == "" {
		device = deviceFingerprintFromContext(ctx)
	}

	rec, err := e.sessions.Create(ctx, userID, role, ip, device, opts.Remember)
	if err != nil {
		return "", SessionInfo{}, err
	}
	token, err := e.jwtManager.Issue(userID, role, rec.SessionID)
	if err != nil {
		return "", SessionInfo{}, err
	}

	_ = e.limiters.Reset(ctx, limiters.TierLogin, userID)
	e.lockouts.clear(userID)

	e.metrics.Inc(metrics.MetricSessionCreated)
	e.emitAudit(ctx, AuditEvent{
		EventType: EventSessionCreated,
		ActorID:   userID,
		SessionID: rec.SessionID,
		IP:        ip,
		Success:   true,
		Metadata:  map[string]string{"role": role},
	})

	return token, infoFromRecord(rec, false), nil
}

// ValidateToken verifies the token signature and the underlying
// session, sliding the activity window on success.
func (e *Engine) ValidateToken(ctx context.Context, token string) (SessionInfo, error) {
	rec, res, err := e.validateToken(ctx, token)
	if err != nil {
		return SessionInfo{}, err
	}
	return infoFromRecord(rec, res.IPMismatch), nil
}

// RotateSession issues a fresh session id and token carrying the old
// session's state, permanently invalidating the old id. Call it after
// any privilege change.
func (e *Engine) RotateSession(ctx context.Context, token string) (string, SessionInfo, error) {
	rec, _, err := e.validateToken(ctx, token)
	if err != nil {
		return "", SessionInfo{}, err
	}

	next, err := e.sessions.Rotate(ctx, rec.SessionID)
	if err != nil {
		if err == session.ErrNotFound {
			return "", SessionInfo{}, ErrSessionInvalid
		}
		return "", SessionInfo{}, err
	}
	newToken, err := e.jwtManager.Issue(next.UserID, next.Role, next.SessionID)
	if err != nil {
		return "", SessionInfo{}, err
	}

	e.metrics.Inc(metrics.MetricSessionRotated)
	e.emitAudit(ctx, AuditEvent{
		EventType: EventSessionRotated,
		ActorID:   next.UserID,
		SessionID: next.SessionID,
		Success:   true,
		Metadata:  map[string]string{"previous": rec.SessionID},
	})

	return newToken, infoFromRecord(next, false), nil
}

// Logout invalidates the token's session.
func (e *Engine) Logout(ctx context.Context, token string) error {
	claims, err := e.jwtManager.Parse(token)
	if err != nil {
		return ErrTokenInvalid
	}
	if err := e.sessions.Destroy(ctx, claims.SID); err != nil {
		return err
	}

	e.metrics.Inc(metrics.MetricSessionInvalidated)
	e.emitAudit(ctx, AuditEvent{
		EventType: EventSessionInvalidated,
		ActorID:   claims.UID,
		SessionID: claims.SID,
		Success:   true,
	})
	return nil
}

// LogoutAll invalidates every session the user holds and returns the
// count, for the "log out everywhere" and compromise-response flows.
func (e *Engine) LogoutAll(ctx context.Context, userID string) (int, error) {
	count, err := e.sessions.DestroyAll(ctx, userID)
	if err != nil {
		return 0, err
	}

	e.metrics.Inc(metrics.MetricLogoutAll)
	e.emitAudit(ctx, AuditEvent{
		EventType: EventLogoutAll,
		ActorID:   userID,
		Success:   true,
	})
	return count, nil
}

// Reauthenticate restamps the session's fresh-auth time after the user
// re-proves their identity, reopening the sensitive-operation window.
func (e *Engine) Reauthenticate(ctx context.Context, token string) error {
	rec, _, err := e.validateToken(ctx, token)
	if err != nil {
		return err
	}
	if err := e.sessions.RefreshFreshAuth(ctx, rec.SessionID); err != nil {
		return err
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: EventReauthenticated,
		ActorID:   rec.UserID,
		SessionID: rec.SessionID,
		Success:   true,
	})
	return nil
}

// Sessions lists the user's live session ids.
func (e *Engine) Sessions(ctx context.Context, userID string) ([]string, error) {
	return e.sessions.Sessions(ctx, userID)
}

func (e *Engine) validateToken(ctx context.Context, token string) (*session.Record, session.ValidateResult, error) {
	claims, err := e.jwtManager.Parse(token)
	if err != nil {
		return nil, session.ValidateResult{}, ErrTokenInvalid
	}

	res, err := e.sessions.Validate(ctx, claims.SID, clientIPFromContext(ctx))
	if err != nil {
		return nil, res, err
	}
	switch res.Reason {
	case session.ReasonOK:
	case session.ReasonExpired:
		e.metrics.Inc(metrics.MetricSessionExpired)
		return nil, res, ErrSessionExpired
	case session.ReasonInvalidated:
		return nil, res, ErrSessionInvalidated
	default:
		return nil, res, ErrSessionNotFound
	}

	if res.IPMismatch {
		e.metrics.Inc(metrics.MetricSessionIPMismatch)
		e.emitAudit(ctx, AuditEvent{
			EventType: EventSessionIPMismatch,
			ActorID:   res.Record.UserID,
			SessionID: res.Record.SessionID,
			IP:        clientIPFromContext(ctx),
			Success:   true,
			Metadata:  map[string]string{"bound_ip": res.Record.IP},
		})
	}
	return res.Record, res, nil
}

func infoFromRecord(rec *session.Record, ipMismatch bool) SessionInfo {
	return SessionInfo{
		SessionID:    rec.SessionID,
		UserID:       rec.UserID,
		Role:         rec.Role,
		CreatedAt:    rec.CreatedAt,
		LastActivity: rec.LastActivity,
		Remember:     rec.Remember,
		IPMismatch:   ipMismatch,
	}
}
