package goGuard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kharven/goGuard/internal/audit"
	"github.com/kharven/goGuard/internal/limiters"
	"github.com/kharven/goGuard/internal/metrics"
	"github.com/kharven/goGuard/internal/privilege"
	"github.com/kharven/goGuard/internal/resolver"
	"github.com/kharven/goGuard/internal/verify"
	"github.com/kharven/goGuard/jwt"
	"github.com/kharven/goGuard/permission"
	"github.com/kharven/goGuard/session"
)

// Engine is the access-control facade. Every layer it composes can be
// used standalone, but Authorize runs them in the canonical order:
// rate limit, session, permission, continuous verification, audit.
type Engine struct {
	config Config

	registry   *permission.Registry
	roles      *permission.RoleSet
	resolver   *resolver.Resolver
	privileges *privilege.Manager

	sessions   *session.Store
	jwtManager *jwt.Manager

	limiters *limiters.Set
	verifier *verify.Engine

	audit    *audit.Dispatcher
	auditLog *audit.Ring
	metrics  *metrics.Metrics
	lockouts *lockoutTracker

	redisBacked bool

	now func() time.Time
}

// Authorize runs the full decision pipeline for one request. The first
// hard failure short-circuits; RequireReauth is a soft outcome the
// caller should turn into a step-up flow. The returned error is
// non-nil only for infrastructure failures, which always fail closed.
func (e *Engine) Authorize(ctx context.Context, req RequestContext) (Decision, error) {
	start := e.now()
	class := ClassifyAction(req.Action)

	ip := req.IP
	if ip == "" {
		ip = clientIPFromContext(ctx)
	}
	device := req.DeviceFingerprint
	if device == "" {
		device = deviceFingerprintFromContext(ctx)
	}

	// Rate limiting runs before session validation so floods cannot
	// probe deeper layers. Keyed by user when known, else by IP.
	tier := limiters.TierAPI
	if class >= ClassSensitive {
		tier = limiters.TierSensitive
	}
	limitKey := req.UserID
	if limitKey == "" {
		limitKey = ip
	}
	if limitKey != "" {
		rl, err := e.limiters.Allow(ctx, tier, limitKey)
		if err != nil {
			return e.failClosed(ctx, start, req, err)
		}
		if !rl.Allowed {
			e.metrics.Inc(metrics.MetricRateLimitHit)
			e.emitAudit(ctx, AuditEvent{
				EventType: EventRateLimitTriggered,
				ActorID:   req.UserID,
				IP:        ip,
				Success:   false,
				Reason:    "tier_" + tier.String(),
				Metadata:  map[string]string{"action": req.Action},
			})
			return e.finish(ctx, start, req, Decision{
				Code:       DecisionDeny,
				Reason:     ReasonRateLimited,
				HTTPStatus: http.StatusTooManyRequests,
				RetryAfter: rl.RetryAfter,
				Score:      -1,
			}, "rate_limited")
		}
	}

	// Session validation. A missing or bad token is always the same
	// generic 401; the audit entry carries the real reason.
	if req.SessionToken == "" {
		return e.finish(ctx, start, req, unauthenticated(), "missing_token")
	}
	claims, err := e.jwtManager.Parse(req.SessionToken)
	if err != nil {
		return e.finish(ctx, start, req, unauthenticated(), "token_invalid")
	}
	res, err := e.sessions.Validate(ctx, claims.SID, ip)
	if err != nil {
		return e.failClosed(ctx, start, req, err)
	}
	if !res.Valid() {
		switch res.Reason {
		case session.ReasonExpired:
			e.metrics.Inc(metrics.MetricSessionExpired)
		case session.ReasonInvalidated:
			e.metrics.Inc(metrics.MetricSessionInvalidated)
		}
		return e.finish(ctx, start, req, unauthenticated(), "session_"+string(res.Reason))
	}
	rec := res.Record
	if res.IPMismatch {
		// Soft check: recorded, never denied.
		e.metrics.Inc(metrics.MetricSessionIPMismatch)
		e.emitAudit(ctx, AuditEvent{
			EventType: EventSessionIPMismatch,
			ActorID:   rec.UserID,
			SessionID: rec.SessionID,
			IP:        ip,
			Success:   true,
			Metadata:  map[string]string{"bound_ip": rec.IP},
		})
	}
	userID := rec.UserID
	role := rec.Role
	if role == "" {
		role = claims.Role
	}
	req.UserID = userID
	req.Role = role

	if locked, until := e.lockouts.isLocked(userID); locked {
		return e.finish(ctx, start, req, Decision{
			Code:       DecisionDeny,
			Reason:     ReasonLocked,
			HTTPStatus: http.StatusForbidden,
			RetryAfter: until.Sub(e.now()),
			Score:      -1,
		}, "account_locked")
	}

	// Permission resolution: override, role, default table, then
	// temporary grants. An active deny override beats everything,
	// grants included.
	perm := req.Action
	if req.Resource != "" {
		perm = req.Action + "_" + req.Resource
	}
	allowed, rule := e.resolver.HasPermission(userID, role, perm)
	if rule == resolver.RuleOverrideDeny {
		e.metrics.Inc(metrics.MetricPermissionDenied)
		return e.finish(ctx, start, req, forbidden(), string(rule))
	}
	if !allowed && e.privileges.CheckPermission(userID, perm) {
		allowed = true
		rule = "temporary_grant"
	}
	if !allowed {
		e.metrics.Inc(metrics.MetricPermissionDenied)
		return e.finish(ctx, start, req, forbidden(), string(rule))
	}

	// Attribute gates apply regardless of how the base permission was
	// obtained.
	if req.ResourceAttrs != nil {
		sub := resolver.Subject{
			UserID:     userID,
			Role:       role,
			TeamID:     req.TeamID,
			IP:         ip,
			Department: req.Department,
		}
		if ok, gate := e.resolver.CheckGates(sub, toResolverAttrs(req.ResourceAttrs)); !ok {
			e.metrics.Inc(metrics.MetricPermissionDenied)
			return e.finish(ctx, start, req, forbidden(), string(gate))
		}
	}

	// Sensitive operations additionally require a recent proof of
	// identity.
	if class >= ClassSensitive {
		fresh, err := e.sessions.IsFresh(ctx, rec.SessionID)
		if err != nil && err != session.ErrNotFound {
			return e.failClosed(ctx, start, req, err)
		}
		if !fresh {
			return e.finish(ctx, start, req, reauthRequired(-1), "fresh_auth_expired")
		}
	}

	// Continuous verification.
	if !e.verifier.VerifySession(userID, e.now().Sub(rec.CreatedAt)) {
		e.metrics.Inc(metrics.MetricVerificationReauth)
		return e.finish(ctx, start, req, reauthRequired(-1), "session_age_exceeded")
	}
	vres := e.verifier.Evaluate(userID, req.Action, class.verifyClass(), verify.Context{
		IP:                ip,
		DeviceFingerprint: device,
		MFAPassed:         req.MFAPassed,
	})
	switch vres.Outcome {
	case verify.OutcomeDeny:
		e.metrics.Inc(metrics.MetricVerificationDeny)
		d := forbidden()
		d.Score = vres.Score
		return e.finish(ctx, start, req, d, "verification_"+vres.Reason)
	case verify.OutcomeRequireReauth:
		e.metrics.Inc(metrics.MetricVerificationReauth)
		return e.finish(ctx, start, req, reauthRequired(vres.Score), "verification_"+vres.Reason)
	}

	return e.finish(ctx, start, req, Decision{
		Code:       DecisionAllow,
		Reason:     ReasonOK,
		HTTPStatus: http.StatusOK,
		Score:      vres.Score,
	}, "")
}

// finish records the decision's metric, latency, and audit entry. The
// rule string is the specific cause, written to the audit log only.
func (e *Engine) finish(ctx context.Context, start time.Time, req RequestContext, d Decision, rule string) (Decision, error) {
	switch d.Code {
	case DecisionAllow:
		e.metrics.Inc(metrics.MetricAuthorizeAllow)
	case DecisionRequireReauth:
		e.metrics.Inc(metrics.MetricAuthorizeReauth)
	default:
		e.metrics.Inc(metrics.MetricAuthorizeDeny)
	}
	e.metrics.Observe(metrics.MetricAuthorizeLatency, e.now().Sub(start))

	event := AuditEvent{
		EventType: EventDecisionAllow,
		ActorID:   req.UserID,
		Target:    req.Resource + "/" + req.ResourceID,
		IP:        req.IP,
		Success:   d.Code == DecisionAllow,
		Reason:    rule,
		Metadata:  map[string]string{"action": req.Action},
	}
	switch d.Code {
	case DecisionDeny:
		event.EventType = EventDecisionDeny
	case DecisionRequireReauth:
		event.EventType = EventDecisionReauth
	}
	e.emitAudit(ctx, event)

	return d, nil
}

// failClosed converts an infrastructure failure into a denial. Policy
// cannot be evaluated, so the request must not proceed.
func (e *Engine) failClosed(ctx context.Context, start time.Time, req RequestContext, cause error) (Decision, error) {
	d, _ := e.finish(ctx, start, req, Decision{
		Code:       DecisionDeny,
		Reason:     ReasonForbidden,
		HTTPStatus: http.StatusServiceUnavailable,
		Score:      -1,
	}, "store_unavailable")
	return d, fmt.Errorf("%w: %v", ErrStoreUnavailable, cause)
}

func unauthenticated() Decision {
	return Decision{
		Code:       DecisionDeny,
		Reason:     ReasonUnauthed,
		HTTPStatus: http.StatusUnauthorized,
		Score:      -1,
	}
}

func forbidden() Decision {
	return Decision{
		Code:       DecisionDeny,
		Reason:     ReasonForbidden,
		HTTPStatus: http.StatusForbidden,
		Score:      -1,
	}
}

func reauthRequired(score int) Decision {
	return Decision{
		Code:         DecisionRequireReauth,
		Reason:       ReasonReauthRequired,
		HTTPStatus:   http.StatusUnauthorized,
		RedirectHint: "/reauth",
		Score:        score,
	}
}

func toResolverAttrs(a *ResourceAttributes) resolver.ResourceAttributes {
	out := resolver.ResourceAttributes{
		OwnerID:            a.OwnerID,
		TeamID:             a.TeamID,
		IPAllowList:        a.IPAllowList,
		RequiredDepartment: a.RequiredDepartment,
	}
	if a.AllowedHours != nil {
		out.AllowedHours = &resolver.HourRange{From: a.AllowedHours.From, To: a.AllowedHours.To}
	}
	return out
}

// SweepExpired runs all lazy-expiry sweeps: overrides, grants, and
// stale limiter windows. Safe to call periodically from a background
// goroutine.
func (e *Engine) SweepExpired(ctx context.Context) (overrides, grants, limiterKeys int, err error) {
	overrides = e.resolver.CleanupExpired()
	grants = e.CleanupExpiredGrants(ctx)
	limiterKeys, err = e.limiters.Sweep(ctx)
	return overrides, grants, limiterKeys, err
}

// Close flushes and stops the audit pipeline.
func (e *Engine) Close() {
	e.audit.Close()
}
