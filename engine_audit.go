package goGuard

import (
	"context"

	"github.com/google/uuid"
)

// Audit event types written by the engine. Useful as AuditQuery
// filters.
const (
	EventDecisionAllow  = "decision_allow"
	EventDecisionDeny   = "decision_deny"
	EventDecisionReauth = "decision_reauth"

	EventRateLimitTriggered = "rate_limit_triggered"
	EventAccountLocked      = "account_locked"

	EventSessionCreated     = "session_created"
	EventSessionRotated     = "session_rotated"
	EventSessionInvalidated = "session_invalidated"
	EventSessionIPMismatch  = "session_ip_mismatch"
	EventLogoutAll          = "logout_all"
	EventReauthenticated    = "reauthenticated"

	EventRoleCreated  = "role_created"
	EventRoleRemoved  = "role_removed"
	EventRoleAssigned = "role_assigned"
	EventRoleRevoked  = "role_revoked"

	EventOverrideSet     = "override_set"
	EventOverrideRemoved = "override_removed"

	EventGrantIssued  = "privilege_granted"
	EventGrantRevoked = "privilege_revoked"
	EventGrantSwept   = "privilege_expired_swept"
)

// emitAudit stamps the event and records it. The built-in log is
// appended synchronously so queries observe the engine's own actions
// immediately; the external sink receives the event asynchronously.
func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if !e.config.Audit.Enabled {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now()
	}

	e.auditLog.Emit(ctx, event)
	e.audit.Emit(ctx, event)
}

// AuditEvents queries the built-in bounded audit log, newest first.
// Entries past the retention cap are gone; wire an external sink for
// durable retention.
func (e *Engine) AuditEvents(q AuditQuery) []AuditEvent {
	return e.auditLog.Query(q)
}

// AuditDropped reports how many events the async pipeline discarded
// because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}
