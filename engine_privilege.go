package goGuard

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/kharven/goGuard/internal/metrics"
	"github.com/kharven/goGuard/internal/privilege"
)

// Grant is a time-boxed elevated permission.
type Grant = privilege.Grant

// AssignRole adds a role to the user's assigned set. Assigned roles
// are unioned with the session role during permission checks.
func (e *Engine) AssignRole(ctx context.Context, userID, roleName, assignedBy string) error {
	if err := e.privileges.AssignRole(userID, roleName); err != nil {
		if errors.Is(err, privilege.ErrUnknownRole) {
			return ErrRoleUnknown
		}
		return err
	}

	e.metrics.Inc(metrics.MetricRoleAssigned)
	e.emitAudit(ctx, AuditEvent{
		EventType: EventRoleAssigned,
		ActorID:   assignedBy,
		Target:    userID,
		Success:   true,
		Metadata:  map[string]string{"role": roleName},
	})
	return nil
}

// RevokeRole removes a role from the user, effective immediately.
func (e *Engine) RevokeRole(ctx context.Context, userID, roleName, revokedBy string) bool {
	revoked := e.privileges.RevokeRole(userID, roleName)
	if revoked {
		e.metrics.Inc(metrics.MetricRoleRevoked)
		e.emitAudit(ctx, AuditEvent{
			EventType: EventRoleRevoked,
			ActorID:   revokedBy,
			Target:    userID,
			Success:   true,
			Metadata:  map[string]string{"role": roleName},
		})
	}
	return revoked
}

// UserRoles lists the user's assigned role names.
func (e *Engine) UserRoles(userID string) []string {
	return e.privileges.Roles(userID)
}

// GrantTemporary issues a time-boxed permission grant. The audit entry
// is written before the grant is returned.
func (e *Engine) GrantTemporary(ctx context.Context, userID, perm, resource string, duration time.Duration, reason, grantedBy string) (Grant, error) {
	grant, err := e.privileges.GrantTemporary(userID, perm, resource, duration, reason, grantedBy)
	if err != nil {
		if errors.Is(err, privilege.ErrUnknownPermission) || errors.Is(err, privilege.ErrInvalidDuration) {
			return Grant{}, ErrGrantInvalid
		}
		return Grant{}, err
	}

	e.metrics.Inc(metrics.MetricGrantIssued)
	e.emitAudit(ctx, AuditEvent{
		EventType: EventGrantIssued,
		ActorID:   grantedBy,
		Target:    userID,
		Success:   true,
		Reason:    reason,
		Metadata: map[string]string{
			"grant_id":   grant.ID,
			"permission": perm,
			"resource":   resource,
			"expires_at": grant.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})
	return grant, nil
}

// RevokeGrant removes a grant immediately, without waiting for expiry.
func (e *Engine) RevokeGrant(ctx context.Context, grantID, revokedBy string) error {
	grant, err := e.privileges.RevokeGrant(grantID)
	if err != nil {
		return ErrGrantNotFound
	}

	e.metrics.Inc(metrics.MetricGrantRevoked)
	e.emitAudit(ctx, AuditEvent{
		EventType: EventGrantRevoked,
		ActorID:   revokedBy,
		Target:    grant.UserID,
		Success:   true,
		Metadata:  map[string]string{"grant_id": grant.ID, "permission": grant.Permission},
	})
	return nil
}

// ActiveGrants lists the user's unexpired grants, newest first.
func (e *Engine) ActiveGrants(userID string) []Grant {
	return e.privileges.ActiveGrants(userID)
}

// CleanupExpiredGrants physically removes expired grants and returns
// the count removed. Idempotent; a second sweep with no new
// expirations removes zero.
func (e *Engine) CleanupExpiredGrants(ctx context.Context) int {
	removed := e.privileges.CleanupExpired()
	if removed > 0 {
		for i := 0; i < removed; i++ {
			e.metrics.Inc(metrics.MetricGrantExpired)
		}
		e.emitAudit(ctx, AuditEvent{
			EventType: EventGrantSwept,
			Success:   true,
			Metadata:  map[string]string{"removed": strconv.Itoa(removed)},
		})
	}
	return removed
}
