package goGuard

import (
	"context"

	"github.com/kharven/goGuard/internal/metrics"
	"github.com/kharven/goGuard/internal/resolver"
)

// Override is a per-user permission grant or deny. An active deny
// beats every other source of the permission.
type Override = resolver.Override

// CheckPermission resolves perm for the user outside the full
// pipeline: overrides, the role's static set, the default table, then
// temporary grants. Unknown names resolve to false, never an error.
func (e *Engine) CheckPermission(userID, role, perm string) bool {
	ok, rule := e.resolver.HasPermission(userID, role, perm)
	if rule == resolver.RuleOverrideDeny {
		return false
	}
	if ok {
		return true
	}
	return e.privileges.CheckPermission(userID, perm)
}

// SetOverride installs a per-user override. The permission must exist
// in the registered vocabulary.
func (e *Engine) SetOverride(ctx context.Context, o Override) error {
	if err := e.resolver.SetOverride(o); err != nil {
		return ErrOverrideInvalid
	}

	e.metrics.Inc(metrics.MetricOverrideApplied)
	kind := "deny"
	if o.Allow {
		kind = "grant"
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: EventOverrideSet,
		ActorID:   o.GrantedBy,
		Target:    o.UserID,
		Success:   true,
		Reason:    o.Reason,
		Metadata:  map[string]string{"permission": o.Permission, "kind": kind},
	})
	return nil
}

// RemoveOverride deletes the user's overrides for the permission.
func (e *Engine) RemoveOverride(ctx context.Context, userID, perm, removedBy string) bool {
	removed := e.resolver.RemoveOverride(userID, perm)
	if removed {
		e.emitAudit(ctx, AuditEvent{
			EventType: EventOverrideRemoved,
			ActorID:   removedBy,
			Target:    userID,
			Success:   true,
			Metadata:  map[string]string{"permission": perm},
		})
	}
	return removed
}

// Overrides lists the user's active overrides.
func (e *Engine) Overrides(userID string) []Override {
	return e.resolver.Overrides(userID)
}

// CleanupExpiredOverrides physically removes expired overrides and
// returns the count.
func (e *Engine) CleanupExpiredOverrides() int {
	return e.resolver.CleanupExpired()
}

// CreateRole registers a role at runtime. Permissions must already
// exist in the frozen vocabulary.
func (e *Engine) CreateRole(ctx context.Context, spec RoleSpec, createdBy string) error {
	if err := e.roles.Register(spec.Name, spec.Level, spec.Permissions); err != nil {
		return err
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: EventRoleCreated,
		ActorID:   createdBy,
		Target:    spec.Name,
		Success:   true,
	})
	return nil
}

// RemoveRole deletes a role. Sessions still carrying the name resolve
// to no role permissions afterwards.
func (e *Engine) RemoveRole(ctx context.Context, name, removedBy string) bool {
	removed := e.roles.Remove(name)
	if removed {
		e.emitAudit(ctx, AuditEvent{
			EventType: EventRoleRemoved,
			ActorID:   removedBy,
			Target:    name,
			Success:   true,
		})
	}
	return removed
}

// RoleNames lists the registered role names.
func (e *Engine) RoleNames() []string {
	return e.roles.Names()
}

// RoleLevel returns the role's ordinal level, or -1 when unknown.
func (e *Engine) RoleLevel(name string) int {
	return e.roles.Level(name)
}
