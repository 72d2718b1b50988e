package resolver

import (
	"time"

	"github.com/kharven/goGuard/permission"
)

// Rule identifies which resolution rule produced a decision. The rule
// goes into the audit entry; callers only ever see a generic reason.
type Rule string

const (
	RuleOverrideGrant Rule = "override_grant"
	RuleOverrideDeny  Rule = "override_deny"
	RuleRole          Rule = "role_permission"
	RuleDefault       Rule = "default_permission"
	RuleNone          Rule = "no_match"

	RuleOwnership  Rule = "ownership"
	RuleTeam       Rule = "team_scope"
	RuleIPList     Rule = "ip_allow_list"
	RuleHours      Rule = "allowed_hours"
	RuleDepartment Rule = "required_department"
)

// Config tunes the resolver.
type Config struct {
	// AdminLevel is the role level at or above which ownership and
	// team scoping no longer apply.
	AdminLevel int

	// DefaultRolePermissions is the process-wide fallback table used
	// when a role has no explicit permission record, supporting
	// bootstrap before admin configuration is loaded.
	DefaultRolePermissions map[string][]string

	Now func() time.Time
}

// Resolver decides base permissions: per-user overrides first, then
// the role's static set, then the default fallback table. It also
// evaluates ownership/team/attribute scoping for resource access.
type Resolver struct {
	registry *permission.Registry
	roles    *permission.RoleSet
	cfg      Config

	overrides *overrideStore
}

// New creates a Resolver. Permission names in the fallback table are
// not validated here; unknown names simply never match (default deny).
func New(registry *permission.Registry, roles *permission.RoleSet, cfg Config) *Resolver {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Resolver{
		registry:  registry,
		roles:     roles,
		cfg:       cfg,
		overrides: newOverrideStore(cfg.Now),
	}
}

// HasPermission resolves perm for the user, first match wins:
// active override, role set, default table, then false. Expired
// overrides are lazily deleted before evaluation.
func (r *Resolver) HasPermission(userID, roleName, perm string) (bool, Rule) {
	if o, ok := r.overrides.active(userID, perm); ok {
		if o.Allow {
			return true, RuleOverrideGrant
		}
		return false, RuleOverrideDeny
	}

	if r.roles.HasPermission(roleName, perm) {
		return true, RuleRole
	}

	if defaults, ok := r.cfg.DefaultRolePermissions[roleName]; ok {
		for _, p := range defaults {
			if p == perm {
				return true, RuleDefault
			}
		}
	}

	return false, RuleNone
}

// Subject is the caller-side input to resource scoping.
type Subject struct {
	UserID     string
	Role       string
	TeamID     string
	IP         string
	Department string
}

// HourRange is an inclusive-start, exclusive-end hour-of-day window.
// From > To denotes a window wrapping midnight.
type HourRange struct {
	From int
	To   int
}

// Contains reports whether hour falls inside the range.
func (h HourRange) Contains(hour int) bool {
	if h.From == h.To {
		return true
	}
	if h.From < h.To {
		return hour >= h.From && hour < h.To
	}
	return hour >= h.From || hour < h.To
}

// ResourceAttributes are the optional per-resource gates. Every
// populated gate must pass independently.
type ResourceAttributes struct {
	OwnerID            string
	TeamID             string
	IPAllowList        []string
	AllowedHours       *HourRange
	RequiredDepartment string
}

// CanAccessResource evaluates base permission plus ownership, team,
// and attribute gates for action on resourceType. The returned Rule
// names the failing gate for audit; callers surface a uniform denial.
func (r *Resolver) CanAccessResource(sub Subject, action, resourceType string, attrs ResourceAttributes) (bool, Rule) {
	perm := action + "_" + resourceType
	ok, rule := r.HasPermission(sub.UserID, sub.Role, perm)
	if !ok {
		return false, rule
	}
	if ok, gate := r.CheckGates(sub, attrs); !ok {
		return false, gate
	}
	return true, rule
}

// CheckGates evaluates the scoping gates alone, independent of how the
// base permission was obtained. Admin-level roles bypass ownership and
// team scoping but never the attribute gates.
func (r *Resolver) CheckGates(sub Subject, attrs ResourceAttributes) (bool, Rule) {
	admin := r.roles.AtLeast(sub.Role, r.cfg.AdminLevel)

	if attrs.OwnerID != "" && attrs.OwnerID != sub.UserID && !admin {
		return false, RuleOwnership
	}

	if attrs.TeamID != "" && attrs.TeamID != sub.TeamID && !admin {
		return false, RuleTeam
	}

	if len(attrs.IPAllowList) > 0 {
		allowed := false
		for _, ip := range attrs.IPAllowList {
			if ip == sub.IP {
				allowed = true
				break
			}
		}
		if !allowed {
			return false, RuleIPList
		}
	}

	if attrs.AllowedHours != nil {
		if !attrs.AllowedHours.Contains(r.cfg.Now().Hour()) {
			return false, RuleHours
		}
	}

	if attrs.RequiredDepartment != "" && attrs.RequiredDepartment != sub.Department {
		return false, RuleDepartment
	}

	return true, RuleNone
}

// SetOverride installs a per-user override. The permission must be
// registered; the most recently created active override wins.
func (r *Resolver) SetOverride(o Override) error {
	if _, ok := r.registry.Bit(o.Permission); !ok {
		return ErrUnknownPermission
	}
	return r.overrides.set(o)
}

// RemoveOverride deletes all overrides for (user, permission).
func (r *Resolver) RemoveOverride(userID, perm string) bool {
	return r.overrides.remove(userID, perm)
}

// Overrides returns the user's currently active overrides.
func (r *Resolver) Overrides(userID string) []Override {
	return r.overrides.activeForUser(userID)
}

// CleanupExpired physically removes expired overrides and returns the
// count removed.
func (r *Resolver) CleanupExpired() int {
	return r.overrides.cleanup()
}
