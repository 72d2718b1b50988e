package privilege

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kharven/goGuard/permission"
)

var (
	// ErrUnknownRole is returned when assigning a role that was never registered.
	ErrUnknownRole = errors.New("unknown role")
	// ErrUnknownPermission is returned when granting a permission outside the vocabulary.
	ErrUnknownPermission = errors.New("unknown permission")
	// ErrInvalidDuration is returned when a grant's duration is not positive.
	ErrInvalidDuration = errors.New("grant duration must be positive")
	// ErrGrantNotFound is returned when revoking a grant id that does not exist.
	ErrGrantNotFound = errors.New("grant not found")
)

// Grant is a time-boxed elevated permission. ExpiresAt is always
// strictly after GrantedAt; grants never renew silently.
type Grant struct {
	ID         string
	UserID     string
	Permission string
	Resource   string
	Reason     string
	GrantedBy  string
	GrantedAt  time.Time
	ExpiresAt  time.Time
}

func (g Grant) active(now time.Time) bool {
	return g.ExpiresAt.After(now)
}

// Manager owns role assignments and temporary grants. An expired grant
// is treated as absent immediately; physical removal waits for
// CleanupExpired, which is idempotent and safe to run concurrently.
type Manager struct {
	registry *permission.Registry
	roles    *permission.RoleSet
	now      func() time.Time

	mu          sync.Mutex
	grants      map[string]Grant
	userGrants  map[string]map[string]struct{}
	assignments map[string]map[string]struct{}
}

// NewManager creates a privilege Manager bound to the role set.
func NewManager(registry *permission.Registry, roles *permission.RoleSet, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		registry:    registry,
		roles:       roles,
		now:         now,
		grants:      make(map[string]Grant),
		userGrants:  make(map[string]map[string]struct{}),
		assignments: make(map[string]map[string]struct{}),
	}
}

// AssignRole adds roleName to the user's role set. Assigning an
// unregistered role is an error, not a silent no-op.
func (m *Manager) AssignRole(userID, roleName string) error {
	if _, ok := m.roles.Get(roleName); !ok {
		return ErrUnknownRole
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.assignments[userID]
	if !ok {
		set = make(map[string]struct{})
		m.assignments[userID] = set
	}
	set[roleName] = struct{}{}
	return nil
}

// RevokeRole removes roleName from the user. Takes effect immediately.
func (m *Manager) RevokeRole(userID, roleName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.assignments[userID]
	if !ok {
		return false
	}
	if _, ok := set[roleName]; !ok {
		return false
	}
	delete(set, roleName)
	if len(set) == 0 {
		delete(m.assignments, userID)
	}
	return true
}

// Roles returns the user's assigned role names in sorted order.
func (m *Manager) Roles(userID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.assignments[userID]
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GrantTemporary issues a time-boxed grant. The permission must exist
// in the vocabulary and the duration must be positive; both are
// rejected at creation time rather than corrupting state.
func (m *Manager) GrantTemporary(userID, perm, resource string, duration time.Duration, reason, grantedBy string) (Grant, error) {
	if _, ok := m.registry.Bit(perm); !ok {
		return Grant{}, ErrUnknownPermission
	}
	if duration <= 0 {
		return Grant{}, ErrInvalidDuration
	}

	now := m.now()
	grant := Grant{
		ID:         uuid.NewString(),
		UserID:     userID,
		Permission: perm,
		Resource:   resource,
		Reason:     reason,
		GrantedBy:  grantedBy,
		GrantedAt:  now,
		ExpiresAt:  now.Add(duration),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.grants[grant.ID] = grant
	ids, ok := m.userGrants[userID]
	if !ok {
		ids = make(map[string]struct{})
		m.userGrants[userID] = ids
	}
	ids[grant.ID] = struct{}{}
	return grant, nil
}

// RevokeGrant removes the grant immediately, without waiting for a sweep.
func (m *Manager) RevokeGrant(grantID string) (Grant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	grant, ok := m.grants[grantID]
	if !ok {
		return Grant{}, ErrGrantNotFound
	}
	m.removeLocked(grantID, grant.UserID)
	return grant, nil
}

// CheckPermission unions active temporary grants with the permission
// sets of every role assigned to the user.
func (m *Manager) CheckPermission(userID, perm string) bool {
	now := m.now()

	m.mu.Lock()
	for id := range m.userGrants[userID] {
		if g, ok := m.grants[id]; ok && g.Permission == perm && g.active(now) {
			m.mu.Unlock()
			return true
		}
	}
	set := m.assignments[userID]
	roleNames := make([]string, 0, len(set))
	for name := range set {
		roleNames = append(roleNames, name)
	}
	m.mu.Unlock()

	for _, name := range roleNames {
		if m.roles.HasPermission(name, perm) {
			return true
		}
	}
	return false
}

// ActiveGrants returns the user's unexpired grants, newest first.
func (m *Manager) ActiveGrants(userID string) []Grant {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Grant
	for id := range m.userGrants[userID] {
		if g, ok := m.grants[id]; ok && g.active(now) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GrantedAt.After(out[j].GrantedAt) })
	return out
}

// CleanupExpired physically removes expired grants and returns the
// count removed. Calling it again with no new expirations removes 0.
func (m *Manager) CleanupExpired() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, g := range m.grants {
		if !g.active(now) {
			m.removeLocked(id, g.UserID)
			removed++
		}
	}
	return removed
}

func (m *Manager) removeLocked(grantID, userID string) {
	delete(m.grants, grantID)
	if ids, ok := m.userGrants[userID]; ok {
		delete(ids, grantID)
		if len(ids) == 0 {
			delete(m.userGrants, userID)
		}
	}
}
