package permission

import (
	"errors"
	"sort"
	"sync"
)

// Role is a named permission set with an ordinal level. Levels form a
// total order used for hierarchical "at least X" checks; the
// administrative tier is whatever level the host configures as admin.
type Role struct {
	Name  string
	Level int
	mask  Mask
}

// HasPermission reports whether the role's mask carries the given bit.
func (r *Role) HasPermission(bit int, rootReserved bool) bool {
	if r == nil || r.mask == nil {
		return false
	}
	return r.mask.Has(bit, rootReserved)
}

// RoleSet holds the process-wide role configuration. Roles are loaded
// at build time; runtime creation and removal remain available as
// administrative operations, so the set is never frozen the way the
// permission Registry is.
type RoleSet struct {
	registry *Registry

	mu    sync.RWMutex
	roles map[string]*Role
}

// NewRoleSet creates a RoleSet bound to a frozen permission Registry.
func NewRoleSet(registry *Registry) *RoleSet {
	return &RoleSet{
		registry: registry,
		roles:    make(map[string]*Role),
	}
}

// Register adds a role. Every permission name must already exist in
// the registry; an unknown name is a construction-time error, not a
// silent false at check time.
func (rs *RoleSet) Register(name string, level int, permissionNames []string) error {
	if name == "" {
		return errors.New("role name empty")
	}
	if level < 0 {
		return errors.New("role level must be non-negative")
	}

	mask := rs.registry.NewMask()
	for _, perm := range permissionNames {
		bit, ok := rs.registry.Bit(perm)
		if !ok {
			return errors.New("permission not registered: " + perm)
		}
		mask.Set(bit)
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, exists := rs.roles[name]; exists {
		return errors.New("role already registered")
	}

	rs.roles[name] = &Role{
		Name:  name,
		Level: level,
		mask:  mask,
	}
	return nil
}

// Remove deletes a role. Identities still referencing the name resolve
// to no role permissions afterwards (default deny).
func (rs *RoleSet) Remove(name string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, ok := rs.roles[name]; !ok {
		return false
	}
	delete(rs.roles, name)
	return true
}

// Get returns the named role.
func (rs *RoleSet) Get(name string) (*Role, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	role, ok := rs.roles[name]
	return role, ok
}

// HasPermission reports whether roleName's static set carries perm.
// Unknown roles and unknown permissions both resolve to false.
func (rs *RoleSet) HasPermission(roleName, perm string) bool {
	bit, ok := rs.registry.Bit(perm)
	if !ok {
		return false
	}

	rs.mu.RLock()
	role, ok := rs.roles[roleName]
	rs.mu.RUnlock()
	if !ok {
		return false
	}
	return role.HasPermission(bit, rs.registry.RootReserved())
}

// Level returns roleName's ordinal level, or -1 when unknown.
func (rs *RoleSet) Level(roleName string) int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	role, ok := rs.roles[roleName]
	if !ok {
		return -1
	}
	return role.Level
}

// AtLeast reports whether roleName's level is >= level. Unknown roles
// are never at least anything.
func (rs *RoleSet) AtLeast(roleName string, level int) bool {
	l := rs.Level(roleName)
	return l >= 0 && l >= level
}

// Names returns the registered role names in sorted order.
func (rs *RoleSet) Names() []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	names := make([]string, 0, len(rs.roles))
	for name := range rs.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered roles.
func (rs *RoleSet) Count() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.roles)
}
