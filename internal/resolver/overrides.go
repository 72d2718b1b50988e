package resolver

import (
	"errors"
	"sync"
	"time"
)

// ErrUnknownPermission is returned when an override names a permission
// outside the registered vocabulary.
var ErrUnknownPermission = errors.New("unknown permission")

// ErrOverrideExpiry is returned when an override's expiry precedes its
// creation time.
var ErrOverrideExpiry = errors.New("override expiry precedes creation")

// Override is a per-user grant or deny for one permission. A deny
// override beats any role grant; a grant override beats role absence.
type Override struct {
	UserID     string
	Permission string
	Allow      bool
	Reason     string
	GrantedBy  string
	CreatedAt  time.Time
	// ExpiresAt zero means no expiry.
	ExpiresAt time.Time
}

func (o Override) expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && !o.ExpiresAt.After(now)
}

type overrideKey struct {
	userID     string
	permission string
}

// overrideStore owns override records. Lookups lazily delete expired
// entries so repeated checks self-heal storage growth.
type overrideStore struct {
	now func() time.Time

	mu      sync.Mutex
	entries map[overrideKey][]Override
	byUser  map[string]map[string]struct{}
}

func newOverrideStore(now func() time.Time) *overrideStore {
	return &overrideStore{
		now:     now,
		entries: make(map[overrideKey][]Override),
		byUser:  make(map[string]map[string]struct{}),
	}
}

func (s *overrideStore) set(o Override) error {
	now := s.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if !o.ExpiresAt.IsZero() && !o.ExpiresAt.After(o.CreatedAt) {
		return ErrOverrideExpiry
	}

	key := overrideKey{userID: o.UserID, permission: o.Permission}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = append(s.entries[key], o)
	perms, ok := s.byUser[o.UserID]
	if !ok {
		perms = make(map[string]struct{})
		s.byUser[o.UserID] = perms
	}
	perms[o.Permission] = struct{}{}
	return nil
}

// active returns the authoritative override for (user, perm): the most
// recently created non-expired entry. Expired entries are deleted in
// passing.
func (s *overrideStore) active(userID, perm string) (Override, bool) {
	key := overrideKey{userID: userID, permission: perm}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.entries[key]
	if !ok {
		return Override{}, false
	}

	live := entries[:0]
	for _, o := range entries {
		if !o.expired(now) {
			live = append(live, o)
		}
	}
	if len(live) == 0 {
		s.deleteKeyLocked(key)
		return Override{}, false
	}
	s.entries[key] = live

	winner := live[0]
	for _, o := range live[1:] {
		if o.CreatedAt.After(winner.CreatedAt) {
			winner = o
		}
	}
	return winner, true
}

func (s *overrideStore) remove(userID, perm string) bool {
	key := overrideKey{userID: userID, permission: perm}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}
	s.deleteKeyLocked(key)
	return true
}

func (s *overrideStore) activeForUser(userID string) []Override {
	s.mu.Lock()
	perms := make([]string, 0, len(s.byUser[userID]))
	for perm := range s.byUser[userID] {
		perms = append(perms, perm)
	}
	s.mu.Unlock()

	var out []Override
	for _, perm := range perms {
		if o, ok := s.active(userID, perm); ok {
			out = append(out, o)
		}
	}
	return out
}

func (s *overrideStore) cleanup() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entries := range s.entries {
		live := entries[:0]
		for _, o := range entries {
			if o.expired(now) {
				removed++
			} else {
				live = append(live, o)
			}
		}
		if len(live) == 0 {
			s.deleteKeyLocked(key)
		} else {
			s.entries[key] = live
		}
	}
	return removed
}

func (s *overrideStore) deleteKeyLocked(key overrideKey) {
	delete(s.entries, key)
	if perms, ok := s.byUser[key.userID]; ok {
		delete(perms, key.permission)
		if len(perms) == 0 {
			delete(s.byUser, key.userID)
		}
	}
}
