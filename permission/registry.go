package permission

import (
	"errors"
	"sync"
)

var (
	ErrInvalidWidth = errors.New("mask width must be 64 or 128")
	ErrFrozen       = errors.New("permission registry is frozen")
	ErrEmptyName    = errors.New("permission name is empty")
	ErrAlreadyKnown = errors.New("permission already registered")
	ErrRegistryFull = errors.New("permission capacity exhausted")
)

// Registry maps permission names to bit positions within a bitmask of
// 64 or 128 bits. The vocabulary is declared at engine build time and
// closed with Freeze: after that, an unknown name is a
// construction-time error for roles and overrides, while lookups
// simply report false.
type Registry struct {
	maxBits      int
	rootReserved bool

	mu     sync.RWMutex
	bits   map[string]int
	names  []string // index = bit
	frozen bool
}

// NewRegistry creates a permission Registry. maxBits selects the mask
// width; rootReserved holds back the highest bit for a super-admin
// permission that implies every other bit.
func NewRegistry(maxBits int, rootReserved bool) (*Registry, error) {
	if maxBits != 64 && maxBits != 128 {
		return nil, ErrInvalidWidth
	}
	return &Registry{
		maxBits:      maxBits,
		rootReserved: rootReserved,
		bits:         make(map[string]int),
	}, nil
}

// capacity is the number of ordinary (non-root) bits available.
func (r *Registry) capacity() int {
	if r.rootReserved {
		return r.maxBits - 1
	}
	return r.maxBits
}

// Register assigns the next free bit to the named permission and
// returns its index. Must be called before Freeze.
func (r *Registry) Register(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.frozen:
		return -1, ErrFrozen
	case name == "":
		return -1, ErrEmptyName
	}
	if _, dup := r.bits[name]; dup {
		return -1, ErrAlreadyKnown
	}

	bit := len(r.names)
	if bit >= r.capacity() {
		return -1, ErrRegistryFull
	}

	r.bits[name] = bit
	r.names = append(r.names, name)
	return bit, nil
}

// Bit returns the bit index for the named permission, or false if not
// registered.
func (r *Registry) Bit(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bit, ok := r.bits[name]
	return bit, ok
}

// Name returns the permission name for the given bit index, or false
// if unassigned.
func (r *Registry) Name(bit int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if bit < 0 || bit >= len(r.names) {
		return "", false
	}
	return r.names[bit], true
}

// Freeze closes the vocabulary. Must be called before the registry is
// used for checks.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Count returns the number of registered permissions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// MaxBits returns the configured mask width.
func (r *Registry) MaxBits() int {
	return r.maxBits
}

// RootReserved reports whether the highest bit is reserved for root.
func (r *Registry) RootReserved() bool {
	return r.rootReserved
}

// RootBit returns the reserved root permission bit, or false if
// root-bit reservation is disabled.
func (r *Registry) RootBit() (int, bool) {
	if !r.rootReserved {
		return -1, false
	}
	return r.maxBits - 1, true
}

// NewMask creates a zeroed mask of the registry's configured width.
func (r *Registry) NewMask() Mask {
	if r.maxBits == 128 {
		return &Mask128{}
	}
	m := Mask64(0)
	return &m
}
