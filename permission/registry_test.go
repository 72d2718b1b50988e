package permission

import "testing"

func newTestRegistry(t *testing.T, maxBits int, rootReserved bool, names ...string) *Registry {
	t.Helper()
	reg, err := NewRegistry(maxBits, rootReserved)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	for _, name := range names {
		if _, err := reg.Register(name); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	return reg
}

func TestRegistry_RejectsInvalidWidth(t *testing.T) {
	for _, bits := range []int{0, 32, 63, 256} {
		if _, err := NewRegistry(bits, false); err == nil {
			t.Fatalf("expected error for width %d", bits)
		}
	}
}

func TestRegistry_AssignsSequentialBits(t *testing.T) {
	reg := newTestRegistry(t, 64, false, "users_read", "users_write", "users_delete")

	for i, name := range []string{"users_read", "users_write", "users_delete"} {
		bit, ok := reg.Bit(name)
		if !ok {
			t.Fatalf("%s not registered", name)
		}
		if bit != i {
			t.Fatalf("%s: expected bit %d, got %d", name, i, bit)
		}
		back, ok := reg.Name(bit)
		if !ok || back != name {
			t.Fatalf("bit %d: expected name %s, got %s", bit, name, back)
		}
	}
	if reg.Count() != 3 {
		t.Fatalf("expected count 3, got %d", reg.Count())
	}
}

func TestRegistry_DuplicateAndEmptyNames(t *testing.T) {
	reg := newTestRegistry(t, 64, false, "users_read")

	if _, err := reg.Register("users_read"); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if _, err := reg.Register(""); err == nil {
		t.Fatal("expected empty name error")
	}
}

func TestRegistry_FreezeClosesVocabulary(t *testing.T) {
	reg := newTestRegistry(t, 64, false, "users_read")
	reg.Freeze()

	if _, err := reg.Register("users_write"); err == nil {
		t.Fatal("expected error registering after freeze")
	}
	// Lookups keep working after freeze.
	if _, ok := reg.Bit("users_read"); !ok {
		t.Fatal("existing permission must remain resolvable")
	}
	if _, ok := reg.Bit("users_write"); ok {
		t.Fatal("unknown permission must resolve to false")
	}
}

func TestRegistry_RootReservationCapsRegistrations(t *testing.T) {
	reg := newTestRegistry(t, 64, true)

	rootBit, ok := reg.RootBit()
	if !ok || rootBit != 63 {
		t.Fatalf("expected root bit 63, got %d (ok=%v)", rootBit, ok)
	}

	// Only 63 ordinary bits remain when the top bit is reserved.
	for i := 0; i < 63; i++ {
		if _, err := reg.Register("perm_" + string(rune('a'+i%26)) + string(rune('0'+i/26))); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}
	if _, err := reg.Register("one_too_many"); err == nil {
		t.Fatal("expected limit error when root bit reserved")
	}
}

func TestMask64_RootBitImpliesAll(t *testing.T) {
	var m Mask64
	m.Set(63)

	if !m.Has(5, true) {
		t.Fatal("root bit must imply every permission when reserved")
	}
	if m.Has(5, false) {
		t.Fatal("without reservation the top bit is an ordinary bit")
	}

	m.Clear(63)
	if m.Has(5, true) {
		t.Fatal("cleared root bit must stop implying permissions")
	}
}

func TestMask128_SpansBothWords(t *testing.T) {
	var m Mask128
	m.Set(3)
	m.Set(100)

	if !m.Has(3, false) || !m.Has(100, false) {
		t.Fatal("expected bits in both words to be set")
	}
	if m.Has(64, false) {
		t.Fatal("unset bit reported as set")
	}

	m.Set(127)
	if !m.Has(42, true) {
		t.Fatal("bit 127 must act as root when reserved")
	}

	clone := m.Clone()
	m.Clear(100)
	if !clone.Has(100, false) {
		t.Fatal("clone must be independent of the original")
	}
}

func TestRegistry_NewMaskMatchesWidth(t *testing.T) {
	reg64 := newTestRegistry(t, 64, false)
	if _, ok := reg64.NewMask().(*Mask64); !ok {
		t.Fatal("expected Mask64 for 64-bit registry")
	}
	reg128 := newTestRegistry(t, 128, false)
	if _, ok := reg128.NewMask().(*Mask128); !ok {
		t.Fatal("expected Mask128 for 128-bit registry")
	}
}
