package permission

// Mask is the interface satisfied by all bitmask widths.
type Mask interface {
	Has(bit int, rootReserved bool) bool
	Set(bit int)
	Clear(bit int)
	Clone() Mask
}

// Mask64 packs up to 64 permissions into one word. When root
// reservation is on, the top bit implies every permission.
type Mask64 uint64

const rootBit64 = Mask64(1) << 63

func (m *Mask64) Has(bit int, rootReserved bool) bool {
	if bit < 0 || bit > 63 {
		return false
	}
	if rootReserved && *m&rootBit64 != 0 {
		return true
	}
	return *m&(Mask64(1)<<uint(bit)) != 0
}

func (m *Mask64) Set(bit int) {
	if bit >= 0 && bit <= 63 {
		*m |= Mask64(1) << uint(bit)
	}
}

func (m *Mask64) Clear(bit int) {
	if bit >= 0 && bit <= 63 {
		*m &^= Mask64(1) << uint(bit)
	}
}

func (m *Mask64) Clone() Mask {
	c := *m
	return &c
}

func (m *Mask64) Raw() uint64 {
	return uint64(*m)
}
