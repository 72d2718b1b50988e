package permission

// Mask128 spans two words for vocabularies past 64 permissions. The
// root bit, when reserved, is the top bit of the high word.
type Mask128 [2]uint64

func (m *Mask128) Has(bit int, rootReserved bool) bool {
	if bit < 0 || bit > 127 {
		return false
	}
	if rootReserved && m[1]>>63 != 0 {
		return true
	}
	return m[bit>>6]&(uint64(1)<<uint(bit&63)) != 0
}

func (m *Mask128) Set(bit int) {
	if bit >= 0 && bit <= 127 {
		m[bit>>6] |= uint64(1) << uint(bit&63)
	}
}

func (m *Mask128) Clear(bit int) {
	if bit >= 0 && bit <= 127 {
		m[bit>>6] &^= uint64(1) << uint(bit&63)
	}
}

func (m *Mask128) Clone() Mask {
	c := *m
	return &c
}

func (m *Mask128) Raw() [2]uint64 {
	return *m
}
