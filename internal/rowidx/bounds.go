package rowidx

import (
	"fmt"

	"github.com/cz88/czdb-go/internal/czerr"
)

// Bounds is the dense per-prefix bound table.  For a 4-byte address family
// it is indexed by the first octet; for a 16-byte one, by the first two
// octets.  Each slot holds the inclusive window of row indices whose span
// intersects the address range implied by the prefix.  An empty slot has
// first greater than last.
type Bounds struct {
	first []int32
	last  []int32

	// prefixWidth is the number of leading address bytes forming the prefix,
	// 1 or 2.
	prefixWidth int
}

// NewBounds walks the rows of t once, validating the ordering invariant and
// building the bound table.  addrWidth must be 4 or 16.
func NewBounds(t Table, addrWidth int) (b *Bounds, err error) {
	err = validateOrder(t)
	if err != nil {
		return nil, fmt.Errorf("validating order: %w", err)
	}

	prefixWidth := 1
	if addrWidth == 16 {
		prefixWidth = 2
	}

	slots := 1 << (8 * prefixWidth)
	b = &Bounds{
		first:       make([]int32, slots),
		last:        make([]int32, slots),
		prefixWidth: prefixWidth,
	}

	for i := range slots {
		b.first[i] = 1
		b.last[i] = 0
	}

	n := t.Rows()
	for i := range n {
		row, rowErr := t.Row(i)
		if rowErr != nil {
			return nil, fmt.Errorf("row %d: %w", i, rowErr)
		}

		p0, p1 := b.prefix(row.Start), b.prefix(row.End)
		if p0 > p1 {
			// Cannot happen for a table that passed validateOrder, but keep
			// the invariant local.
			return nil, fmt.Errorf("row %d: prefix order: %w", i, czerr.ErrCorrupt)
		}

		for p := p0; p <= p1; p++ {
			if b.first[p] > b.last[p] {
				b.first[p] = int32(i)
			}

			b.last[p] = int32(i)
		}
	}

	return b, nil
}

// prefix returns the slot index of addr.
func (b *Bounds) prefix(addr []byte) (p int) {
	p = int(addr[0])
	if b.prefixWidth == 2 {
		p = p<<8 | int(addr[1])
	}

	return p
}

// Window returns the inclusive row-index window that may cover addr.  ok is
// false when no row intersects the prefix of addr.
func (b *Bounds) Window(addr []byte) (lo, hi int, ok bool) {
	p := b.prefix(addr)
	lo, hi = int(b.first[p]), int(b.last[p])

	return lo, hi, lo <= hi
}
