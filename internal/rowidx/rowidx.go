// Package rowidx implements the column-index search engine of the CZDB
// format: the row-table capability with its two bindings, the per-prefix
// bound table, and the binary search for the row covering an address.
package rowidx

import (
	"fmt"

	"github.com/cz88/czdb-go/internal/czerr"
)

// Geometry describes the placement and shape of the column-index region
// within the database buffer.
type Geometry struct {
	// Start is the absolute offset of the first row.
	Start int

	// Rows is the number of rows.
	Rows int

	// AddrWidth is the address width in bytes, 4 or 16.
	AddrWidth int

	// LenWidth is the width of the record-length field in bytes, 1 or 2.
	LenWidth int
}

// RowWidth returns the total width of one row in bytes.
func (g *Geometry) RowWidth() (n int) {
	return 2*g.AddrWidth + 4 + g.LenWidth
}

// Row is one decoded column-index row.  Start and End alias the table's
// backing storage and must not be modified.
type Row struct {
	// Start is the first address of the span, inclusive.
	Start []byte

	// End is the last address of the span, inclusive.
	End []byte

	// RecordPtr is the absolute offset of the record.
	RecordPtr uint32

	// RecordLen is the length of the record in bytes.
	RecordLen uint16
}

// Table is the row-table capability shared by the search strategies.  The
// memory binding serves rows from an owned dense copy and is safe for
// concurrent readers; the paged binding reads rows from the original buffer
// on demand and is single-owner.
type Table interface {
	// Rows returns the number of rows in the table.
	Rows() (n int)

	// Row returns the row with index i.  i must be within the table.
	Row(i int) (row Row, err error)
}

// Search finds the row of t whose span covers addr, using b to narrow the
// search window, and returns its record pointer and length.  addr must have
// the address width of the table.  If no row covers addr, the returned
// error wraps [czerr.ErrNotFound].
func Search(t Table, b *Bounds, addr []byte) (ptr uint32, recLen uint16, err error) {
	lo, hi, ok := b.Window(addr)
	if !ok {
		return 0, 0, fmt.Errorf("no rows for prefix of %v: %w", addr, czerr.ErrNotFound)
	}

	// Binary-search for the last row whose start is not greater than addr.
	// Rows are sorted and strictly disjoint, so that row is the only
	// candidate.
	found := -1
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)

		var row Row
		row, err = t.Row(mid)
		if err != nil {
			return 0, 0, fmt.Errorf("row %d: %w", mid, err)
		}

		if compareAddr(addr, row.Start) < 0 {
			hi = mid - 1
		} else {
			found = mid
			lo = mid + 1
		}
	}

	if found < 0 {
		return 0, 0, fmt.Errorf("before first row: %w", czerr.ErrNotFound)
	}

	row, err := t.Row(found)
	if err != nil {
		return 0, 0, fmt.Errorf("row %d: %w", found, err)
	}

	if compareAddr(addr, row.End) > 0 {
		return 0, 0, fmt.Errorf("in gap after row %d: %w", found, czerr.ErrNotFound)
	}

	return row.RecordPtr, row.RecordLen, nil
}

// compareAddr compares two equal-width addresses in unsigned lexicographic
// byte order, which for big-endian byte vectors is integer order.
func compareAddr(a, b []byte) (res int) {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}

	return 0
}

// validateOrder checks the ordering invariant of the column index: within
// each row start does not exceed end, and consecutive rows are strictly
// disjoint and sorted.
func validateOrder(t Table) (err error) {
	n := t.Rows()

	var prev Row
	for i := range n {
		row, err := t.Row(i)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}

		if compareAddr(row.Start, row.End) > 0 {
			return fmt.Errorf("row %d: start after end: %w", i, czerr.ErrCorrupt)
		}

		if i > 0 && compareAddr(prev.End, row.Start) >= 0 {
			return fmt.Errorf("rows %d and %d overlap: %w", i-1, i, czerr.ErrCorrupt)
		}

		prev = row
	}

	return nil
}
