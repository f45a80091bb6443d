package rowidx

import (
	"fmt"

	"github.com/cz88/czdb-go/internal/czio"
)

// PagedTable is the paged binding of [Table]: rows are read from the
// original buffer through the byte reader on demand.  A one-row cursor
// cache accelerates repeated reads of nearby rows, which makes the table
// single-owner: concurrent use of the same PagedTable is not supported.
type PagedTable struct {
	r   *czio.Reader
	geo Geometry

	// cursor is the index of the cached row, or -1 when the cache is cold.
	cursor    int
	cursorRow Row
}

// type check
var _ Table = (*PagedTable)(nil)

// NewPagedTable returns a table reading the column-index region described
// by g from r.  The region bounds are checked once here; per-row reads
// cannot leave them afterwards.
func NewPagedTable(r *czio.Reader, g *Geometry) (t *PagedTable, err error) {
	_, err = r.Bytes(g.Start, g.Rows*g.RowWidth())
	if err != nil {
		return nil, fmt.Errorf("checking column index: %w", err)
	}

	return &PagedTable{
		r:      r,
		geo:    *g,
		cursor: -1,
	}, nil
}

// Rows implements the [Table] interface for *PagedTable.
func (t *PagedTable) Rows() (n int) {
	return t.geo.Rows
}

// Row implements the [Table] interface for *PagedTable.
func (t *PagedTable) Row(i int) (row Row, err error) {
	if i == t.cursor {
		return t.cursorRow, nil
	}

	aw, rw := t.geo.AddrWidth, t.geo.RowWidth()
	off := t.geo.Start + i*rw

	b, err := t.r.Bytes(off, rw)
	if err != nil {
		return Row{}, err
	}

	row = Row{
		Start: b[:aw],
		End:   b[aw : 2*aw],
	}

	ptr, err := t.r.Uint32(off + 2*aw)
	if err != nil {
		return Row{}, err
	}

	row.RecordPtr = ptr

	if t.geo.LenWidth == 1 {
		var l uint8
		l, err = t.r.Uint8(off + 2*aw + 4)
		if err != nil {
			return Row{}, err
		}

		row.RecordLen = uint16(l)
	} else {
		row.RecordLen, err = t.r.Uint16(off + 2*aw + 4)
		if err != nil {
			return Row{}, err
		}
	}

	t.cursor, t.cursorRow = i, row

	return row, nil
}
