package rowidx

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/cz88/czdb-go/internal/czio"
)

// MemoryTable is the memory binding of [Table]: the column-index region is
// copied into an owned dense byte array at construction, and row reads are
// pointer arithmetic into that array.  It is safe for concurrent readers.
type MemoryTable struct {
	rows []byte
	geo  Geometry
}

// type check
var _ Table = (*MemoryTable)(nil)

// NewMemoryTable copies the column-index region described by g out of r and
// returns a table over the copy.
func NewMemoryTable(r *czio.Reader, g *Geometry) (t *MemoryTable, err error) {
	region, err := r.Bytes(g.Start, g.Rows*g.RowWidth())
	if err != nil {
		return nil, fmt.Errorf("copying column index: %w", err)
	}

	return &MemoryTable{
		rows: slices.Clone(region),
		geo:  *g,
	}, nil
}

// Rows implements the [Table] interface for *MemoryTable.
func (t *MemoryTable) Rows() (n int) {
	return t.geo.Rows
}

// Row implements the [Table] interface for *MemoryTable.  The read cannot
// fail; the error is always nil.
func (t *MemoryTable) Row(i int) (row Row, err error) {
	aw, rw := t.geo.AddrWidth, t.geo.RowWidth()
	off := i * rw
	b := t.rows[off : off+rw]

	row = Row{
		Start:     b[:aw],
		End:       b[aw : 2*aw],
		RecordPtr: binary.LittleEndian.Uint32(b[2*aw : 2*aw+4]),
	}

	if t.geo.LenWidth == 1 {
		row.RecordLen = uint16(b[2*aw+4])
	} else {
		row.RecordLen = binary.LittleEndian.Uint16(b[2*aw+4 : 2*aw+6])
	}

	return row, nil
}
