// Package czio provides random-access reads over the backing byte buffer of
// a CZDB database.  All reads are bounds-checked; there is no caching.
package czio

import (
	"encoding/binary"
	"fmt"

	"github.com/cz88/czdb-go/internal/czerr"
)

// Reader is a random-access view into an immutable byte buffer.  All integer
// reads are little-endian.  The zero value is a reader over an empty buffer.
type Reader struct {
	data []byte
}

// NewReader returns a reader over data.  The reader borrows data; callers
// must not mutate it for the lifetime of the reader.
func NewReader(data []byte) (r *Reader) {
	return &Reader{
		data: data,
	}
}

// Len returns the length of the underlying buffer.
func (r *Reader) Len() (n int) {
	return len(r.data)
}

// Bytes returns the n bytes at absolute offset off.  The returned slice
// aliases the underlying buffer and must not be modified.
func (r *Reader) Bytes(off, n int) (b []byte, err error) {
	if off < 0 || n < 0 || off+n > len(r.data) || off+n < off {
		return nil, fmt.Errorf(
			"reading %d bytes at offset %d of %d: %w",
			n,
			off,
			len(r.data),
			czerr.ErrCorrupt,
		)
	}

	return r.data[off : off+n], nil
}

// Uint8 returns the byte at absolute offset off.
func (r *Reader) Uint8(off int) (v uint8, err error) {
	b, err := r.Bytes(off, 1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// Uint16 returns the little-endian 16-bit unsigned integer at absolute
// offset off.
func (r *Reader) Uint16(off int) (v uint16, err error) {
	b, err := r.Bytes(off, 2)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b), nil
}

// Uint32 returns the little-endian 32-bit unsigned integer at absolute
// offset off.
func (r *Reader) Uint32(off int) (v uint32, err error) {
	b, err := r.Bytes(off, 4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

// Uint64 returns the little-endian 64-bit unsigned integer at absolute
// offset off.
func (r *Reader) Uint64(off int) (v uint64, err error) {
	b, err := r.Bytes(off, 8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}

// Int8 returns the signed byte at absolute offset off.
func (r *Reader) Int8(off int) (v int8, err error) {
	u, err := r.Uint8(off)

	return int8(u), err
}

// Int16 returns the little-endian 16-bit signed integer at absolute offset
// off.
func (r *Reader) Int16(off int) (v int16, err error) {
	u, err := r.Uint16(off)

	return int16(u), err
}

// Int32 returns the little-endian 32-bit signed integer at absolute offset
// off.
func (r *Reader) Int32(off int) (v int32, err error) {
	u, err := r.Uint32(off)

	return int32(u), err
}

// Int64 returns the little-endian 64-bit signed integer at absolute offset
// off.
func (r *Reader) Int64(off int) (v int64, err error) {
	u, err := r.Uint64(off)

	return int64(u), err
}
