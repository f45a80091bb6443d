// Package czformat decodes the fixed part of the CZDB file format: the
// plaintext preamble, the key-protected super-block, and the geometry of the
// column-index region that they describe.
package czformat

import (
	"fmt"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/netutil"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/cz88/czdb-go/internal/czcrypt"
	"github.com/cz88/czdb-go/internal/czerr"
	"github.com/cz88/czdb-go/internal/czio"
	"github.com/cz88/czdb-go/internal/cznet"
)

// Family tag values of the preamble.
const (
	FamilyTagIPv4 = 0x04
	FamilyTagIPv6 = 0x06
)

// PreambleLen is the size of the plaintext preamble in bytes.
const PreambleLen = 13

// maxSuperLen bounds the encrypted super-block size.  The plaintext payload
// is [superBlockLen] bytes; anything past a few cipher blocks is reserved
// space, and a length beyond this limit means a broken file.
const maxSuperLen = 256

// superBlockLen is the size of the decoded super-block payload in bytes.
const superBlockLen = 20

// Preamble is the decoded plaintext preamble at the start of the file.
type Preamble struct {
	// Family is the address family of the database, either
	// [netutil.AddrFamilyIPv4] or [netutil.AddrFamilyIPv6].
	Family netutil.AddrFamily

	// Version is the database build stamp.
	Version uint32

	// SuperOff is the absolute offset of the encrypted super-block.
	SuperOff uint32

	// SuperLen is the length of the encrypted super-block in bytes.
	SuperLen uint32
}

// ParsePreamble reads and validates the preamble at offset zero of r.
func ParsePreamble(r *czio.Reader) (p *Preamble, err error) {
	defer func() { err = errors.Annotate(err, "parsing preamble: %w") }()

	tag, err := r.Uint8(0)
	if err != nil {
		return nil, err
	}

	p = &Preamble{}
	switch tag {
	case FamilyTagIPv4:
		p.Family = netutil.AddrFamilyIPv4
	case FamilyTagIPv6:
		p.Family = netutil.AddrFamilyIPv6
	default:
		return nil, fmt.Errorf("family tag %#02x: %w", tag, czerr.ErrCorrupt)
	}

	if p.Version, err = r.Uint32(1); err != nil {
		return nil, err
	} else if p.Version == 0 {
		return nil, fmt.Errorf("zero version: %w", czerr.ErrCorrupt)
	}

	if p.SuperOff, err = r.Uint32(5); err != nil {
		return nil, err
	}

	if p.SuperLen, err = r.Uint32(9); err != nil {
		return nil, err
	}

	switch l := p.SuperLen; {
	case l == 0, l%czcrypt.BlockSize != 0:
		return nil, fmt.Errorf(
			"super-block of %d bytes is not a multiple of %d: %w",
			l,
			czcrypt.BlockSize,
			czerr.ErrCorrupt,
		)
	case l > maxSuperLen:
		return nil, fmt.Errorf("super-block of %d bytes: %w", l, czerr.ErrCorrupt)
	}

	if p.SuperOff < PreambleLen || int(p.SuperOff)+int(p.SuperLen) > r.Len() {
		return nil, fmt.Errorf(
			"super-block at [%d, %d) does not fit: %w",
			p.SuperOff,
			p.SuperOff+p.SuperLen,
			czerr.ErrCorrupt,
		)
	}

	return p, nil
}

// SuperBlock is the decrypted super-block of the database.
type SuperBlock struct {
	// ClientID is the opaque identity of the database owner.
	ClientID uint32

	// ExpiryYMD is the expiry date of the database as a packed decimal
	// YYYYMMDD value.
	ExpiryYMD uint32

	// ColIndexStart is the absolute offset of the column-index region.
	ColIndexStart uint32

	// ColIndexLen is the length of the column-index region in bytes.
	ColIndexLen uint32

	// RecordStart is the absolute offset of the record region.
	RecordStart uint32
}

// DecodeSuperBlock decrypts the super-block named by p with the raw key
// material key and decodes it.  A key that produces an implausible
// plaintext results in an error wrapping [czerr.ErrInvalidKey].
func DecodeSuperBlock(r *czio.Reader, p *Preamble, key []byte) (sb *SuperBlock, err error) {
	defer func() { err = errors.Annotate(err, "decoding super-block: %w") }()

	ct, err := r.Bytes(int(p.SuperOff), int(p.SuperLen))
	if err != nil {
		return nil, err
	}

	plain, err := czcrypt.Decrypt(key, ct)
	if err != nil {
		return nil, err
	}

	plain, err = czcrypt.Unpad(plain)
	if err != nil {
		// Bad padding after decryption is how a wrong key manifests.
		return nil, fmt.Errorf("%s: %w", err, czerr.ErrInvalidKey)
	}

	if len(plain) < superBlockLen {
		return nil, fmt.Errorf(
			"super-block payload of %d bytes, need %d: %w",
			len(plain),
			superBlockLen,
			czerr.ErrInvalidKey,
		)
	}

	pr := czio.NewReader(plain)
	sb = &SuperBlock{}

	// Reads cannot fail past the length check above.
	sb.ClientID, _ = pr.Uint32(0)
	sb.ExpiryYMD, _ = pr.Uint32(4)
	sb.ColIndexStart, _ = pr.Uint32(8)
	sb.ColIndexLen, _ = pr.Uint32(12)
	sb.RecordStart, _ = pr.Uint32(16)

	return sb, nil
}

// Validate checks the super-block geometry against the buffer of r and the
// expiry date against the current UTC day of clock.
func (sb *SuperBlock) Validate(r *czio.Reader, p *Preamble, clock timeutil.Clock) (err error) {
	today := PackYMD(clock.Now())
	if sb.ExpiryYMD < today {
		return fmt.Errorf("expired on %d, today is %d: %w", sb.ExpiryYMD, today, czerr.ErrExpired)
	}

	bufLen := uint64(r.Len())
	idxStart, idxLen := uint64(sb.ColIndexStart), uint64(sb.ColIndexLen)

	if idxStart < PreambleLen || idxStart+idxLen > bufLen {
		return fmt.Errorf(
			"column index at [%d, %d) does not fit in %d bytes: %w",
			idxStart,
			idxStart+idxLen,
			bufLen,
			czerr.ErrCorrupt,
		)
	}

	rw := uint64(RowWidth(p.Family))
	if idxLen%rw != 0 {
		return fmt.Errorf(
			"column index of %d bytes is not a multiple of the %d-byte row: %w",
			idxLen,
			rw,
			czerr.ErrCorrupt,
		)
	}

	if rs := uint64(sb.RecordStart); rs < PreambleLen || rs > bufLen {
		return fmt.Errorf("record region at %d does not fit: %w", rs, czerr.ErrCorrupt)
	}

	return nil
}

// Rows returns the number of rows in the column-index region.
func (sb *SuperBlock) Rows(fam netutil.AddrFamily) (n int) {
	return int(sb.ColIndexLen) / RowWidth(fam)
}

// RecordLenWidth returns the width of the record-length field of a
// column-index row for family fam: one byte for IPv4 databases and two for
// IPv6 ones.
func RecordLenWidth(fam netutil.AddrFamily) (n int) {
	if fam == netutil.AddrFamilyIPv4 {
		return 1
	}

	return 2
}

// RowWidth returns the width of one column-index row for family fam:
// thirteen bytes for IPv4 databases and thirty-eight for IPv6 ones.
func RowWidth(fam netutil.AddrFamily) (n int) {
	aw := cznet.AddrWidth(fam)

	return 2*aw + 4 + RecordLenWidth(fam)
}

// PackYMD packs the UTC calendar day of t into a decimal YYYYMMDD value.
func PackYMD(t time.Time) (ymd uint32) {
	y, m, d := t.UTC().Date()

	return uint32(y)*1_00_00 + uint32(m)*1_00 + uint32(d)
}
