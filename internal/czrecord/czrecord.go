// Package czrecord materializes located records of a CZDB database into
// their final region strings, including the geo-mapping expansion of the
// encrypted per-record suffix.
package czrecord

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cz88/czdb-go/internal/czcrypt"
	"github.com/cz88/czdb-go/internal/czerr"
	"github.com/cz88/czdb-go/internal/czio"
)

// DescriptorLen is the size of the fixed-width geo-mapping descriptor at
// the start of every record: a four-byte absolute offset and a one-byte
// length.
const DescriptorLen = 5

// Delimiter separates the fields of a materialized region string.
const Delimiter = "\t"

// Materializer turns record pointers into region strings.  It is immutable
// and safe for concurrent use.
type Materializer struct {
	r   *czio.Reader
	key []byte
}

// NewMaterializer returns a materializer reading records from r and
// decrypting geo suffixes with the raw key material key.
func NewMaterializer(r *czio.Reader, key []byte) (m *Materializer) {
	return &Materializer{
		r:   r,
		key: key,
	}
}

// Region returns the region string of the record at the absolute offset ptr
// with length recLen.
func (m *Materializer) Region(ptr uint32, recLen uint16) (region string, err error) {
	if recLen < DescriptorLen {
		return "", fmt.Errorf("record of %d bytes at %d: %w", recLen, ptr, czerr.ErrCorrupt)
	}

	rec, err := m.r.Bytes(int(ptr), int(recLen))
	if err != nil {
		return "", fmt.Errorf("reading record at %d: %w", ptr, err)
	}

	geoOff := binary.LittleEndian.Uint32(rec[:4])
	geoLen := rec[4]

	prefix := string(rec[DescriptorLen:])
	if !utf8.ValidString(prefix) {
		return "", fmt.Errorf("region prefix at %d: %w", ptr, czerr.ErrCorrupt)
	}

	if geoLen == 0 {
		return prefix, nil
	}

	suffix, err := m.expandGeo(geoOff, geoLen)
	if err != nil {
		return "", fmt.Errorf("expanding geo mapping of record at %d: %w", ptr, err)
	}

	if prefix == "" {
		return suffix, nil
	} else if suffix == "" {
		return prefix, nil
	}

	return prefix + Delimiter + suffix, nil
}

// expandGeo decrypts the suffix blob at (geoOff, geoLen) and renders its
// length-prefixed fields joined with [Delimiter].
func (m *Materializer) expandGeo(geoOff uint32, geoLen uint8) (suffix string, err error) {
	ct, err := m.r.Bytes(int(geoOff), int(geoLen))
	if err != nil {
		return "", fmt.Errorf("reading suffix: %w", err)
	}

	plain, err := czcrypt.Decrypt(m.key, ct)
	if err != nil {
		return "", fmt.Errorf("decrypting suffix: %w", err)
	}

	plain, err = czcrypt.Unpad(plain)
	if err != nil {
		return "", fmt.Errorf("decrypting suffix: %s: %w", err, czerr.ErrCipher)
	}

	var fields []string
	for i := 0; i < len(plain); {
		fieldLen := int(plain[i])
		i++

		if i+fieldLen > len(plain) {
			return "", fmt.Errorf(
				"field of %d bytes at %d overruns suffix: %w",
				fieldLen,
				i-1,
				czerr.ErrCipher,
			)
		}

		field := plain[i : i+fieldLen]
		if !utf8.Valid(field) {
			return "", fmt.Errorf("field at %d: %w", i-1, czerr.ErrCipher)
		}

		fields = append(fields, string(field))
		i += fieldLen
	}

	return strings.Join(fields, Delimiter), nil
}
