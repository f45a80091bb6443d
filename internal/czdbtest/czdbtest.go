// Package czdbtest contains fixtures for the CZDB searcher tests: a
// deterministic builder of valid database images, standard range sets, and
// the keys shared by the tests of all packages.
package czdbtest

import (
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/AdguardTeam/golibs/netutil"
	"github.com/cz88/czdb-go/internal/czcrypt"
	"github.com/cz88/czdb-go/internal/cznet"
	"github.com/stretchr/testify/require"
)

// Printable keys shared by the tests.  KeyStr is the key all fixture images
// are encrypted with; WrongKeyStr is well-formed but different.
var (
	KeyStr      = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef"))
	WrongKeyStr = base64.StdEncoding.EncodeToString([]byte("fedcba9876543210"))
)

// Range describes one span of a fixture database together with its region
// data.  Start and End are textual addresses of the database family; the
// span is inclusive on both ends.  Fields, when present, become the
// encrypted geo-mapping suffix of the record.
type Range struct {
	Start  string
	End    string
	Prefix string
	Fields []string
}

// Config configures a fixture database image.
type Config struct {
	// Family is the address family of the image.
	Family netutil.AddrFamily

	// Key is the printable key the image is encrypted with.
	Key string

	// ClientID is the opaque owner identity of the super-block.
	ClientID uint32

	// ExpiryYMD is the packed expiry date of the super-block.
	ExpiryYMD uint32

	// Version is the build stamp of the preamble.
	Version uint32
}

// NewConfig returns a fixture configuration for family fam with sane
// defaults: [KeyStr], a far-future expiry, and a fixed version stamp.
func NewConfig(fam netutil.AddrFamily) (c *Config) {
	return &Config{
		Family:    fam,
		Key:       KeyStr,
		ClientID:  1234,
		ExpiryYMD: 20991231,
		Version:   20260101,
	}
}

// preambleLen and the row geometry constants mirror the format; the fixture
// keeps its own copies so that builder bugs and format bugs fail tests
// independently.
const preambleLen = 13

// familyTag returns the preamble tag byte for fam.
func familyTag(tb testing.TB, fam netutil.AddrFamily) (tag byte) {
	tb.Helper()

	switch fam {
	case netutil.AddrFamilyIPv4:
		return 0x04
	case netutil.AddrFamilyIPv6:
		return 0x06
	default:
		tb.Fatalf("bad family %v", fam)

		return 0
	}
}

// Build assembles a complete, valid database image from c and ranges.
// ranges must be sorted by start address and strictly disjoint.
func Build(tb testing.TB, c *Config, ranges []Range) (data []byte) {
	tb.Helper()

	key, err := czcrypt.NewKey(c.Key)
	require.NoError(tb, err)

	addrWidth := cznet.AddrWidth(c.Family)
	lenWidth := 1
	if c.Family == netutil.AddrFamilyIPv6 {
		lenWidth = 2
	}

	rowWidth := 2*addrWidth + 4 + lenWidth

	colIndexStart := preambleLen + 32
	colIndexLen := len(ranges) * rowWidth
	recordStart := colIndexStart + colIndexLen

	// First pass: encode records and suffix blobs, remembering pointers.
	type rowData struct {
		start, end []byte
		ptr        uint32
		recLen     uint16
	}

	var records []byte
	var blobs []byte
	rows := make([]rowData, 0, len(ranges))

	// Blob offsets are assigned after record offsets, so sizes must be known
	// up front.
	recordsLen := 0
	for _, r := range ranges {
		recordsLen += 5 + len(r.Prefix)
	}

	blobStart := recordStart + recordsLen

	var prevEnd []byte
	for _, r := range ranges {
		start, err := cznet.ParseAddr(r.Start, c.Family)
		require.NoError(tb, err)

		end, err := cznet.ParseAddr(r.End, c.Family)
		require.NoError(tb, err)

		require.LessOrEqual(tb, compareBytes(start, end), 0)
		if prevEnd != nil {
			require.Negative(tb, compareBytes(prevEnd, start))
		}

		prevEnd = end

		var geoOff uint32
		var geoLen byte
		if len(r.Fields) > 0 {
			var plain []byte
			for _, f := range r.Fields {
				require.LessOrEqual(tb, len(f), 255)
				plain = append(plain, byte(len(f)))
				plain = append(plain, f...)
			}

			blob, err := czcrypt.Encrypt(key, czcrypt.Pad(plain))
			require.NoError(tb, err)
			require.LessOrEqual(tb, len(blob), 255)

			geoOff = uint32(blobStart + len(blobs))
			geoLen = byte(len(blob))
			blobs = append(blobs, blob...)
		}

		rec := make([]byte, 5, 5+len(r.Prefix))
		binary.LittleEndian.PutUint32(rec[:4], geoOff)
		rec[4] = geoLen
		rec = append(rec, r.Prefix...)

		ptr := uint32(recordStart + len(records))
		records = append(records, rec...)

		rows = append(rows, rowData{
			start:  start,
			end:    end,
			ptr:    ptr,
			recLen: uint16(len(rec)),
		})
	}

	// Second pass: the image itself.
	data = make([]byte, 0, blobStart+len(blobs))

	preamble := make([]byte, preambleLen)
	preamble[0] = familyTag(tb, c.Family)
	binary.LittleEndian.PutUint32(preamble[1:5], c.Version)
	binary.LittleEndian.PutUint32(preamble[5:9], preambleLen)
	binary.LittleEndian.PutUint32(preamble[9:13], 32)
	data = append(data, preamble...)

	super := make([]byte, 20)
	binary.LittleEndian.PutUint32(super[0:4], c.ClientID)
	binary.LittleEndian.PutUint32(super[4:8], c.ExpiryYMD)
	binary.LittleEndian.PutUint32(super[8:12], uint32(colIndexStart))
	binary.LittleEndian.PutUint32(super[12:16], uint32(colIndexLen))
	binary.LittleEndian.PutUint32(super[16:20], uint32(recordStart))

	superCT, err := czcrypt.Encrypt(key, czcrypt.Pad(super))
	require.NoError(tb, err)
	require.Len(tb, superCT, 32)
	data = append(data, superCT...)

	for _, row := range rows {
		data = append(data, row.start...)
		data = append(data, row.end...)
		data = binary.LittleEndian.AppendUint32(data, row.ptr)
		if lenWidth == 1 {
			data = append(data, byte(row.recLen))
		} else {
			data = binary.LittleEndian.AppendUint16(data, row.recLen)
		}
	}

	data = append(data, records...)
	data = append(data, blobs...)

	return data
}

// compareBytes compares two equal-width big-endian addresses.
func compareBytes(a, b []byte) (res int) {
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

// V4Ranges returns the standard IPv4 fixture ranges.  They include the
// well-known resolver addresses used by the end-to-end scenarios and leave
// deliberate gaps between spans.
func V4Ranges() (ranges []Range) {
	return []Range{{
		Start:  "1.1.1.0",
		End:    "1.1.1.255",
		Prefix: "澳大利亚",
		Fields: []string{"新南威尔士州", "悉尼", "", "APNIC"},
	}, {
		Start:  "8.8.8.0",
		End:    "8.8.8.255",
		Prefix: "美国",
		Fields: []string{"加利福尼亚州", "圣克拉拉县", "山景城", "Google"},
	}, {
		Start:  "10.0.0.0",
		End:    "10.255.255.255",
		Prefix: "局域网",
	}, {
		Start:  "192.168.0.0",
		End:    "192.168.255.255",
		Prefix: "局域网",
	}, {
		Start:  "223.5.5.0",
		End:    "223.5.5.255",
		Prefix: "中国",
		Fields: []string{"浙江省", "杭州市", "", "阿里云"},
	}}
}

// V6Ranges returns the standard IPv6 fixture ranges.
func V6Ranges() (ranges []Range) {
	return []Range{{
		Start:  "2001:4860:4860::",
		End:    "2001:4860:4860:ffff:ffff:ffff:ffff:ffff",
		Prefix: "美国",
		Fields: []string{"加利福尼亚州", "圣克拉拉县", "山景城", "Google"},
	}, {
		Start:  "2400:3200::",
		End:    "2400:3200::ffff",
		Prefix: "中国",
		Fields: []string{"浙江省", "杭州市", "", "阿里云"},
	}, {
		Start:  "2606:4700:4700::",
		End:    "2606:4700:4700::ffff",
		Prefix: "美国",
		Fields: []string{"", "", "", "Cloudflare"},
	}}
}
