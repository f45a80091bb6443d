package czformat_test

import (
	"encoding/base64"
	"encoding/binary"
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/netutil"
	"github.com/cz88/czdb-go/internal/czcrypt"
	"github.com/cz88/czdb-go/internal/czerr"
	"github.com/cz88/czdb-go/internal/czformat"
	"github.com/cz88/czdb-go/internal/czio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKeyStr is the printable key used by the format tests.
var testKeyStr = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef"))

// constClock is a [timeutil.Clock] that always returns the same instant.
type constClock time.Time

// Now implements the [timeutil.Clock] interface for constClock.
func (c constClock) Now() (now time.Time) { return time.Time(c) }

// testClock reports a day safely before the expiry stamps used in tests.
var testClock = constClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))

// buildHeader assembles a file image consisting of a preamble, the encrypted
// super-block, and tail zero bytes of padding so that the geometry of sb
// fits.
func buildHeader(tb testing.TB, familyTag byte, sb *czformat.SuperBlock, tail int) (data []byte) {
	tb.Helper()

	plain := make([]byte, 20)
	binary.LittleEndian.PutUint32(plain[0:4], sb.ClientID)
	binary.LittleEndian.PutUint32(plain[4:8], sb.ExpiryYMD)
	binary.LittleEndian.PutUint32(plain[8:12], sb.ColIndexStart)
	binary.LittleEndian.PutUint32(plain[12:16], sb.ColIndexLen)
	binary.LittleEndian.PutUint32(plain[16:20], sb.RecordStart)

	key, err := czcrypt.NewKey(testKeyStr)
	require.NoError(tb, err)

	ct, err := czcrypt.Encrypt(key, czcrypt.Pad(plain))
	require.NoError(tb, err)

	data = make([]byte, czformat.PreambleLen, czformat.PreambleLen+len(ct)+tail)
	data[0] = familyTag
	binary.LittleEndian.PutUint32(data[1:5], 20260101)
	binary.LittleEndian.PutUint32(data[5:9], czformat.PreambleLen)
	binary.LittleEndian.PutUint32(data[9:13], uint32(len(ct)))
	data = append(data, ct...)
	data = append(data, make([]byte, tail)...)

	return data
}

func TestParsePreamble(t *testing.T) {
	sb := &czformat.SuperBlock{
		ClientID:      42,
		ExpiryYMD:     20270101,
		ColIndexStart: 45,
		ColIndexLen:   0,
		RecordStart:   45,
	}

	data := buildHeader(t, czformat.FamilyTagIPv4, sb, 0)

	p, err := czformat.ParsePreamble(czio.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, netutil.AddrFamilyIPv4, p.Family)
	assert.Equal(t, uint32(20260101), p.Version)
	assert.Equal(t, uint32(czformat.PreambleLen), p.SuperOff)
	assert.Equal(t, uint32(32), p.SuperLen)
}

func TestParsePreamble_bad(t *testing.T) {
	sb := &czformat.SuperBlock{
		ExpiryYMD:     20270101,
		ColIndexStart: 45,
		RecordStart:   45,
	}
	good := buildHeader(t, czformat.FamilyTagIPv4, sb, 0)

	testCases := []struct {
		name   string
		mutate func(data []byte) (mutated []byte)
	}{{
		name: "short",
		mutate: func(data []byte) (mutated []byte) {
			return data[:5]
		},
	}, {
		name: "family_tag",
		mutate: func(data []byte) (mutated []byte) {
			data[0] = 0x05

			return data
		},
	}, {
		name: "zero_version",
		mutate: func(data []byte) (mutated []byte) {
			copy(data[1:5], []byte{0, 0, 0, 0})

			return data
		},
	}, {
		name: "super_len_not_multiple",
		mutate: func(data []byte) (mutated []byte) {
			binary.LittleEndian.PutUint32(data[9:13], 33)

			return data
		},
	}, {
		name: "super_len_huge",
		mutate: func(data []byte) (mutated []byte) {
			binary.LittleEndian.PutUint32(data[9:13], 512)

			return data
		},
	}, {
		name: "super_does_not_fit",
		mutate: func(data []byte) (mutated []byte) {
			binary.LittleEndian.PutUint32(data[5:9], uint32(len(data)))

			return data
		},
	}, {
		name: "super_in_preamble",
		mutate: func(data []byte) (mutated []byte) {
			binary.LittleEndian.PutUint32(data[5:9], 0)

			return data
		},
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := tc.mutate(append([]byte(nil), good...))

			_, err := czformat.ParsePreamble(czio.NewReader(data))
			assert.ErrorIs(t, err, czerr.ErrCorrupt)
		})
	}
}

func TestDecodeSuperBlock(t *testing.T) {
	want := &czformat.SuperBlock{
		ClientID:      1001,
		ExpiryYMD:     20270630,
		ColIndexStart: 45,
		ColIndexLen:   26,
		RecordStart:   71,
	}

	data := buildHeader(t, czformat.FamilyTagIPv4, want, 64)
	r := czio.NewReader(data)

	p, err := czformat.ParsePreamble(r)
	require.NoError(t, err)

	key, err := czcrypt.NewKey(testKeyStr)
	require.NoError(t, err)

	sb, err := czformat.DecodeSuperBlock(r, p, key)
	require.NoError(t, err)
	assert.Equal(t, want, sb)

	require.NoError(t, sb.Validate(r, p, testClock))
}

func TestDecodeSuperBlock_wrongKey(t *testing.T) {
	sb := &czformat.SuperBlock{
		ExpiryYMD:     20270101,
		ColIndexStart: 45,
		RecordStart:   45,
	}

	data := buildHeader(t, czformat.FamilyTagIPv4, sb, 0)
	r := czio.NewReader(data)

	p, err := czformat.ParsePreamble(r)
	require.NoError(t, err)

	wrongKey, err := czcrypt.NewKey(
		base64.StdEncoding.EncodeToString([]byte("fedcba9876543210")),
	)
	require.NoError(t, err)

	_, err = czformat.DecodeSuperBlock(r, p, wrongKey)
	assert.ErrorIs(t, err, czerr.ErrInvalidKey)
}

func TestSuperBlock_Validate(t *testing.T) {
	base := czformat.SuperBlock{
		ClientID:      1,
		ExpiryYMD:     20270101,
		ColIndexStart: 45,
		ColIndexLen:   26,
		RecordStart:   71,
	}

	sb := base
	data := buildHeader(t, czformat.FamilyTagIPv4, &sb, 64)
	r := czio.NewReader(data)

	p, err := czformat.ParsePreamble(r)
	require.NoError(t, err)

	require.NoError(t, sb.Validate(r, p, testClock))
	assert.Equal(t, 2, sb.Rows(p.Family))

	t.Run("expired", func(t *testing.T) {
		sb := base
		sb.ExpiryYMD = 20251231

		assert.ErrorIs(t, sb.Validate(r, p, testClock), czerr.ErrExpired)
	})

	t.Run("expires_today", func(t *testing.T) {
		sb := base
		sb.ExpiryYMD = 20260101

		assert.NoError(t, sb.Validate(r, p, testClock))
	})

	t.Run("index_does_not_fit", func(t *testing.T) {
		sb := base
		sb.ColIndexLen = uint32(len(data))

		assert.ErrorIs(t, sb.Validate(r, p, testClock), czerr.ErrCorrupt)
	})

	t.Run("index_not_multiple", func(t *testing.T) {
		sb := base
		sb.ColIndexLen = 14

		assert.ErrorIs(t, sb.Validate(r, p, testClock), czerr.ErrCorrupt)
	})

	t.Run("record_start_past_end", func(t *testing.T) {
		sb := base
		sb.RecordStart = uint32(len(data) + 1)

		assert.ErrorIs(t, sb.Validate(r, p, testClock), czerr.ErrCorrupt)
	})
}

func TestRowGeometry(t *testing.T) {
	assert.Equal(t, 13, czformat.RowWidth(netutil.AddrFamilyIPv4))
	assert.Equal(t, 38, czformat.RowWidth(netutil.AddrFamilyIPv6))
	assert.Equal(t, 1, czformat.RecordLenWidth(netutil.AddrFamilyIPv4))
	assert.Equal(t, 2, czformat.RecordLenWidth(netutil.AddrFamilyIPv6))
}

func TestPackYMD(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*60*60)
	tm := time.Date(2026, 1, 31, 23, 30, 0, 0, loc)

	assert.Equal(t, uint32(20260201), czformat.PackYMD(tm))
}
