package czio_test

import (
	"testing"

	"github.com/cz88/czdb-go/internal/czerr"
	"github.com/cz88/czdb-go/internal/czio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_integers(t *testing.T) {
	r := czio.NewReader([]byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0xF8, 0xF9, 0xFA, 0xFB, 0xFC, 0xFD, 0xFE, 0xFF,
	})

	u8, err := r.Uint8(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), u8)

	u16, err := r.Uint16(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0302), u16)

	u32, err := r.Uint32(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x07060504), u32)

	u64, err := r.Uint64(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFFFEFDFCFBFAF9F8), u64)

	i8, err := r.Int8(14)
	require.NoError(t, err)
	assert.Equal(t, int8(-1), i8)

	i16, err := r.Int16(13)
	require.NoError(t, err)
	assert.Equal(t, int16(-2), i16)

	i32, err := r.Int32(11)
	require.NoError(t, err)
	assert.Equal(t, int32(-0x10204), i32)

	i64, err := r.Int64(7)
	require.NoError(t, err)
	assert.Equal(t, int64(-0x0001020304050608), i64)
}

func TestReader_bounds(t *testing.T) {
	r := czio.NewReader(make([]byte, 8))

	testCases := []struct {
		name string
		off  int
		n    int
	}{{
		name: "negative_offset",
		off:  -1,
		n:    1,
	}, {
		name: "negative_length",
		off:  0,
		n:    -1,
	}, {
		name: "past_end",
		off:  7,
		n:    2,
	}, {
		name: "offset_past_end",
		off:  9,
		n:    0,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Bytes(tc.off, tc.n)
			assert.ErrorIs(t, err, czerr.ErrCorrupt)
		})
	}

	b, err := r.Bytes(0, 8)
	require.NoError(t, err)
	assert.Len(t, b, 8)

	b, err = r.Bytes(8, 0)
	require.NoError(t, err)
	assert.Empty(t, b)

	_, err = r.Uint64(1)
	assert.ErrorIs(t, err, czerr.ErrCorrupt)
}

func TestReader_empty(t *testing.T) {
	r := &czio.Reader{}
	assert.Equal(t, 0, r.Len())

	_, err := r.Uint8(0)
	assert.ErrorIs(t, err, czerr.ErrCorrupt)
}
