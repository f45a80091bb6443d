package czdb_test

import (
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/netutil"
	czdb "github.com/cz88/czdb-go"
	"github.com/cz88/czdb-go/internal/czdbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constClock is a clock that always returns the same instant.
type constClock time.Time

// Now implements the [timeutil.Clock] interface for constClock.
func (c constClock) Now() (now time.Time) { return time.Time(c) }

// testClock reports a day safely before the fixture expiry stamps.
var testClock = constClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))

// newV4DB returns a standard IPv4 fixture image.
func newV4DB(tb testing.TB) (data []byte) {
	tb.Helper()

	return czdbtest.Build(tb, czdbtest.NewConfig(netutil.AddrFamilyIPv4), czdbtest.V4Ranges())
}

// newV6DB returns a standard IPv6 fixture image.
func newV6DB(tb testing.TB) (data []byte) {
	tb.Helper()

	return czdbtest.Build(tb, czdbtest.NewConfig(netutil.AddrFamilyIPv6), czdbtest.V6Ranges())
}

func TestOpen(t *testing.T) {
	data := newV4DB(t)

	s, err := czdb.Open(data, &czdb.Config{
		Key:   czdbtest.KeyStr,
		Clock: testClock,
	})
	require.NoError(t, err)

	assert.Equal(t, czdb.SearchModeMemory, s.Mode())
	assert.Equal(t, netutil.AddrFamilyIPv4, s.Family())
	assert.Equal(t, uint32(1234), s.ClientID())
	assert.Equal(
		t,
		time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC),
		s.ExpiresOn(),
	)

	require.NoError(t, s.Close())
}

func TestOpen_badKey(t *testing.T) {
	data := newV4DB(t)

	testCases := []struct {
		name string
		key  string
	}{{
		name: "wrong",
		key:  czdbtest.WrongKeyStr,
	}, {
		name: "not_base64",
		key:  "???",
	}, {
		name: "too_short",
		key:  "c2hvcnQ=",
	}, {
		name: "empty",
		key:  "",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := czdb.Open(data, &czdb.Config{
				Key:   tc.key,
				Clock: testClock,
			})
			assert.ErrorIs(t, err, czdb.ErrInvalidKey)
		})
	}
}

func TestOpen_expired(t *testing.T) {
	c := czdbtest.NewConfig(netutil.AddrFamilyIPv4)
	c.ExpiryYMD = 20260731
	data := czdbtest.Build(t, c, czdbtest.V4Ranges())

	_, err := czdb.Open(data, &czdb.Config{
		Key:   czdbtest.KeyStr,
		Clock: testClock,
	})
	assert.ErrorIs(t, err, czdb.ErrExpired)
}

func TestOpen_corrupt(t *testing.T) {
	data := newV4DB(t)

	t.Run("truncated", func(t *testing.T) {
		_, err := czdb.Open(data[:8], &czdb.Config{
			Key:   czdbtest.KeyStr,
			Clock: testClock,
		})
		assert.ErrorIs(t, err, czdb.ErrCorrupt)
	})

	t.Run("bad_family_tag", func(t *testing.T) {
		mutated := append([]byte(nil), data...)
		mutated[0] = 0xFF

		_, err := czdb.Open(mutated, &czdb.Config{
			Key:   czdbtest.KeyStr,
			Clock: testClock,
		})
		assert.ErrorIs(t, err, czdb.ErrCorrupt)
	})

	t.Run("truncated_index", func(t *testing.T) {
		// Cut the image inside the column-index region.
		_, err := czdb.Open(data[:64], &czdb.Config{
			Key:   czdbtest.KeyStr,
			Clock: testClock,
		})
		assert.ErrorIs(t, err, czdb.ErrCorrupt)
	})
}

func TestOpen_badMode(t *testing.T) {
	data := newV4DB(t)

	_, err := czdb.Open(data, &czdb.Config{
		Key:   czdbtest.KeyStr,
		Clock: testClock,
		Mode:  czdb.SearchMode(42),
	})
	assert.Error(t, err)
}

func TestNewSearchMode(t *testing.T) {
	m, err := czdb.NewSearchMode("memory")
	require.NoError(t, err)
	assert.Equal(t, czdb.SearchModeMemory, m)

	m, err = czdb.NewSearchMode("btree")
	require.NoError(t, err)
	assert.Equal(t, czdb.SearchModeBTree, m)

	_, err = czdb.NewSearchMode("paged")
	assert.Error(t, err)

	assert.Equal(t, "memory", czdb.SearchModeMemory.String())
	assert.Equal(t, "btree", czdb.SearchModeBTree.String())
}
