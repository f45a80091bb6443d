package czdb

import (
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/netutil"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/bluele/gcache"
	"github.com/cz88/czdb-go/internal/czcrypt"
	"github.com/cz88/czdb-go/internal/czformat"
	"github.com/cz88/czdb-go/internal/czio"
	"github.com/cz88/czdb-go/internal/cznet"
	"github.com/cz88/czdb-go/internal/czrecord"
	"github.com/cz88/czdb-go/internal/rowidx"
)

// Searcher answers region queries over one CZDB database.  The decoded
// database state is published at open time and never changes afterwards;
// only the result cache, the BTree-mode row cursor, and the closed flag
// change during the searcher's lifetime.  Memory-mode
// searchers are safe for concurrent use; BTree-mode searchers are
// single-owner, see [SearchMode].
type Searcher struct {
	logger  *slog.Logger
	metrics Metrics

	reader *czio.Reader
	table  rowidx.Table
	bounds *rowidx.Bounds
	mat    *czrecord.Materializer

	// cache is the optional LRU cache of materialized regions, keyed by the
	// normalized address bytes.  nil when disabled.
	cache gcache.Cache

	closed atomic.Bool

	family    netutil.AddrFamily
	mode      SearchMode
	clientID  uint32
	expiryYMD uint32
}

// Open bootstraps a searcher over data, which must be a complete CZDB file
// image.  In [SearchModeMemory] the buffer is copied; in [SearchModeBTree]
// it is borrowed, and the caller must not mutate it for the lifetime of the
// searcher.  Open either returns a fully initialized searcher or an error;
// no partially initialized searcher is ever returned.
func Open(data []byte, c *Config) (s *Searcher, err error) {
	defer func() { err = errors.Annotate(err, "opening czdb: %w") }()

	key, err := czcrypt.NewKey(c.Key)
	if err != nil {
		return nil, err
	}

	logger := c.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}

	mtrc := c.Metrics
	if mtrc == nil {
		mtrc = EmptyMetrics{}
	}

	clock := c.Clock
	if clock == nil {
		clock = timeutil.SystemClock{}
	}

	switch c.Mode {
	case SearchModeMemory:
		data = slices.Clone(data)
	case SearchModeBTree:
		// Borrow the caller's buffer.
	default:
		return nil, fmt.Errorf("mode %d: %w", c.Mode, errors.ErrBadEnumValue)
	}

	r := czio.NewReader(data)

	p, err := czformat.ParsePreamble(r)
	if err != nil {
		return nil, err
	}

	sb, err := czformat.DecodeSuperBlock(r, p, key)
	if err != nil {
		return nil, err
	}

	err = sb.Validate(r, p, clock)
	if err != nil {
		return nil, err
	}

	geo := &rowidx.Geometry{
		Start:     int(sb.ColIndexStart),
		Rows:      sb.Rows(p.Family),
		AddrWidth: cznet.AddrWidth(p.Family),
		LenWidth:  czformat.RecordLenWidth(p.Family),
	}

	var table rowidx.Table
	if c.Mode == SearchModeMemory {
		table, err = rowidx.NewMemoryTable(r, geo)
	} else {
		table, err = rowidx.NewPagedTable(r, geo)
	}
	if err != nil {
		return nil, err
	}

	bounds, err := rowidx.NewBounds(table, geo.AddrWidth)
	if err != nil {
		return nil, err
	}

	var cache gcache.Cache
	if c.CacheCount > 0 {
		cache = gcache.New(c.CacheCount).LRU().Build()
	}

	s = &Searcher{
		logger:    logger,
		metrics:   mtrc,
		reader:    r,
		table:     table,
		bounds:    bounds,
		mat:       czrecord.NewMaterializer(r, key),
		cache:     cache,
		family:    p.Family,
		mode:      c.Mode,
		clientID:  sb.ClientID,
		expiryYMD: sb.ExpiryYMD,
	}

	logger.Debug(
		"czdb opened",
		"family", p.Family,
		"mode", c.Mode,
		"version", p.Version,
		"client_id", sb.ClientID,
		"expires", sb.ExpiryYMD,
		"rows", geo.Rows,
	)

	return s, nil
}

// Search resolves the textual IPv4 or IPv6 address addr to its region
// string.  The string is the tab-separated concatenation of the region
// prefix and the decrypted geo-mapping fields of the covering record.
func (s *Searcher) Search(addr string) (region string, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSearch(s.mode, time.Since(start), err) }()

	if s.closed.Load() {
		return "", ErrClosed
	}

	addrBytes, err := cznet.ParseAddr(addr, s.family)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return "", err
	}

	cacheKey := string(addrBytes)
	if s.cache != nil {
		var v any
		v, err = s.cache.Get(cacheKey)
		hit := err == nil
		s.metrics.IncrementCacheLookups(hit)
		if hit {
			return v.(string), nil
		}
	}

	ptr, recLen, err := rowidx.Search(s.table, s.bounds, addrBytes)
	if err != nil {
		return "", fmt.Errorf("searching index: %w", err)
	}

	region, err = s.mat.Region(ptr, recLen)
	if err != nil {
		return "", fmt.Errorf("materializing record at %d: %w", ptr, err)
	}

	if s.cache != nil {
		// The cache has no expiration; a set only fails for serialization
		// reasons that cannot happen with plain strings.
		_ = s.cache.Set(cacheKey, region)
	}

	return region, nil
}

// SearchBatch resolves addrs and returns one region string per input, in
// order.  Failed lookups produce an empty string and are logged at debug
// level; they do not abort the batch.
func (s *Searcher) SearchBatch(addrs []string) (regions []string) {
	regions = make([]string, len(addrs))
	for i, addr := range addrs {
		region, err := s.Search(addr)
		if err != nil {
			s.logger.Debug("batch lookup", "addr", addr, slogutil.KeyError, err)

			continue
		}

		regions[i] = region
	}

	return regions
}

// Mode returns the search mode of the searcher.
func (s *Searcher) Mode() (m SearchMode) {
	return s.mode
}

// Family returns the address family of the database.
func (s *Searcher) Family() (fam netutil.AddrFamily) {
	return s.family
}

// ClientID returns the opaque owner identity from the super-block.
func (s *Searcher) ClientID() (id uint32) {
	return s.clientID
}

// ExpiresOn returns the expiry date of the database as the beginning of
// that UTC day.
func (s *Searcher) ExpiresOn() (t time.Time) {
	ymd := s.expiryYMD

	return time.Date(
		int(ymd/1_00_00),
		time.Month(ymd/1_00%1_00),
		int(ymd%1_00),
		0,
		0,
		0,
		0,
		time.UTC,
	)
}

// Close marks the searcher as closed and purges the result cache.  Searches
// issued after Close return [ErrClosed]; closing twice returns [ErrClosed] as
// well.  Close does not drop the reference to the database buffer; it stays
// reachable for as long as s is.
func (s *Searcher) Close() (err error) {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	if s.cache != nil {
		s.cache.Purge()
	}

	return nil
}
