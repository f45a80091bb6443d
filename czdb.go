// Package czdb implements a searcher over the packed, encrypted CZDB IP
// geolocation database format.  A searcher is created from an already-loaded
// byte buffer and a user key, answers textual address queries with region
// strings, and is immutable for its lifetime.
package czdb

import (
	"fmt"
	"log/slog"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/timeutil"
)

// SearchMode selects the binding of the row-table capability used by a
// searcher.
type SearchMode uint8

// SearchMode values.
const (
	// SearchModeMemory copies the database into owned memory at open time.
	// Memory-mode searchers are safe for concurrent readers.
	SearchModeMemory SearchMode = iota

	// SearchModeBTree reads column-index rows from the caller's buffer on
	// demand and keeps a small cursor cache.  BTree-mode searchers are
	// single-owner.
	SearchModeBTree
)

// type check
var _ fmt.Stringer = SearchModeMemory

// String implements the [fmt.Stringer] interface for SearchMode.
func (m SearchMode) String() (s string) {
	switch m {
	case SearchModeMemory:
		return "memory"
	case SearchModeBTree:
		return "btree"
	default:
		return fmt.Sprintf("!bad_search_mode_%d", m)
	}
}

// NewSearchMode parses a search mode from its string form, as produced by
// [SearchMode.String].
func NewSearchMode(s string) (m SearchMode, err error) {
	switch s {
	case "memory":
		return SearchModeMemory, nil
	case "btree":
		return SearchModeBTree, nil
	default:
		return 0, fmt.Errorf("search mode %q: %w", s, errors.ErrBadEnumValue)
	}
}

// Config is the configuration for a [Searcher].
type Config struct {
	// Logger is used for logging the bootstrap and batch operation of the
	// searcher.  If Logger is nil, logging is discarded.  The query path
	// itself never logs.
	Logger *slog.Logger

	// Metrics collects the searcher statistics.  If Metrics is nil,
	// [EmptyMetrics] is used.
	Metrics Metrics

	// Clock provides the current time for the expiry validation.  If Clock
	// is nil, [timeutil.SystemClock] is used.
	Clock timeutil.Clock

	// Key is the printable key the database is protected with.  It must not
	// be empty.
	Key string

	// Mode selects the search strategy.  The zero value is
	// [SearchModeMemory].
	Mode SearchMode

	// CacheCount is the size of the LRU cache of materialized regions keyed
	// by the full address.  Zero disables the cache.
	CacheCount int
}
