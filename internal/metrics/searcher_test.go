package metrics_test

import (
	"testing"
	"time"

	czdb "github.com/cz88/czdb-go"
	"github.com/cz88/czdb-go/internal/czerr"
	"github.com/cz88/czdb-go/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearcher(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := metrics.NewSearcher(metrics.Namespace, reg)
	require.NoError(t, err)

	m.ObserveSearch(czdb.SearchModeMemory, 1*time.Microsecond, nil)
	m.ObserveSearch(czdb.SearchModeMemory, 1*time.Microsecond, czerr.ErrNotFound)
	m.ObserveSearch(czdb.SearchModeBTree, 1*time.Microsecond, czerr.ErrCorrupt)

	m.IncrementCacheLookups(true)
	m.IncrementCacheLookups(true)
	m.IncrementCacheLookups(false)

	got, err := promtest.GatherAndCount(
		reg,
		"czdb_searcher_search_duration_seconds",
		"czdb_searcher_searches_total",
		"czdb_searcher_cache_lookups_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestNewSearcher_duplicate(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := metrics.NewSearcher(metrics.Namespace, reg)
	require.NoError(t, err)

	_, err = metrics.NewSearcher(metrics.Namespace, reg)
	assert.Error(t, err)
}
