package metrics

import (
	"fmt"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	czdb "github.com/cz88/czdb-go"
	"github.com/prometheus/client_golang/prometheus"
)

// Searcher is the Prometheus-based implementation of the [czdb.Metrics]
// interface.
type Searcher struct {
	// searchDuration is a histogram of search durations partitioned by the
	// search mode.
	searchDuration *prometheus.HistogramVec

	// searches is a counter of finished searches partitioned by the search
	// mode and the result class.
	searches *prometheus.CounterVec

	// cacheLookups is a counter of result cache lookups.  "hit" is either
	// "1" (item found) or "0" (item not found).
	cacheLookups *prometheus.CounterVec
}

// type check
var _ czdb.Metrics = (*Searcher)(nil)

// NewSearcher registers the searcher metrics in reg and returns a properly
// initialized [Searcher].
func NewSearcher(namespace string, reg prometheus.Registerer) (m *Searcher, err error) {
	const (
		searchDuration = "search_duration_seconds"
		searches       = "searches_total"
		cacheLookups   = "cache_lookups_total"
	)

	m = &Searcher{
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:      searchDuration,
			Namespace: namespace,
			Subsystem: subsystemSearcher,
			Help:      "Time elapsed on one search.",
			Buckets:   []float64{0.000_001, 0.000_01, 0.000_1, 0.001, 0.01},
		}, []string{"mode"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      searches,
			Namespace: namespace,
			Subsystem: subsystemSearcher,
			Help:      "The number of finished searches by mode and result.",
		}, []string{"mode", "result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      cacheLookups,
			Namespace: namespace,
			Subsystem: subsystemSearcher,
			Help: "The number of result cache lookups. " +
				"hit=1 means that a cached item was found.",
		}, []string{"hit"}),
	}

	var errs []error
	for _, c := range []prometheus.Collector{
		m.searchDuration,
		m.searches,
		m.cacheLookups,
	} {
		err = reg.Register(c)
		if err != nil {
			errs = append(errs, fmt.Errorf("registering searcher metrics: %w", err))
		}
	}

	if err = errors.Join(errs...); err != nil {
		return nil, err
	}

	return m, nil
}

// ObserveSearch implements the [czdb.Metrics] interface for *Searcher.
func (m *Searcher) ObserveSearch(mode czdb.SearchMode, dur time.Duration, err error) {
	result := resultOK
	switch {
	case err == nil:
		// Go on.
	case errors.Is(err, czdb.ErrNotFound):
		result = resultNotFound
	default:
		result = resultError
	}

	modeStr := mode.String()
	m.searches.WithLabelValues(modeStr, result).Inc()
	m.searchDuration.WithLabelValues(modeStr).Observe(dur.Seconds())
}

// IncrementCacheLookups implements the [czdb.Metrics] interface for
// *Searcher.
func (m *Searcher) IncrementCacheLookups(hit bool) {
	m.cacheLookups.WithLabelValues(BoolString(hit)).Inc()
}
