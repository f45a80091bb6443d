package czdb

import "time"

// Metrics is an interface that is used for the collection of the searcher
// statistics.
type Metrics interface {
	// ObserveSearch records one search with its mode, duration, and outcome.
	// err is nil for successful searches.
	ObserveSearch(m SearchMode, dur time.Duration, err error)

	// IncrementCacheLookups increments the number of result cache lookups.
	IncrementCacheLookups(hit bool)
}

// EmptyMetrics is the implementation of the [Metrics] interface that does
// nothing.
type EmptyMetrics struct{}

// type check
var _ Metrics = EmptyMetrics{}

// ObserveSearch implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) ObserveSearch(_ SearchMode, _ time.Duration, _ error) {}

// IncrementCacheLookups implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) IncrementCacheLookups(_ bool) {}
