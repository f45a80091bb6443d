// Package metrics contains the Prometheus implementations of the metrics
// interfaces of the CZDB searcher.
package metrics

// Namespace is the default namespace of the searcher metrics.
const Namespace = "czdb"

// Subsystem names of the searcher metrics.
const (
	subsystemSearcher = "searcher"
)

// Constants that should be kept in sync with the labels in the metrics
// methods.
const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "error"
)

// BoolString returns "1" for true and "0" for false.
func BoolString(cond bool) (s string) {
	if cond {
		return "1"
	}

	return "0"
}
