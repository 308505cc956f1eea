package domain

// Snapshot is the full content of a store, keyed by MetricKey.String().
type Snapshot struct {
	Measures map[string]Measure `json:"measures"`
	Counters map[string]int64   `json:"counters"`
}
