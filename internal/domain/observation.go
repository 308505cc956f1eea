package domain

// ObservationType enumerates what an ingested observation updates.
type ObservationType string

const (
	// MeasureSample records one sample into a histogram.
	MeasureSample ObservationType = "measure"
	// CounterDelta increments a counter.
	CounterDelta ObservationType = "counter"
)

// Observation is a single sample or counter increment pushed by a search worker.
type Observation struct {
	Value *float64 `json:"value,omitempty"`
	Delta *int64   `json:"delta,omitempty"`
	Key   string   `json:"key"`
	MType string   `json:"type"`
}
