package domain

// Measure is a read-only snapshot of a bounded histogram.
type Measure struct {
	Buckets []int64 `json:"buckets"`
	Width   float64 `json:"width"`
	Sum     float64 `json:"sum"`
	Count   int64   `json:"count"`
}

// Average returns Sum/Count, or 0 for an empty measure.
func (m Measure) Average() float64 {
	if m.Count == 0 {
		return 0
	}
	return m.Sum / float64(m.Count)
}

// QuantilePercentages returns, for every bucket boundary, the integer percentage of
// samples that fell at or below that bucket.
func (m Measure) QuantilePercentages() []int {
	out := make([]int, len(m.Buckets))
	if m.Count == 0 {
		return out
	}
	var seen int64
	for i, hits := range m.Buckets {
		seen += hits
		out[i] = int(seen * 100 / m.Count)
	}
	return out
}

// BucketIndex maps a sample onto a bucket of the given width, clamped to [0, size-1].
func BucketIndex(value, width float64, size int) int {
	if size <= 0 || width <= 0 || !(value > 0) {
		return 0
	}
	q := int(value / width)
	if q >= size {
		return size - 1
	}
	return q
}
