package domain

import "encoding/json"

// BubblePoint is one engine on the score scatter chart.
// X is the result count and never moves; Y starts at the score per result.
type BubblePoint struct {
	Name  string
	X     float64
	Y     float64
	Time  float64
	Score float64
}

// MarshalJSON encodes the point as [x, y, time, name, score] for bubble renderers.
func (p BubblePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.X, p.Y, p.Time, p.Name, p.Score})
}
