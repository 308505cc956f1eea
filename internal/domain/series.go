package domain

// RankedEntry is one bar of a legacy statistics series.
type RankedEntry struct {
	Name       string  `json:"name"`
	Avg        float64 `json:"avg"`
	Percentage int     `json:"percentage"`
}

// RankedSeries is a titled, ordered list of ranked entries.
type RankedSeries struct {
	Title   string        `json:"title"`
	Entries []RankedEntry `json:"entries"`
}
