// Package ranking scales a series of averages against its own maximum.
package ranking

import (
	"math"
	"sort"

	"github.com/vshulcz/enginestats/internal/domain"
)

// Max returns the largest Avg of the series, or 0 for an empty series.
func Max(entries []domain.RankedEntry) float64 {
	var m float64
	for _, e := range entries {
		m = max(m, e.Avg)
	}
	return m
}

// Normalize returns a copy of entries with Percentage = floor(Avg/max*100),
// kept within [0, 100]. Every percentage is 0 when the maximum is not positive.
func Normalize(entries []domain.RankedEntry) []domain.RankedEntry {
	out := make([]domain.RankedEntry, len(entries))
	copy(out, entries)
	top := Max(out)
	for i := range out {
		out[i].Percentage = 0
		if top > 0 && out[i].Avg > 0 {
			out[i].Percentage = min(int(math.Floor(out[i].Avg/top*100)), 100)
		}
	}
	return out
}

// Ascending sorts entries by Avg, smallest first, keeping input order on ties.
func Ascending(entries []domain.RankedEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Avg < entries[j].Avg })
}

// Descending sorts entries by Avg, largest first, keeping input order on ties.
func Descending(entries []domain.RankedEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Avg > entries[j].Avg })
}

// Rank normalizes entries and orders them; the result is a fresh slice.
func Rank(entries []domain.RankedEntry, descending bool) []domain.RankedEntry {
	out := Normalize(entries)
	if descending {
		Descending(out)
	} else {
		Ascending(out)
	}
	return out
}
