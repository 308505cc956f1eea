package keys

import "example.com/internal/domain"

const engine = "bing"

func keys(dynamic string) []domain.MetricKey {
	return []domain.MetricKey{
		domain.Key(engine, "time", "total"),
		domain.Key(dynamic, "score"),
		domain.Key("search.time"), // want `metric key part "search.time" contains a dot`
		domain.Key(engine, ""),    // want "empty metric key part"
	}
}
