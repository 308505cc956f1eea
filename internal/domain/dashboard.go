package domain

// Dashboard is the payload of the detailed engine statistics page.
type Dashboard struct {
	Title           string            `json:"title"`
	TitleSearchPage string            `json:"title_search_page"`
	TicksSearchTime []float64         `json:"ticks_search_time"`
	Engines         []EngineAggregate `json:"engines"`
	SearchTime      SearchTimeChart   `json:"search_time"`
	Time            TimeChart         `json:"time"`
	Error           ErrorChart        `json:"error"`
	Score           ScoreChart        `json:"score"`
	Count           int               `json:"count"`
}

// SearchTimeLabels are the localized captions of the global search time chart.
type SearchTimeLabels struct {
	Title string `json:"title"`
	XAxis string `json:"xaxis"`
	YAxis string `json:"yaxis"`
}

// SearchTimeChart summarizes the global search time histogram.
type SearchTimeChart struct {
	Labels        SearchTimeLabels `json:"labels"`
	Values        []int            `json:"values"`
	Average       float64          `json:"average"`
	AverageSearch float64          `json:"average_search"`
	AverageRender float64          `json:"average_render"`
}

// TimeLabels are the localized captions of the per-engine time breakdown.
type TimeLabels struct {
	Title         string `json:"title"`
	XAxis         string `json:"xaxis"`
	SerieRequest  string `json:"serie_request"`
	SerieSearch   string `json:"serie_search"`
	SerieCallback string `json:"serie_callback"`
}

// TimeChart is the stacked per-phase time breakdown, one row per engine.
type TimeChart struct {
	Detail   map[string][]int `json:"detail"`
	Labels   TimeLabels       `json:"labels"`
	Engine   []string         `json:"engine"`
	Request  []float64        `json:"request"`
	Search   []float64        `json:"search"`
	Callback []float64        `json:"callback"`
	Total    []float64        `json:"total"`
	Height   float64          `json:"height"`
}

// ErrorLabels are the localized captions of the error breakdown.
type ErrorLabels struct {
	Title         string `json:"title"`
	XAxis         string `json:"xaxis"`
	SerieOther    string `json:"serie_other"`
	SerieRequests string `json:"serie_requests"`
	SerieTimeout  string `json:"serie_timeout"`
}

// ErrorChart holds error percentages relative to each engine's own search count.
type ErrorChart struct {
	Labels   ErrorLabels `json:"labels"`
	Engine   []string    `json:"engine"`
	Other    []int       `json:"other"`
	Requests []int       `json:"requests"`
	Timeout  []int       `json:"timeout"`
	Height   float64     `json:"height"`
}

// ScoreLabels are the localized captions of the score scatter chart.
type ScoreLabels struct {
	Title string `json:"title"`
	XAxis string `json:"xaxis"`
	YAxis string `json:"yaxis"`
}

// ScoreChart carries the laid out bubble points.
type ScoreChart struct {
	Labels ScoreLabels   `json:"labels"`
	Stat   []BubblePoint `json:"stat"`
}

// ChartHeight keeps per-row spacing constant regardless of the number of rows.
func ChartHeight(rows int) float64 {
	return float64(rows)*1.6 + 5
}
