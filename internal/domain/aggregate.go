package domain

// EngineReadings is the raw material read from the store for one engine.
type EngineReadings struct {
	Name          string
	TimeRequest   Measure
	TimeSearch    Measure
	TimeCallback  Measure
	TimeAppend    Measure
	TimeTotal     Measure
	ResultCount   Measure
	BandwidthUp   Measure
	BandwidthDown Measure
	SearchCount   int64
	ScoreCount    int64
	Errors        int64
	ErrorsTimeout int64
	ErrorsRequest int64
}

// EngineAggregate holds the derived statistics of one engine for a single dashboard request.
type EngineAggregate struct {
	Name              string  `json:"name"`
	TimeTotalDetail   []int   `json:"time_total_detail"`
	TimeRequest       float64 `json:"time_request"`
	TimeSearch        float64 `json:"time_search"`
	TimeCallback      float64 `json:"time_callback"`
	TimeAppend        float64 `json:"time_append"`
	TimeTotal         float64 `json:"time_total"`
	TimeTotalMeasured float64 `json:"time_total_measured"`
	ResultCountAvg    float64 `json:"result_count_avg"`
	ResultCount       float64 `json:"result_count"`
	ResultSamples     int64   `json:"result_samples"`
	SearchCount       int64   `json:"search_count"`
	ScoreCount        int64   `json:"score_count"`
	Score             float64 `json:"score"`
	ScorePerResult    float64 `json:"score_per_result"`
	BandwidthUp       float64 `json:"bandwidth_up"`
	BandwidthDown     float64 `json:"bandwidth_down"`
	ErrorCount        int64   `json:"error_count"`
	ErrorTimeout      int64   `json:"error_timeout_count"`
	ErrorRequests     int64   `json:"error_requests_count"`
	ErrorOther        int64   `json:"error_other_count"`
}

// NewEngineAggregate derives a consistent aggregate from raw readings.
// TimeTotal is the sum of the phase averages, not the stored total measure.
func NewEngineAggregate(r EngineReadings) EngineAggregate {
	a := EngineAggregate{
		Name:              r.Name,
		TimeRequest:       r.TimeRequest.Average(),
		TimeSearch:        r.TimeSearch.Average(),
		TimeCallback:      r.TimeCallback.Average(),
		TimeAppend:        r.TimeAppend.Average(),
		TimeTotalMeasured: r.TimeTotal.Average(),
		TimeTotalDetail:   r.TimeTotal.QuantilePercentages(),
		ResultCountAvg:    r.ResultCount.Average(),
		ResultCount:       r.ResultCount.Sum,
		ResultSamples:     r.ResultCount.Count,
		SearchCount:       r.SearchCount,
		ScoreCount:        r.ScoreCount,
		BandwidthUp:       r.BandwidthUp.Average(),
		BandwidthDown:     r.BandwidthDown.Average(),
		ErrorCount:        r.Errors,
		ErrorTimeout:      r.ErrorsTimeout,
		ErrorRequests:     r.ErrorsRequest,
		ErrorOther:        r.Errors - r.ErrorsRequest - r.ErrorsTimeout,
	}
	a.TimeTotal = a.TimeRequest + a.TimeSearch + a.TimeCallback
	if a.SearchCount > 0 {
		a.Score = float64(a.ScoreCount) / float64(a.SearchCount)
	}
	if a.ResultCountAvg > 0 {
		a.ScorePerResult = a.Score / a.ResultCountAvg
	}
	return a
}

// ErrorPercent returns count*100/SearchCount with integer truncation, or 0 without searches.
func (a EngineAggregate) ErrorPercent(count int64) int {
	if a.SearchCount <= 0 {
		return 0
	}
	return int(count * 100 / a.SearchCount)
}
