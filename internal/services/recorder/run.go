package recorder

import (
	"context"
	"fmt"
	"strings"

	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/services/schema"
)

// Failure classifies why an engine request did not produce results.
type Failure string

const (
	NoFailure       Failure = ""
	FailureTimeout  Failure = "timeout"
	FailureRequests Failure = "requests"
	FailureOther    Failure = "other"
)

// EngineRun is what one engine reported for one search. Times are in seconds
// and sizes in bytes.
type EngineRun struct {
	Engine        string  `json:"engine"`
	Failure       Failure `json:"failure,omitempty"`
	TimeRequest   float64 `json:"time_request"`
	TimeSearch    float64 `json:"time_search"`
	TimeCallback  float64 `json:"time_callback"`
	TimeAppend    float64 `json:"time_append"`
	TimeTotal     float64 `json:"time_total"`
	BandwidthUp   float64 `json:"bandwidth_up"`
	BandwidthDown float64 `json:"bandwidth_down"`
	Results       int     `json:"results"`
	Score         int64   `json:"score"`
}

// SearchRun holds the timings of one whole search request.
type SearchRun struct {
	Total  float64 `json:"total"`
	Search float64 `json:"search"`
	Render float64 `json:"render"`
}

// Observations expands a run into the samples and counters it implies.
// A failed run counts the error and its kind but records no timing.
func (r EngineRun) Observations() ([]domain.Observation, error) {
	name := strings.TrimSpace(r.Engine)
	if !domain.ValidEngineName(name) {
		return nil, fmt.Errorf("%w: engine name %q", domain.ErrInvalidKey, r.Engine)
	}
	k := schema.Keys(name)

	if r.Failure != NoFailure {
		var kind domain.MetricKey
		switch r.Failure {
		case FailureTimeout:
			kind = k.ErrorTimeout
		case FailureRequests:
			kind = k.ErrorRequests
		case FailureOther:
			kind = k.ErrorOther
		default:
			return nil, fmt.Errorf("%w: unknown failure %q", domain.ErrInvalidType, r.Failure)
		}
		return []domain.Observation{counter(k.Errors, 1), counter(kind, 1)}, nil
	}

	return []domain.Observation{
		counter(k.SearchCount, 1),
		counter(k.Score, r.Score),
		sample(k.ResultCount, float64(r.Results)),
		sample(k.TimeRequest, r.TimeRequest),
		sample(k.TimeSearch, r.TimeSearch),
		sample(k.TimeCallback, r.TimeCallback),
		sample(k.TimeAppend, r.TimeAppend),
		sample(k.TimeTotal, r.TimeTotal),
		sample(k.BandwidthUp, r.BandwidthUp),
		sample(k.BandwidthDown, r.BandwidthDown),
	}, nil
}

// Observations returns the three global search time samples.
func (r SearchRun) Observations() []domain.Observation {
	return []domain.Observation{
		sample(schema.SearchTime, r.Total),
		sample(schema.SearchTimeSearch, r.Search),
		sample(schema.SearchTimeRender, r.Render),
	}
}

// RecordEngineRun records a single engine run as one batch.
func (s *Service) RecordEngineRun(ctx context.Context, run EngineRun) (Summary, error) {
	obs, err := run.Observations()
	if err != nil {
		return Summary{}, err
	}
	return s.Record(ctx, obs)
}

// RecordSearch records the global timings of one search as one batch.
func (s *Service) RecordSearch(ctx context.Context, run SearchRun) (Summary, error) {
	return s.Record(ctx, run.Observations())
}

func sample(key domain.MetricKey, v float64) domain.Observation {
	return domain.Observation{Key: key.String(), MType: string(domain.MeasureSample), Value: &v}
}

func counter(key domain.MetricKey, d int64) domain.Observation {
	return domain.Observation{Key: key.String(), MType: string(domain.CounterDelta), Delta: &d}
}
