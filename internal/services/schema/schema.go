// Package schema declares every measure and counter tracked by the aggregator.
package schema

import (
	"context"
	"fmt"

	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/ports"
)

const (
	timeWidth      = 0.1
	timeBuckets    = 30
	resultWidth    = 1
	resultBuckets  = 100
	bandwidthWidth = 1024
	bandwidthSize  = 300
)

// Global search time measures.
var (
	SearchTime       = domain.Key(domain.GlobalSubject, "time")
	SearchTimeSearch = domain.Key(domain.GlobalSubject, "time", "search")
	SearchTimeRender = domain.Key(domain.GlobalSubject, "time", "render")
)

// EngineKeys names every metric kept for one engine.
type EngineKeys struct {
	SearchCount   domain.MetricKey
	ResultCount   domain.MetricKey
	TimeRequest   domain.MetricKey
	TimeSearch    domain.MetricKey
	TimeCallback  domain.MetricKey
	TimeAppend    domain.MetricKey
	TimeTotal     domain.MetricKey
	BandwidthUp   domain.MetricKey
	BandwidthDown domain.MetricKey
	Score         domain.MetricKey
	ErrorTimeout  domain.MetricKey
	ErrorRequests domain.MetricKey
	ErrorOther    domain.MetricKey
	Errors        domain.MetricKey
}

// Keys returns the metric keys of the named engine.
func Keys(engine string) EngineKeys {
	return EngineKeys{
		SearchCount:   domain.Key(engine, "search", "count"),
		ResultCount:   domain.Key(engine, "result", "count"),
		TimeRequest:   domain.Key(engine, "time", "request"),
		TimeSearch:    domain.Key(engine, "time", "search"),
		TimeCallback:  domain.Key(engine, "time", "callback"),
		TimeAppend:    domain.Key(engine, "time", "append"),
		TimeTotal:     domain.Key(engine, "time", "total"),
		BandwidthUp:   domain.Key(engine, "bandwidth", "up"),
		BandwidthDown: domain.Key(engine, "bandwidth", "down"),
		Score:         domain.Key(engine, "score"),
		ErrorTimeout:  domain.Key(engine, "error", "timeout"),
		ErrorRequests: domain.Key(engine, "error", "requests"),
		ErrorOther:    domain.Key(engine, "error", "other"),
		Errors:        domain.Key(engine, "error"),
	}
}

type measureDef struct {
	key   domain.MetricKey
	width float64
	size  int
}

func (k EngineKeys) measures() []measureDef {
	return []measureDef{
		{k.ResultCount, resultWidth, resultBuckets},
		// request: time spent building the outgoing request
		{k.TimeRequest, timeWidth, timeBuckets},
		// search: the HTTP round trip
		{k.TimeSearch, timeWidth, timeBuckets},
		// callback, append and total are recorded on every search, even when the
		// response callback was skipped, so their counts stay in step with search
		{k.TimeCallback, timeWidth, timeBuckets},
		{k.TimeAppend, timeWidth, timeBuckets},
		{k.TimeTotal, timeWidth, timeBuckets},
		{k.BandwidthUp, bandwidthWidth, bandwidthSize},
		// only the main request is counted; an engine may issue several
		{k.BandwidthDown, bandwidthWidth, bandwidthSize},
	}
}

func (k EngineKeys) counters() []domain.MetricKey {
	return []domain.MetricKey{
		k.SearchCount,
		k.Score,
		k.ErrorTimeout,
		k.ErrorRequests,
		k.ErrorOther,
		k.Errors,
	}
}

// Initialize configures the global measures and the full metric set of every engine.
// It is meant to run once at startup; what a second call does to existing data
// is up to the store (the memory store replaces, Postgres keeps matching rows).
// An empty engine list only configures the global measures.
func Initialize(ctx context.Context, store ports.MetricStore, engines []domain.Engine) error {
	for _, key := range []domain.MetricKey{SearchTime, SearchTimeSearch, SearchTimeRender} {
		if err := store.ConfigureMeasure(ctx, timeWidth, timeBuckets, key); err != nil {
			return fmt.Errorf("configure %s: %w", key, err)
		}
	}
	for _, e := range engines {
		if !domain.ValidEngineName(e.Name) {
			return fmt.Errorf("%w: engine name %q", domain.ErrInvalidKey, e.Name)
		}
		keys := Keys(e.Name)
		for _, m := range keys.measures() {
			if err := store.ConfigureMeasure(ctx, m.width, m.size, m.key); err != nil {
				return fmt.Errorf("configure %s: %w", m.key, err)
			}
		}
		for _, c := range keys.counters() {
			if err := store.ResetCounter(ctx, c); err != nil {
				return fmt.Errorf("reset %s: %w", c, err)
			}
		}
	}
	return nil
}
