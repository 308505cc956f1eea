// Package stats derives per-engine statistics from the raw measures and counters.
//
// Reads are not atomic: live searches may update a counter between the reads of
// an engine's counters and histograms, so one snapshot can mix slightly different
// instants. Both views are built from the same aggregates and either succeed
// completely or return an error.
package stats

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/ports"
	"github.com/vshulcz/enginestats/internal/services/schema"
)

// Builder reads the metric store and assembles the statistics views.
type Builder struct {
	store    ports.MetricStore
	registry ports.EngineRegistry
	logger   *zap.Logger
}

// New wires a store and an engine registry into a Builder.
func New(store ports.MetricStore, registry ports.EngineRegistry, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{store: store, registry: registry, logger: logger}
}

// aggregates returns one aggregate per registered engine, in registry order.
func (b *Builder) aggregates(ctx context.Context) ([]domain.EngineAggregate, error) {
	engines := b.registry.Engines()
	out := make([]domain.EngineAggregate, 0, len(engines))
	for _, e := range engines {
		r, err := b.readEngine(ctx, e.Name)
		if err != nil {
			b.logger.Warn("engine stats derivation failed", zap.String("engine", e.Name), zap.Error(err))
			return nil, err
		}
		out = append(out, domain.NewEngineAggregate(r))
	}
	b.logger.Debug("engine stats derived", zap.Int("engines", len(out)))
	return out, nil
}

func (b *Builder) readEngine(ctx context.Context, name string) (domain.EngineReadings, error) {
	k := schema.Keys(name)
	r := domain.EngineReadings{Name: name}

	measures := []struct {
		key domain.MetricKey
		dst *domain.Measure
	}{
		{k.TimeRequest, &r.TimeRequest},
		{k.TimeSearch, &r.TimeSearch},
		{k.TimeCallback, &r.TimeCallback},
		{k.TimeAppend, &r.TimeAppend},
		{k.TimeTotal, &r.TimeTotal},
		{k.ResultCount, &r.ResultCount},
		{k.BandwidthUp, &r.BandwidthUp},
		{k.BandwidthDown, &r.BandwidthDown},
	}
	for _, m := range measures {
		v, err := b.store.Measure(ctx, m.key)
		if err != nil {
			return r, fmt.Errorf("read measure %s: %w", m.key, err)
		}
		*m.dst = v
	}

	counters := []struct {
		key domain.MetricKey
		dst *int64
	}{
		{k.SearchCount, &r.SearchCount},
		{k.Score, &r.ScoreCount},
		{k.Errors, &r.Errors},
		{k.ErrorTimeout, &r.ErrorsTimeout},
		{k.ErrorRequests, &r.ErrorsRequest},
	}
	for _, c := range counters {
		v, err := b.store.Counter(ctx, c.key)
		if err != nil {
			return r, fmt.Errorf("read counter %s: %w", c.key, err)
		}
		*c.dst = v
	}
	return r, nil
}

func (b *Builder) measure(ctx context.Context, key domain.MetricKey) (domain.Measure, error) {
	m, err := b.store.Measure(ctx, key)
	if err != nil {
		b.logger.Warn("global measure read failed", zap.Stringer("key", key), zap.Error(err))
		return domain.Measure{}, fmt.Errorf("read measure %s: %w", key, err)
	}
	return m, nil
}
