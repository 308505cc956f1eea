package ports

import (
	"context"

	"github.com/vshulcz/enginestats/internal/domain"
)

// MetricStore records and serves the raw measures and counters of every engine.
// Reads of a key that was never configured fail with domain.ErrUnknownMetric.
// Whether configuring an existing key clears it is defined by each adapter.
type MetricStore interface {
	ConfigureMeasure(ctx context.Context, width float64, size int, key domain.MetricKey) error
	ResetCounter(ctx context.Context, key domain.MetricKey) error

	RecordSample(ctx context.Context, key domain.MetricKey, value float64) error
	IncrementCounter(ctx context.Context, key domain.MetricKey, delta int64) error

	Measure(ctx context.Context, key domain.MetricKey) (domain.Measure, error)
	Counter(ctx context.Context, key domain.MetricKey) (int64, error)

	Ping(ctx context.Context) error
}
