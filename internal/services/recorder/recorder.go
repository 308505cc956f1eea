// Package recorder validates and applies batches of observations pushed by search workers.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/ports"
	"github.com/vshulcz/enginestats/internal/services/audit"
)

// ErrEmptyBatch is returned when a batch carries no observation.
var ErrEmptyBatch = errors.New("empty batch")

// Summary counts what a batch changed.
type Summary struct {
	Samples  int `json:"samples"`
	Counters int `json:"counters"`
}

// Service applies observation batches to a metric store.
type Service struct {
	store  ports.MetricStore
	pub    audit.Publisher
	logger *zap.Logger
	now    func() time.Time
}

// New returns a Service. pub may be nil to disable auditing.
func New(store ports.MetricStore, pub audit.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, pub: pub, logger: logger, now: time.Now}
}

type write struct {
	key   domain.MetricKey
	value float64
	delta int64
	kind  domain.ObservationType
}

// Record validates the whole batch and checks every key before writing anything,
// so a malformed or unknown observation rejects the batch as a unit. Writes that
// fail midway (store outage) may leave the batch partially applied.
func (s *Service) Record(ctx context.Context, batch []domain.Observation) (Summary, error) {
	if len(batch) == 0 {
		return Summary{}, ErrEmptyBatch
	}

	writes := make([]write, 0, len(batch))
	for i, o := range batch {
		w, err := parse(o)
		if err != nil {
			return Summary{}, fmt.Errorf("observation #%d: %w", i, err)
		}
		writes = append(writes, w)
	}
	for _, w := range writes {
		if err := s.known(ctx, w); err != nil {
			return Summary{}, err
		}
	}

	var sum Summary
	keys := make([]string, 0, len(writes))
	for _, w := range writes {
		switch w.kind {
		case domain.MeasureSample:
			if err := s.store.RecordSample(ctx, w.key, w.value); err != nil {
				return sum, fmt.Errorf("record %s: %w", w.key, err)
			}
			sum.Samples++
		case domain.CounterDelta:
			if err := s.store.IncrementCounter(ctx, w.key, w.delta); err != nil {
				return sum, fmt.Errorf("increment %s: %w", w.key, err)
			}
			sum.Counters++
		}
		if k := w.key.String(); !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}

	s.logger.Debug("batch recorded",
		zap.Int("samples", sum.Samples),
		zap.Int("counters", sum.Counters),
	)
	if s.pub != nil {
		src := audit.SourceFromContext(ctx)
		s.pub.Publish(ctx, audit.Event{
			Timestamp: s.now().Unix(),
			Keys:      keys,
			Samples:   sum.Samples,
			Counters:  sum.Counters,
			IPAddress: src.IP,
			UserAgent: src.UserAgent,
		})
	}
	return sum, nil
}

func parse(o domain.Observation) (write, error) {
	key := domain.ParseKey(o.Key)
	if !key.Valid() {
		return write{}, fmt.Errorf("%w: %q", domain.ErrInvalidKey, o.Key)
	}
	switch domain.ObservationType(o.MType) {
	case domain.MeasureSample:
		if o.Value == nil || math.IsNaN(*o.Value) || math.IsInf(*o.Value, 0) || *o.Value < 0 {
			return write{}, fmt.Errorf("%w: %s needs a finite non-negative value", domain.ErrInvalidValue, key)
		}
		return write{key: key, value: *o.Value, kind: domain.MeasureSample}, nil
	case domain.CounterDelta:
		if o.Delta == nil || *o.Delta < 0 {
			return write{}, fmt.Errorf("%w: %s needs a non-negative delta", domain.ErrInvalidValue, key)
		}
		return write{key: key, delta: *o.Delta, kind: domain.CounterDelta}, nil
	default:
		return write{}, fmt.Errorf("%w: %q", domain.ErrInvalidType, o.MType)
	}
}

func (s *Service) known(ctx context.Context, w write) error {
	var err error
	switch w.kind {
	case domain.MeasureSample:
		_, err = s.store.Measure(ctx, w.key)
	case domain.CounterDelta:
		_, err = s.store.Counter(ctx, w.key)
	}
	if err != nil {
		return fmt.Errorf("check %s: %w", w.key, err)
	}
	return nil
}
