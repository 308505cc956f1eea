// Package memory implements an in-memory metric store.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/ports"
)

type histogram struct {
	buckets []int64
	width   float64
	sum     float64
	count   int64
}

// Store keeps histograms and counters in memory with coarse-grained RW locking.
// Configuring an existing measure or resetting an existing counter replaces it.
type Store struct {
	measures map[string]*histogram
	counters map[string]int64
	mu       sync.RWMutex
}

var _ ports.MetricStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		measures: make(map[string]*histogram),
		counters: make(map[string]int64),
	}
}

// ConfigureMeasure registers (or re-registers) a histogram with size buckets of the given width.
func (s *Store) ConfigureMeasure(_ context.Context, width float64, size int, key domain.MetricKey) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidKey, key.String())
	}
	if width <= 0 || size <= 0 {
		return fmt.Errorf("measure %s: width and size must be positive", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.measures[key.String()] = &histogram{buckets: make([]int64, size), width: width}
	return nil
}

// ResetCounter creates the counter or sets it back to zero.
func (s *Store) ResetCounter(_ context.Context, key domain.MetricKey) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidKey, key.String())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key.String()] = 0
	return nil
}

// RecordSample adds a sample to a configured histogram.
func (s *Store) RecordSample(_ context.Context, key domain.MetricKey, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.measures[key.String()]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownMetric, key)
	}
	h.buckets[domain.BucketIndex(value, h.width, len(h.buckets))]++
	h.sum += value
	h.count++
	return nil
}

// IncrementCounter adds delta to a configured counter.
func (s *Store) IncrementCounter(_ context.Context, key domain.MetricKey, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key.String()
	if _, ok := s.counters[k]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownMetric, key)
	}
	s.counters[k] += delta
	return nil
}

// Measure returns a copy of the histogram so callers never see later writes.
func (s *Store) Measure(_ context.Context, key domain.MetricKey) (domain.Measure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.measures[key.String()]
	if !ok {
		return domain.Measure{}, fmt.Errorf("%w: %s", domain.ErrUnknownMetric, key)
	}
	return domain.Measure{
		Buckets: append([]int64(nil), h.buckets...),
		Width:   h.width,
		Sum:     h.sum,
		Count:   h.count,
	}, nil
}

// Counter returns the current counter value.
func (s *Store) Counter(_ context.Context, key domain.MetricKey) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.counters[key.String()]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownMetric, key)
	}
	return v, nil
}

// Ping reports that the in-memory store is not backed by a real database.
func (*Store) Ping(context.Context) error {
	return errors.New("db not configured")
}

// Snapshot copies every histogram and counter.
func (s *Store) Snapshot(context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := domain.Snapshot{
		Measures: make(map[string]domain.Measure, len(s.measures)),
		Counters: make(map[string]int64, len(s.counters)),
	}
	for k, h := range s.measures {
		snap.Measures[k] = domain.Measure{
			Buckets: append([]int64(nil), h.buckets...),
			Width:   h.width,
			Sum:     h.sum,
			Count:   h.count,
		}
	}
	for k, v := range s.counters {
		snap.Counters[k] = v
	}
	return snap, nil
}

// Restore loads saved values into keys that are already configured with the
// same layout. Other entries are skipped and counted in the returned number.
func (s *Store) Restore(_ context.Context, snap domain.Snapshot) (int, error) {
	skipped := 0
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, m := range snap.Measures {
		h, ok := s.measures[k]
		if !ok || h.width != m.Width || len(h.buckets) != len(m.Buckets) {
			skipped++
			continue
		}
		copy(h.buckets, m.Buckets)
		h.sum = m.Sum
		h.count = m.Count
	}
	for k, v := range snap.Counters {
		if _, ok := s.counters[k]; !ok {
			skipped++
			continue
		}
		s.counters[k] = v
	}
	return skipped, nil
}
