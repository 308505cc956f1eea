// Package prom mirrors metric store writes into Prometheus collectors.
//
// A key "bing.time.total" becomes the histogram enginestats_time_total{subject="bing"};
// counters get a _total suffix. Reads are always served by the wrapped store.
package prom

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/ports"
)

const (
	namespace    = "enginestats"
	subjectLabel = "subject"
)

// Mirror decorates a MetricStore and exports every successful write.
type Mirror struct {
	ports.MetricStore
	reg      prometheus.Registerer
	logger   *zap.Logger
	hists    map[string]*prometheus.HistogramVec
	counters map[string]*prometheus.CounterVec
	mu       sync.Mutex
}

var _ ports.MetricStore = (*Mirror)(nil)

// New wraps inner. A nil registerer falls back to the default Prometheus registry.
func New(inner ports.MetricStore, reg prometheus.Registerer, logger *zap.Logger) *Mirror {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{
		MetricStore: inner,
		reg:         reg,
		logger:      logger,
		hists:       make(map[string]*prometheus.HistogramVec),
		counters:    make(map[string]*prometheus.CounterVec),
	}
}

// ConfigureMeasure configures the wrapped store and starts a fresh histogram series.
func (m *Mirror) ConfigureMeasure(ctx context.Context, width float64, size int, key domain.MetricKey) error {
	if err := m.MetricStore.ConfigureMeasure(ctx, width, size, key); err != nil {
		return err
	}
	name, subject := family(key)
	m.mu.Lock()
	defer m.mu.Unlock()
	vec, ok := m.hists[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      "Samples recorded for " + name + ".",
			Buckets:   prometheus.LinearBuckets(width, width, size),
		}, []string{subjectLabel})
		registered, err := register(m.reg, vec)
		if err != nil {
			m.logger.Warn("histogram not exported", zap.String("metric", name), zap.Error(err))
			return nil
		}
		vec = registered
		m.hists[name] = vec
	}
	vec.DeleteLabelValues(subject)
	vec.WithLabelValues(subject)
	return nil
}

// ResetCounter resets the wrapped counter and restarts the exported one at zero.
func (m *Mirror) ResetCounter(ctx context.Context, key domain.MetricKey) error {
	if err := m.MetricStore.ResetCounter(ctx, key); err != nil {
		return err
	}
	name, subject := family(key)
	m.mu.Lock()
	defer m.mu.Unlock()
	vec, ok := m.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name + "_total",
			Help:      "Running total of " + name + ".",
		}, []string{subjectLabel})
		registered, err := register(m.reg, vec)
		if err != nil {
			m.logger.Warn("counter not exported", zap.String("metric", name), zap.Error(err))
			return nil
		}
		vec = registered
		m.counters[name] = vec
	}
	vec.DeleteLabelValues(subject)
	vec.WithLabelValues(subject)
	return nil
}

// RecordSample records into the wrapped store, then observes the exported histogram.
func (m *Mirror) RecordSample(ctx context.Context, key domain.MetricKey, value float64) error {
	if err := m.MetricStore.RecordSample(ctx, key, value); err != nil {
		return err
	}
	name, subject := family(key)
	m.mu.Lock()
	vec := m.hists[name]
	m.mu.Unlock()
	if vec != nil {
		vec.WithLabelValues(subject).Observe(value)
	}
	return nil
}

// IncrementCounter increments the wrapped counter. Prometheus counters only grow,
// so non-positive deltas are not exported.
func (m *Mirror) IncrementCounter(ctx context.Context, key domain.MetricKey, delta int64) error {
	if err := m.MetricStore.IncrementCounter(ctx, key, delta); err != nil {
		return err
	}
	if delta <= 0 {
		return nil
	}
	name, subject := family(key)
	m.mu.Lock()
	vec := m.counters[name]
	m.mu.Unlock()
	if vec != nil {
		vec.WithLabelValues(subject).Add(float64(delta))
	}
	return nil
}

// family splits a key into a metric name and the subject label value.
func family(key domain.MetricKey) (name, subject string) {
	if len(key) == 0 {
		return "", ""
	}
	parts := make([]string, 0, len(key)-1)
	for _, p := range key[1:] {
		parts = append(parts, sanitize(p))
	}
	return strings.Join(parts, "_"), key[0]
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// register adds c to reg, reusing an identical collector that is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}
