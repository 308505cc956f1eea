package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/vshulcz/enginestats/internal/domain"
)

type configured struct {
	width float64
	size  int
}

type recordingStore struct {
	measures map[string]configured
	counters map[string]int
	failOn   string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{measures: map[string]configured{}, counters: map[string]int{}}
}

func (s *recordingStore) ConfigureMeasure(_ context.Context, width float64, size int, key domain.MetricKey) error {
	if key.String() == s.failOn {
		return errors.New("boom")
	}
	s.measures[key.String()] = configured{width: width, size: size}
	return nil
}

func (s *recordingStore) ResetCounter(_ context.Context, key domain.MetricKey) error {
	if key.String() == s.failOn {
		return errors.New("boom")
	}
	s.counters[key.String()]++
	return nil
}

func (*recordingStore) RecordSample(context.Context, domain.MetricKey, float64) error {
	return nil
}

func (*recordingStore) IncrementCounter(context.Context, domain.MetricKey, int64) error {
	return nil
}

func (*recordingStore) Measure(context.Context, domain.MetricKey) (domain.Measure, error) {
	return domain.Measure{}, nil
}

func (*recordingStore) Counter(context.Context, domain.MetricKey) (int64, error) {
	return 0, nil
}

func (*recordingStore) Ping(context.Context) error {
	return nil
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name         string
		engines      []domain.Engine
		wantMeasures int
		wantCounters int
	}{
		{"no engines", nil, 3, 0},
		{"one engine", []domain.Engine{{Name: "wikipedia"}}, 3 + 8, 6},
		{"two engines", []domain.Engine{{Name: "wikipedia"}, {Name: "bing"}}, 3 + 16, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newRecordingStore()
			if err := Initialize(context.Background(), st, tt.engines); err != nil {
				t.Fatalf("Initialize: %v", err)
			}
			if len(st.measures) != tt.wantMeasures {
				t.Errorf("measures = %d, want %d", len(st.measures), tt.wantMeasures)
			}
			if len(st.counters) != tt.wantCounters {
				t.Errorf("counters = %d, want %d", len(st.counters), tt.wantCounters)
			}
		})
	}
}

func TestInitialize_Layout(t *testing.T) {
	st := newRecordingStore()
	if err := Initialize(context.Background(), st, []domain.Engine{{Name: "ddg"}}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	want := map[string]configured{
		"search.time":        {0.1, 30},
		"search.time.search": {0.1, 30},
		"search.time.render": {0.1, 30},
		"ddg.result.count":   {1, 100},
		"ddg.time.request":   {0.1, 30},
		"ddg.time.search":    {0.1, 30},
		"ddg.time.callback":  {0.1, 30},
		"ddg.time.append":    {0.1, 30},
		"ddg.time.total":     {0.1, 30},
		"ddg.bandwidth.up":   {1024, 300},
		"ddg.bandwidth.down": {1024, 300},
	}
	for k, w := range want {
		got, ok := st.measures[k]
		if !ok {
			t.Errorf("measure %s not configured", k)
			continue
		}
		if got != w {
			t.Errorf("measure %s = %+v, want %+v", k, got, w)
		}
	}
	for _, k := range []string{
		"ddg.search.count", "ddg.score", "ddg.error",
		"ddg.error.timeout", "ddg.error.requests", "ddg.error.other",
	} {
		if st.counters[k] != 1 {
			t.Errorf("counter %s reset %d times, want 1", k, st.counters[k])
		}
	}
}

func TestInitialize_PropagatesStoreErrors(t *testing.T) {
	for _, failOn := range []string{"search.time.render", "ddg.time.total", "ddg.error"} {
		t.Run(failOn, func(t *testing.T) {
			st := newRecordingStore()
			st.failOn = failOn
			err := Initialize(context.Background(), st, []domain.Engine{{Name: "ddg"}})
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestInitialize_RejectsReservedEngineName(t *testing.T) {
	st := newRecordingStore()
	err := Initialize(context.Background(), st, []domain.Engine{{Name: "ddg"}, {Name: domain.GlobalSubject}})
	if !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("err = %v, want ErrInvalidKey", err)
	}
	if st.counters["search.error"] != 0 {
		t.Fatal("reserved engine keys were configured")
	}
}
