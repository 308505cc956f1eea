package ginserver

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/vshulcz/enginestats/internal/adapters/http/ginserver/middlewares"
	"github.com/vshulcz/enginestats/internal/adapters/store/memory"
	"github.com/vshulcz/enginestats/internal/adapters/store/prom"
	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/i18n"
	"github.com/vshulcz/enginestats/internal/misc"
	"github.com/vshulcz/enginestats/internal/ports"
	"github.com/vshulcz/enginestats/internal/services/audit"
	"github.com/vshulcz/enginestats/internal/services/recorder"
	"github.com/vshulcz/enginestats/internal/services/schema"
	"github.com/vshulcz/enginestats/internal/services/stats"
)

type engines []domain.Engine

func (e engines) Engines() []domain.Engine { return e }

type capturePub struct {
	events []audit.Event
	mu     sync.Mutex
}

func (p *capturePub) Publish(_ context.Context, evt audit.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *capturePub) last() (audit.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return audit.Event{}, false
	}
	return p.events[len(p.events)-1], true
}

type serverOpts struct {
	store   ports.MetricStore
	pub     audit.Publisher
	metrics http.Handler
	key     string
}

func newServer(t *testing.T, opts serverOpts) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if opts.store == nil {
		opts.store = memory.New()
	}
	reg := engines{{Name: "bing"}, {Name: "google"}}
	if err := schema.Initialize(context.Background(), opts.store, reg); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	cat, err := i18n.New(language.English)
	if err != nil {
		t.Fatalf("i18n: %v", err)
	}

	h := NewHandler(
		opts.store,
		stats.New(opts.store, reg, zap.NewNop()),
		recorder.New(opts.store, opts.pub, zap.NewNop()),
		cat,
	)
	r := NewRouter(
		h,
		opts.metrics,
		middlewares.ZapLogger(zap.NewNop()),
		middlewares.GzipRequest(),
		middlewares.GzipResponse(),
		middlewares.HashSHA256(opts.key),
	)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doReq(t *testing.T, method, url string, body []byte, hdr map[string]string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	data := readMaybeGzip(t, resp)
	return resp, data
}

func readMaybeGzip(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	var r io.Reader = resp.Body
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Encoding")), "gzip") {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			t.Fatalf("gzip reader: %v", err)
		}
		defer zr.Close()
		r = zr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func gzipBytes(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

var jsonHdr = map[string]string{"Content-Type": "application/json"}

func TestHTTP_Ingestion(t *testing.T) {
	srv := newServer(t, serverOpts{})

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantBody string
	}{
		{
			name:     "sample batch",
			path:     "/api/v1/samples",
			body:     `[{"key":"bing.time.search","type":"measure","value":0.42},{"key":"bing.search.count","type":"counter","delta":2}]`,
			wantCode: http.StatusOK,
			wantBody: `{"samples":1,"counters":1}`,
		},
		{
			name:     "unknown key",
			path:     "/api/v1/samples",
			body:     `[{"key":"yahoo.time.search","type":"measure","value":1}]`,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "unknown type",
			path:     "/api/v1/samples",
			body:     `[{"key":"bing.score","type":"gauge","value":1}]`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "negative delta",
			path:     "/api/v1/samples",
			body:     `[{"key":"bing.score","type":"counter","delta":-1}]`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing value",
			path:     "/api/v1/samples",
			body:     `[{"key":"bing.time.search","type":"measure"}]`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "empty batch",
			path:     "/api/v1/samples",
			body:     `[]`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown field",
			path:     "/api/v1/samples",
			body:     `[{"key":"bing.score","type":"counter","delta":1,"extra":true}]`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "broken json",
			path:     "/api/v1/samples",
			body:     `[{`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "engine run",
			path:     "/api/v1/engines/google/runs",
			body:     `{"time_request":0.01,"time_search":0.3,"time_callback":0.05,"time_total":0.4,"results":10,"score":7}`,
			wantCode: http.StatusOK,
			wantBody: `{"samples":8,"counters":2}`,
		},
		{
			name:     "engine failure",
			path:     "/api/v1/engines/google/runs",
			body:     `{"failure":"timeout"}`,
			wantCode: http.StatusOK,
			wantBody: `{"samples":0,"counters":2}`,
		},
		{
			name:     "engine failure of unknown kind",
			path:     "/api/v1/engines/google/runs",
			body:     `{"failure":"dns"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unregistered engine",
			path:     "/api/v1/engines/yahoo/runs",
			body:     `{"time_total":0.4,"results":1}`,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "search timings",
			path:     "/api/v1/searches",
			body:     `{"total":0.5,"search":0.4,"render":0.05}`,
			wantCode: http.StatusOK,
			wantBody: `{"samples":3,"counters":0}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doReq(t, http.MethodPost, srv.URL+tt.path, []byte(tt.body), jsonHdr)
			if resp.StatusCode != tt.wantCode {
				t.Fatalf("status=%d want %d; body=%q", resp.StatusCode, tt.wantCode, string(body))
			}
			if tt.wantBody != "" && strings.TrimSpace(string(body)) != tt.wantBody {
				t.Fatalf("body=%s want %s", body, tt.wantBody)
			}
		})
	}

	t.Run("wrong method", func(t *testing.T) {
		resp, _ := doReq(t, http.MethodGet, srv.URL+"/api/v1/samples", nil, nil)
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Fatalf("status=%d want 405", resp.StatusCode)
		}
	})

	t.Run("gzip request body", func(t *testing.T) {
		body := gzipBytes(t, []byte(`{"total":0.2,"search":0.1,"render":0.01}`))
		resp, out := doReq(t, http.MethodPost, srv.URL+"/api/v1/searches", body,
			map[string]string{"Content-Type": "application/json", "Content-Encoding": "gzip"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status=%d body=%q", resp.StatusCode, out)
		}
	})
}

func seedRuns(t *testing.T, srv *httptest.Server) {
	t.Helper()
	runs := []struct{ engine, body string }{
		{"bing", `{"time_search":0.2,"time_total":0.3,"results":4,"score":8}`},
		{"bing", `{"time_search":0.4,"time_total":0.5,"results":6,"score":4}`},
		{"google", `{"time_search":0.1,"time_total":0.2,"results":10,"score":30}`},
		{"google", `{"failure":"requests"}`},
	}
	for _, r := range runs {
		resp, body := doReq(t, http.MethodPost, srv.URL+"/api/v1/engines/"+r.engine+"/runs", []byte(r.body), jsonHdr)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("seed %s: status=%d body=%q", r.engine, resp.StatusCode, body)
		}
	}
	resp, body := doReq(t, http.MethodPost, srv.URL+"/api/v1/searches", []byte(`{"total":0.45,"search":0.3,"render":0.02}`), jsonHdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("seed search: status=%d body=%q", resp.StatusCode, body)
	}
}

func TestHTTP_Stats(t *testing.T) {
	srv := newServer(t, serverOpts{})
	seedRuns(t, srv)

	t.Run("legacy series", func(t *testing.T) {
		resp, body := doReq(t, http.MethodGet, srv.URL+"/stats", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status=%d body=%q", resp.StatusCode, body)
		}
		var series []domain.RankedSeries
		if err := json.Unmarshal(body, &series); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(series) != 5 {
			t.Fatalf("series=%d want 5", len(series))
		}
		if series[0].Title != i18n.PageLoads || len(series[0].Entries) != 2 {
			t.Fatalf("page loads = %+v", series[0])
		}
		if e := series[0].Entries[0]; e.Name != "google" || e.Percentage != 50 {
			t.Errorf("fastest engine = %+v, want google at 50%%", e)
		}
		errs := series[4].Entries
		if len(errs) != 1 || errs[0].Name != "google" || errs[0].Percentage != 100 {
			t.Errorf("errors = %+v", errs)
		}
	})

	t.Run("localized by query", func(t *testing.T) {
		_, body := doReq(t, http.MethodGet, srv.URL+"/stats?lang=fr", nil, nil)
		var series []domain.RankedSeries
		if err := json.Unmarshal(body, &series); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if series[0].Title != "Chargement des pages (sec)" {
			t.Fatalf("title=%q", series[0].Title)
		}
	})

	t.Run("localized by header", func(t *testing.T) {
		_, body := doReq(t, http.MethodGet, srv.URL+"/stats/engines", nil,
			map[string]string{"Accept-Language": "de-DE,de;q=0.9"})
		var d domain.Dashboard
		if err := json.Unmarshal(body, &d); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if d.Title != "Suchmaschinenstatistik" {
			t.Fatalf("title=%q", d.Title)
		}
	})

	t.Run("dashboard", func(t *testing.T) {
		resp, body := doReq(t, http.MethodGet, srv.URL+"/stats/engines", nil,
			map[string]string{"Accept-Encoding": "gzip"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status=%d body=%q", resp.StatusCode, body)
		}
		if ce := resp.Header.Get("Content-Encoding"); !strings.Contains(ce, "gzip") {
			t.Errorf("Content-Encoding=%q want gzip", ce)
		}
		var d domain.Dashboard
		if err := json.Unmarshal(body, &d); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if d.Count != 2 || len(d.TicksSearchTime) != 30 {
			t.Fatalf("count=%d ticks=%d", d.Count, len(d.TicksSearchTime))
		}
		if d.SearchTime.Average != 0.45 {
			t.Errorf("search time average=%v want 0.45", d.SearchTime.Average)
		}
	})

	t.Run("html page", func(t *testing.T) {
		resp, body := doReq(t, http.MethodGet, srv.URL+"/", nil, map[string]string{"Accept-Encoding": "gzip"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status=%d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Fatalf("Content-Type=%q", ct)
		}
		for _, want := range []string{"Engine stats", "bing", "google", "Scores per result"} {
			if !strings.Contains(string(body), want) {
				t.Errorf("html missing %q", want)
			}
		}
	})

	t.Run("404 is not gzipped", func(t *testing.T) {
		resp, _ := doReq(t, http.MethodGet, srv.URL+"/unknown", nil, map[string]string{"Accept-Encoding": "gzip"})
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status=%d want 404", resp.StatusCode)
		}
		if ce := resp.Header.Get("Content-Encoding"); ce != "" {
			t.Fatalf("404 must not be gzipped, got %q", ce)
		}
	})
}

type brokenStore struct {
	*memory.Store
	fail atomic.Bool
}

func (s *brokenStore) Counter(ctx context.Context, key domain.MetricKey) (int64, error) {
	if s.fail.Load() {
		return 0, io.ErrUnexpectedEOF
	}
	return s.Store.Counter(ctx, key)
}

func (*brokenStore) Ping(context.Context) error { return nil }

func TestHTTP_StoreFailures(t *testing.T) {
	st := &brokenStore{Store: memory.New()}
	srv := newServer(t, serverOpts{store: st})

	resp, _ := doReq(t, http.MethodGet, srv.URL+"/ping", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ping status=%d want 200", resp.StatusCode)
	}

	st.fail.Store(true)
	for _, path := range []string{"/", "/stats", "/stats/engines"} {
		resp, _ := doReq(t, http.MethodGet, srv.URL+path, nil, nil)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("%s: status=%d want 500", path, resp.StatusCode)
		}
	}
	resp, _ = doReq(t, http.MethodPost, srv.URL+"/api/v1/samples",
		[]byte(`[{"key":"bing.score","type":"counter","delta":1}]`), jsonHdr)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("ingest status=%d want 500", resp.StatusCode)
	}
}

func TestHTTP_PingMemory(t *testing.T) {
	srv := newServer(t, serverOpts{})
	resp, _ := doReq(t, http.MethodGet, srv.URL+"/ping", nil, nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status=%d want 500", resp.StatusCode)
	}
}

func TestHTTP_AuditSource(t *testing.T) {
	pub := &capturePub{}
	srv := newServer(t, serverOpts{pub: pub})

	resp, _ := doReq(t, http.MethodPost, srv.URL+"/api/v1/engines/bing/runs",
		[]byte(`{"failure":"other"}`),
		map[string]string{"Content-Type": "application/json", "User-Agent": "worker/1.0"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	evt, ok := pub.last()
	if !ok {
		t.Fatal("no audit event published")
	}
	if evt.UserAgent != "worker/1.0" || evt.IPAddress != "127.0.0.1" {
		t.Errorf("source = %q %q", evt.IPAddress, evt.UserAgent)
	}
	if len(evt.Keys) != 2 || evt.Keys[0] != "bing.error" || evt.Keys[1] != "bing.error.other" {
		t.Errorf("keys = %v", evt.Keys)
	}
}

func TestHTTP_Signed(t *testing.T) {
	const key = "secret"
	srv := newServer(t, serverOpts{key: key})
	body := []byte(`{"total":0.3,"search":0.2,"render":0.01}`)

	resp, out := doReq(t, http.MethodPost, srv.URL+"/api/v1/searches", body, map[string]string{
		"Content-Type": "application/json",
		"HashSHA256":   misc.SumSHA256(body, key),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%q", resp.StatusCode, out)
	}
	if got := resp.Header.Get("HashSHA256"); got != misc.SumSHA256(out, key) {
		t.Fatalf("response hash=%q", got)
	}

	resp, _ = doReq(t, http.MethodPost, srv.URL+"/api/v1/searches", body, map[string]string{
		"Content-Type": "application/json",
		"HashSHA256":   "deadbeef",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("tampered status=%d want 400", resp.StatusCode)
	}
}

func TestHTTP_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	st := prom.New(memory.New(), reg, zap.NewNop())
	srv := newServer(t, serverOpts{
		store:   st,
		metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	seedRuns(t, srv)

	resp, body := doReq(t, http.MethodGet, srv.URL+"/metrics", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	for _, want := range []string{
		`enginestats_search_count_total{subject="bing"} 2`,
		`enginestats_time_total_count{subject="google"} 1`,
		`enginestats_time_count{subject="search"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
