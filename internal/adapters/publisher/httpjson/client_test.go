package httpjson

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/misc"
	"github.com/vshulcz/enginestats/internal/services/recorder"
)

func fastClient(t *testing.T, addr string, hc *http.Client, key string) *Client {
	t.Helper()
	c, err := New(addr, hc, key)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.backoff = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	return c
}

func inflate(t *testing.T, r *http.Request) []byte {
	t.Helper()
	if r.Header.Get("Content-Encoding") != "gzip" {
		t.Errorf("Content-Encoding=%q want gzip", r.Header.Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(r.Body)
	if err != nil {
		t.Errorf("gzip reader: %v", err)
		return nil
	}
	defer zr.Close()
	b, err := io.ReadAll(zr)
	if err != nil {
		t.Errorf("inflate: %v", err)
	}
	return b
}

func TestNew_NormalizeBaseAndTimeout(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{"no_scheme_host_port", "localhost:8080", "http://localhost:8080"},
		{"http_scheme", "http://example.com:9000", "http://example.com:9000"},
		{"https_scheme", "https://api.local", "https://api.local"},
		{"trailing_slash_trim", "http://x:1///", "http://x:1"},
		{"with_path_kept", "http://x:1/base", "http://x:1/base"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.addr, nil, "")
			if err != nil {
				t.Fatalf("New error: %v", err)
			}
			if got := c.base.String(); got != tc.want {
				t.Fatalf("base=%q want %q", got, tc.want)
			}
			if c.hc.Timeout != 10*time.Second {
				t.Fatalf("default timeout = %v, want 10s", c.hc.Timeout)
			}
		})
	}

	if _, err := New("http://%zz", nil, ""); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestClient_Endpoints(t *testing.T) {
	c, err := New("http://x:1/base", nil, "")
	if err != nil {
		t.Fatal(err)
	}
	tests := map[string]string{
		samplesPath:          "http://x:1/base/api/v1/samples",
		searchesPath:         "http://x:1/base/api/v1/searches",
		runPath("bing"):      "http://x:1/base/api/v1/engines/bing/runs",
		runPath("wiki data"): "http://x:1/base/api/v1/engines/wiki%20data/runs",
	}
	for path, want := range tests {
		if got := c.endpoint(path); got != want {
			t.Errorf("endpoint(%q)=%q want %q", path, got, want)
		}
	}
}

func TestClient_SendEngineRun(t *testing.T) {
	const key = "secret"
	var (
		gotPath string
		gotRun  recorder.EngineRun
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body := inflate(t, r)
		if want := misc.SumSHA256(body, key); r.Header.Get("HashSHA256") != want {
			t.Errorf("hash=%q want %q", r.Header.Get("HashSHA256"), want)
		}
		if err := json.Unmarshal(body, &gotRun); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"samples":8,"counters":2}`)
	}))
	defer srv.Close()

	c := fastClient(t, srv.URL, srv.Client(), key)
	run := recorder.EngineRun{Engine: "bing", TimeTotal: 0.4, Results: 3, Score: 2}
	sum, err := c.SendEngineRun(context.Background(), run)
	if err != nil {
		t.Fatalf("SendEngineRun: %v", err)
	}
	if sum != (recorder.Summary{Samples: 8, Counters: 2}) {
		t.Errorf("summary=%+v", sum)
	}
	if gotPath != "/api/v1/engines/bing/runs" || gotRun != run {
		t.Errorf("server saw %s %+v", gotPath, gotRun)
	}

	if _, err := c.SendEngineRun(context.Background(), recorder.EngineRun{Engine: " "}); !errors.Is(err, domain.ErrInvalidKey) {
		t.Errorf("blank engine err = %v", err)
	}
}

func TestClient_SendSamples(t *testing.T) {
	t.Run("empty batch is a noop", func(t *testing.T) {
		hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			t.Fatal("no request expected")
			return nil, nil
		})}
		c := fastClient(t, "http://example", hc, "")
		if sum, err := c.SendSamples(context.Background(), nil); err != nil || sum != (recorder.Summary{}) {
			t.Fatalf("sum=%+v err=%v", sum, err)
		}
	})

	t.Run("no hash without key, gzip answer", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("HashSHA256") != "" {
				t.Errorf("unexpected hash header")
			}
			var batch []domain.Observation
			if err := json.Unmarshal(inflate(t, r), &batch); err != nil || len(batch) != 2 {
				t.Errorf("batch=%+v err=%v", batch, err)
			}
			w.Header().Set("Content-Encoding", "gzip")
			zw := gzip.NewWriter(w)
			_, _ = io.WriteString(zw, `{"samples":1,"counters":1}`)
			_ = zw.Close()
		}))
		defer srv.Close()

		v, d := 0.3, int64(1)
		c := fastClient(t, srv.URL, srv.Client(), "")
		sum, err := c.SendSamples(context.Background(), []domain.Observation{
			{Key: "search.time", MType: "measure", Value: &v},
			{Key: "bing.error", MType: "counter", Delta: &d},
		})
		if err != nil || sum.Samples != 1 || sum.Counters != 1 {
			t.Fatalf("sum=%+v err=%v", sum, err)
		}
	})
}

func TestClient_StatusHandling(t *testing.T) {
	tests := []struct {
		name      string
		codes     []int
		wantCalls int
		wantCode  int
	}{
		{"ok first try", []int{200}, 1, 0},
		{"503 then ok", []int{503, 200}, 2, 0},
		{"429 then 502 then ok", []int{429, 502, 200}, 3, 0},
		{"retries exhausted", []int{503}, 4, 503},
		{"404 is final", []int{404}, 1, 404},
		{"400 is final", []int{400}, 1, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				mu    sync.Mutex
				calls int
			)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				mu.Lock()
				code := tt.codes[min(calls, len(tt.codes)-1)]
				calls++
				mu.Unlock()
				if code != http.StatusOK {
					http.Error(w, "nope", code)
					return
				}
				_, _ = io.WriteString(w, `{"samples":3,"counters":0}`)
			}))
			defer srv.Close()

			c := fastClient(t, srv.URL, srv.Client(), "")
			_, err := c.SendSearch(context.Background(), recorder.SearchRun{Total: 0.2})

			mu.Lock()
			gotCalls := calls
			mu.Unlock()
			if gotCalls != tt.wantCalls {
				t.Errorf("calls=%d want %d", gotCalls, tt.wantCalls)
			}
			if tt.wantCode == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var se *StatusError
			if !errors.As(err, &se) || se.Code != tt.wantCode {
				t.Fatalf("err=%v want status %d", err, tt.wantCode)
			}
		})
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClient_RetryOnNetworkErrors(t *testing.T) {
	var calls int
	steps := []func() (*http.Response, error){
		func() (*http.Response, error) { return nil, &net.OpError{Op: "dial", Err: syscall.ECONNRESET} },
		func() (*http.Response, error) { return nil, &url.Error{Op: "Post", URL: "http://x", Err: timeoutErr{}} },
		func() (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(`{"samples":3,"counters":0}`)),
			}, nil
		},
	}
	hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		step := steps[min(calls, len(steps)-1)]
		calls++
		return step()
	})}

	c := fastClient(t, "http://example", hc, "")
	if _, err := c.SendSearch(context.Background(), recorder.SearchRun{Total: 1}); err != nil {
		t.Fatalf("SendSearch: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls=%d want 3", calls)
	}
}

func TestClient_ContextCancel(t *testing.T) {
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}
	})}
	c := fastClient(t, "http://example", hc, "")
	c.backoff = []time.Duration{time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.SendSearch(ctx, recorder.SearchRun{Total: 1})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v want deadline exceeded", err)
	}
}

func Test_isRetryableHTTP(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"status_502", &StatusError{Code: 502}, true},
		{"status_503", &StatusError{Code: 503}, true},
		{"status_504", &StatusError{Code: 504}, true},
		{"status_429", &StatusError{Code: 429}, true},
		{"status_400", &StatusError{Code: 400}, false},
		{"status_404", &StatusError{Code: 404}, false},
		{"netOpError", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"urlErrorTimeout", &url.Error{Op: "Get", URL: "http://x", Err: timeoutErr{}}, true},
		{"connReset", syscall.ECONNRESET, true},
		{"brokenPipe", fmt.Errorf("write: %w", syscall.EPIPE), true},
		{"permanentGeneric", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableHTTP(tt.err); got != tt.want {
				t.Fatalf("isRetryableHTTP(%T)=%v want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestGzipBytes(t *testing.T) {
	for _, in := range [][]byte{nil, []byte(`{"a":1}`), bytes.Repeat([]byte("x"), 1<<16)} {
		buf, err := gzipBytes(in)
		if err != nil {
			t.Fatalf("gzipBytes: %v", err)
		}
		zr, err := gzip.NewReader(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("reader: %v", err)
		}
		out, err := io.ReadAll(zr)
		if err != nil {
			t.Fatalf("inflate: %v", err)
		}
		if !bytes.Equal(out, in) {
			t.Fatalf("round trip mismatch: %d bytes vs %d", len(out), len(in))
		}
		bufferPool.Put(buf)
	}
}

func TestStatusError_Message(t *testing.T) {
	if got := (&StatusError{Code: 404, Body: "not found"}).Error(); got != "server status: 404 Not Found: not found" {
		t.Errorf("got %q", got)
	}
	if got := (&StatusError{Code: 503}).Error(); got != "server status: 503 Service Unavailable" {
		t.Errorf("got %q", got)
	}
}
