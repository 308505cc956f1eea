// Package httpjson is the worker side client of the ingestion API: it posts
// gzipped, optionally signed JSON and retries transient failures.
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
	"net/url"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/misc"
	"github.com/vshulcz/enginestats/internal/services/recorder"
)

const (
	samplesPath  = "/api/v1/samples"
	searchesPath = "/api/v1/searches"
)

// Client pushes observations and runs to the statistics server.
type Client struct {
	base    *url.URL
	hc      *http.Client
	key     string
	backoff []time.Duration
}

var (
	gzipWriterPool = sync.Pool{
		New: func() any {
			return gzip.NewWriter(io.Discard)
		},
	}
	bufferPool = misc.NewBufferPool(4 << 20)
)

// New normalizes the base address, configures the HTTP client, and returns a Client instance.
func New(serverAddr string, hc *http.Client, key string) (*Client, error) {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	u, err := url.Parse(normalizeBase(serverAddr))
	if err != nil {
		return nil, err
	}
	return &Client{base: u, hc: hc, key: strings.TrimSpace(key), backoff: misc.DefaultBackoff}, nil
}

func normalizeBase(s string) string {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return strings.TrimRight(s, "/")
	}
	return "http://" + strings.TrimRight(s, "/")
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

func runPath(engine string) string {
	return "/api/v1/engines/" + url.PathEscape(engine) + "/runs"
}

// SendSamples posts a batch of raw observations.
func (c *Client) SendSamples(ctx context.Context, batch []domain.Observation) (recorder.Summary, error) {
	if len(batch) == 0 {
		return recorder.Summary{}, nil
	}
	return c.doGzJSON(ctx, samplesPath, batch)
}

// SendEngineRun posts what one engine reported for one search.
func (c *Client) SendEngineRun(ctx context.Context, run recorder.EngineRun) (recorder.Summary, error) {
	name := strings.TrimSpace(run.Engine)
	if name == "" {
		return recorder.Summary{}, fmt.Errorf("%w: empty engine name", domain.ErrInvalidKey)
	}
	return c.doGzJSON(ctx, runPath(name), run)
}

// SendSearch posts the global timings of one search.
func (c *Client) SendSearch(ctx context.Context, run recorder.SearchRun) (recorder.Summary, error) {
	return c.doGzJSON(ctx, searchesPath, run)
}

func (c *Client) doGzJSON(ctx context.Context, path string, payload any) (sum recorder.Summary, retErr error) {
	plain, err := json.Marshal(payload)
	if err != nil {
		return sum, fmt.Errorf("marshal: %w", err)
	}

	var hashHeader string
	if c.key != "" {
		hashHeader = misc.SumSHA256(plain, c.key)
	}

	gzBody, err := gzipBytes(plain)
	if err != nil {
		return sum, err
	}
	defer bufferPool.Put(gzBody)
	body := gzBody.Bytes()

	resp, err := c.sendWithRetry(ctx, func() (*http.Request, error) {
		return c.newGzJSONRequest(ctx, path, body, hashHeader)
	})
	if err != nil {
		return sum, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close response body: %w", cerr)
		}
	}()

	raw, err := readBody(resp)
	if err != nil {
		return sum, err
	}
	if err := checkHTTPStatus(resp, raw); err != nil {
		return sum, err
	}
	if err := json.Unmarshal(raw, &sum); err != nil {
		return sum, fmt.Errorf("decode summary: %w", err)
	}
	return sum, nil
}

// StatusError is a non-200 answer of the server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server status: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("server status: %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

func isRetryableHTTP(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusBadGateway, http.StatusServiceUnavailable,
			http.StatusGatewayTimeout, http.StatusTooManyRequests:
			return true
		default:
			return false
		}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// gzipBytes compresses src into a pooled buffer; return it with bufferPool.Put.
func gzipBytes(src []byte) (*bytes.Buffer, error) {
	buf := bufferPool.Get()
	zw, ok := gzipWriterPool.Get().(*gzip.Writer)
	if !ok {
		zw = gzip.NewWriter(io.Discard)
	}
	defer gzipWriterPool.Put(zw)
	zw.Reset(buf)
	if _, err := zw.Write(src); err != nil {
		_ = zw.Close()
		bufferPool.Put(buf)
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		bufferPool.Put(buf)
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf, nil
}

func (c *Client) newGzJSONRequest(ctx context.Context, path string, body []byte, hashHeader string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	if hashHeader != "" {
		req.Header.Set("HashSHA256", hashHeader)
	}
	return req, nil
}

// sendWithRetry retries transport failures and retryable statuses; the
// returned response always has status 200 or a non-retryable code.
func (c *Client) sendWithRetry(ctx context.Context, mkReq func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	op := func() error {
		req, err := mkReq()
		if err != nil {
			return err
		}
		r, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		if se := retryableStatus(r); se != nil {
			_, _ = io.Copy(io.Discard, r.Body)
			_ = r.Body.Close()
			return se
		}
		resp = r
		return nil
	}
	if err := misc.Retry(ctx, c.backoff, isRetryableHTTP, op); err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	return resp, nil
}

func retryableStatus(r *http.Response) error {
	se := &StatusError{Code: r.StatusCode}
	if isRetryableHTTP(se) {
		return se
	}
	return nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Encoding")), "gzip") {
		gr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("bad gzip: %w", err)
		}
		defer func() {
			_ = gr.Close()
		}()
		r = gr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

func checkHTTPStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}
