// Package remoteaudit forwards audit events to an HTTP collector.
package remoteaudit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vshulcz/enginestats/internal/misc"
	"github.com/vshulcz/enginestats/internal/services/audit"
)

var errServer = errors.New("audit collector unavailable")

// Client POSTs audit events, signing them when a key is set and retrying 5xx answers.
type Client struct {
	hc       *http.Client
	endpoint string
	key      string
	backoff  []time.Duration
}

var _ audit.Observer = (*Client)(nil)

// New validates the endpoint URL and returns a Client that POSTs audit events there.
func New(rawURL, key string, hc *http.Client) (*Client, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("audit url is empty")
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("invalid audit url: %w", err)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{endpoint: rawURL, key: key, hc: hc, backoff: misc.DefaultBackoff}, nil
}

// Notify serializes the audit event and issues an HTTP POST to the configured endpoint.
func (c *Client) Notify(ctx context.Context, evt audit.Event) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	retryable := func(err error) bool { return errors.Is(err, errServer) }
	return misc.Retry(ctx, c.backoff, retryable, func() error {
		return c.post(ctx, payload)
	})
}

func (c *Client) post(ctx context.Context, payload []byte) (retErr error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set("HashSHA256", misc.SumSHA256(payload, c.key))
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("audit post: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close audit response: %w", cerr)
		}
	}()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain audit response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", errServer, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("audit post status %d", resp.StatusCode)
	}
	return nil
}
