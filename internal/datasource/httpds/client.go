// Package httpds fetches input tables over HTTP(S) with retry and backoff, so
// an annotation file or DE table can be read straight from object storage or
// a static file host.
package httpds

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Config configures the client. Zero values get defaults:
//   - Timeout:        5m (whole download, bodies can be large)
//   - MaxRetries:     0
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type Config struct {
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	MaxRetries int

	// InitialBackoff is the wait before the first retry. Each retry doubles it
	// up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Headers are added to every request (for example an Authorization token).
	Headers http.Header

	// Transport is an optional custom RoundTripper.
	Transport http.RoundTripper
}

// Client wraps an http.Client with retry and backoff behavior.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	headers        http.Header

	// wait is injectable to make tests fast and deterministic.
	wait func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a Client from Config, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		headers:        cfg.Headers.Clone(),
		wait:           waitContext,
	}
}

// Get issues a GET for url, retrying transport errors, 429 and 5xx. The
// returned response has a 2xx status and the caller must close its body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if url == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}

	attempts := c.maxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		for k, vs := range c.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			lastErr = fmt.Errorf("httpds: GET %s: %w", url, err)
		case isRetryableStatus(resp.StatusCode):
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("httpds: GET %s: retryable status %d", url, resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			_ = resp.Body.Close()
			return nil, fmt.Errorf("httpds: GET %s: status %d", url, resp.StatusCode)
		default:
			return resp, nil
		}

		if attempt+1 >= attempts {
			break
		}
		if err := c.wait(ctx, backoffDuration(c.initialBackoff, attempt, c.maxBackoff)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// isRetryableStatus treats 5xx and 429 as transient; everything else is final.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns initial * 2^attempt clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		return min(initial, max)
	}
	d := initial << attempt
	if d > max || d <= 0 {
		return max
	}
	return d
}

// waitContext sleeps for d but returns early with ctx.Err() on cancellation.
func waitContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
