package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	defaultRetries = 3
	baseBackoff    = 2 * time.Second
	maxBackoff     = 30 * time.Second
	jitterFactor   = 0.5

	userAgent = "geogrid/0.1 (search visibility scanner)"
)

// RateLimitError indicates the provider is throttling us.
type RateLimitError struct {
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (status %d)", e.StatusCode)
}

// IsRateLimit reports whether err is or wraps a *RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// Client fetches JSON documents, retrying rate-limited requests with
// exponential backoff and jitter.
type Client struct {
	http       *http.Client
	retries    int
	backoff    time.Duration
	rateLimits atomic.Int64
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		retries: defaultRetries,
		backoff: baseBackoff,
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// WithBackoff overrides the retry count and the first backoff interval.
func (c *Client) WithBackoff(retries int, base time.Duration) *Client {
	if retries > 0 {
		c.retries = retries
	}
	c.backoff = base
	return c
}

// ConsecutiveRateLimits returns how many rate limits happened since the last
// successful request.
func (c *Client) ConsecutiveRateLimits() int64 {
	return c.rateLimits.Load()
}

// statusChecker is implemented by response bodies that report failures in
// a status field of an HTTP 200 reply. A *RateLimitError from checkStatus is
// retried like a 429.
type statusChecker interface {
	checkStatus() error
}

// GetJSON performs a GET and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, reqURL string, out any) error {
	var lastErr error
	for attempt := range c.retries {
		err := c.fetch(ctx, reqURL, out)
		if err == nil {
			c.rateLimits.Store(0)
			return nil
		}

		lastErr = err
		if !IsRateLimit(err) {
			return err
		}
		c.rateLimits.Add(1)

		if attempt == c.retries-1 {
			break
		}
		backoff := c.backoff * time.Duration(1<<uint(attempt))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		jitter := time.Duration(float64(backoff) * jitterFactor * rand.Float64())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff + jitter):
		}
	}

	return lastErr
}

func (c *Client) fetch(ctx context.Context, reqURL string, out any) error {
	body, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if sc, ok := out.(statusChecker); ok {
		return sc.checkStatus()
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return nil, &RateLimitError{StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}
