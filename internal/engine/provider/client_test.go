package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(srv *httptest.Server) *Client {
	return NewClient(5*time.Second).WithHTTPClient(srv.Client()).WithBackoff(3, time.Millisecond)
}

func TestGetJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value": 42}`))
	}))
	defer srv.Close()

	var out struct{ Value int }
	if err := testClient(srv).GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Value != 42 {
		t.Errorf("value = %d", out.Value)
	}
}

func TestGetJSON_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(srv)
	var out map[string]any
	if err := c.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if c.ConsecutiveRateLimits() != 0 {
		t.Errorf("rate limit counter not reset: %d", c.ConsecutiveRateLimits())
	}
}

func TestGetJSON_GivesUpOnPersistentRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(srv)
	var out map[string]any
	err := c.GetJSON(context.Background(), srv.URL, &out)
	var rl *RateLimitError
	if !errors.As(err, &rl) || rl.StatusCode != http.StatusForbidden {
		t.Fatalf("err = %v, want RateLimitError 403", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
	if c.ConsecutiveRateLimits() != 3 {
		t.Errorf("consecutive = %d, want 3", c.ConsecutiveRateLimits())
	}
}

func TestGetJSON_NoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var out map[string]any
	err := testClient(srv).GetJSON(context.Background(), srv.URL, &out)
	if err == nil || IsRateLimit(err) {
		t.Fatalf("err = %v, want plain error", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestGetJSON_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out map[string]any
	if err := testClient(srv).GetJSON(context.Background(), srv.URL, &out); err == nil {
		t.Fatal("expected decode error")
	}
}
