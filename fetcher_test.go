package thirteenf

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

// newTestClient builds a client against a test server, with backoff sleeps
// recorded instead of slept.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var sleeps []time.Duration
	c := NewClient(
		WithUserAgent("Test Suite test@example.com"),
		WithBaseURL(srv.URL),
		WithDataBaseURL(srv.URL),
	)
	c.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return c, &sleeps
}

func TestFetch_Success(t *testing.T) {
	var gotUA, gotQuery string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = r.URL.RawQuery
		w.Write([]byte("hello"))
	}))

	params := url.Values{"action": {"getcompany"}}
	body, err := c.Fetch(context.Background(), "GET", c.baseURL+"/cgi-bin/browse-edgar", params)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "hello" {
		t.Fatalf("body = %q", body)
	}
	if gotUA != "Test Suite test@example.com" {
		t.Fatalf("User-Agent = %q", gotUA)
	}
	if gotQuery != "action=getcompany" {
		t.Fatalf("query = %q", gotQuery)
	}
}

func TestFetch_RetriesWithBackoff(t *testing.T) {
	var attempts atomic.Int64
	c, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("finally"))
	}))

	body, err := c.Fetch(context.Background(), "GET", c.baseURL+"/doc", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "finally" {
		t.Fatalf("body = %q", body)
	}
	if attempts.Load() != 3 {
		t.Fatalf("attempts = %d", attempts.Load())
	}

	// Exponential backoff: 4s before the second attempt, 8s before the third.
	want := []time.Duration{4 * time.Second, 8 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v", *sleeps)
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Fatalf("sleep %d = %v, want %v", i, (*sleeps)[i], d)
		}
	}
}

func TestFetch_RateLimitedCooldown(t *testing.T) {
	var attempts atomic.Int64
	c, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))

	body, err := c.Fetch(context.Background(), "GET", c.baseURL+"/doc", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "ok" {
		t.Fatalf("body = %q", body)
	}

	// A 429 sleeps the fixed 5s cooldown, then the generic 4s backoff runs
	// before the retry.
	want := []time.Duration{5 * time.Second, 4 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v", *sleeps)
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Fatalf("sleep %d = %v, want %v", i, (*sleeps)[i], d)
		}
	}
}

func TestFetch_ExhaustsRetries(t *testing.T) {
	var attempts atomic.Int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.Fetch(context.Background(), "GET", c.baseURL+"/doc", nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts.Load() != int64(maxAttempts) {
		t.Fatalf("attempts = %d, want %d", attempts.Load(), maxAttempts)
	}

	var statusErr *httpStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected httpStatusError, got %v", err)
	}
	if statusErr.status != http.StatusNotFound {
		t.Fatalf("status = %d", statusErr.status)
	}
}

func TestFetch_ContextCancelled(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	c.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, "GET", c.baseURL+"/doc", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// TestFetch_Pacing verifies outbound spacing through the real limiter:
// back-to-back requests are at least 100ms apart.
func TestFetch_Pacing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping pacing test in short mode")
	}

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := c.Fetch(context.Background(), "GET", c.baseURL+"/doc", nil); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("requests spaced %v apart, want >= 100ms", elapsed)
	}
}
