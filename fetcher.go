package thirteenf

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	Version = "0.1.0"

	// SEC allows at most 10 requests per second, so outbound calls are
	// spaced at least 100ms apart. Burst is 1: idle time does not earn the
	// right to burst.
	requestsPerSecond = 10

	// Retry policy: 3 attempts total, exponential backoff starting at 4s
	// capped at 10s, plus a fixed cooldown after an HTTP 429.
	maxAttempts       = 3
	backoffBase       = 4 * time.Second
	backoffCap        = 10 * time.Second
	rateLimitCooldown = 5 * time.Second

	defaultBaseURL     = "https://www.sec.gov"
	defaultDataBaseURL = "https://data.sec.gov"
)

// Client fetches documents from SEC EDGAR with rate limiting and retries.
// All pacing state lives on the instance; independent clients do not
// interfere with each other.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	baseURL    string
	dataURL    string
	log        *zap.Logger

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the identification string SEC requires on every
// request, e.g. "Sample Co admin@sample.com".
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// WithRateLimiter replaces the default 10 req/s limiter.
func WithRateLimiter(l *rate.Limiter) ClientOption {
	return func(c *Client) { c.limiter = l }
}

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// WithBaseURL overrides the www.sec.gov base URL (used in tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithDataBaseURL overrides the data.sec.gov base URL (used in tests).
func WithDataBaseURL(u string) ClientOption {
	return func(c *Client) { c.dataURL = u }
}

// NewClient creates a Client. A missing User-Agent is logged as a warning
// but does not block calls; SEC itself may reject unidentified traffic,
// which then surfaces as a retryable HTTP error.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		dataURL: defaultDataBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.sleep == nil {
		c.sleep = sleepCtx
	}
	if c.userAgent == "" {
		c.log.Warn("no User-Agent set; SEC may block unidentified requests")
	}
	return c
}

// httpStatusError marks HTTP error statuses so the retry loop can tell
// them apart from non-retryable failures like a cancelled context.
type httpStatusError struct {
	status int
	url    string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("SEC returned status %d for %s", e.status, e.url)
}

// Fetch performs an HTTP request against EDGAR and returns the raw body.
// Transport failures and HTTP error statuses are retried up to 3 attempts
// with exponential backoff; a successful-but-empty response is returned
// as-is. After retries are exhausted the last error is returned.
func (c *Client) Fetch(ctx context.Context, method, rawURL string, params url.Values) ([]byte, error) {
	reqURL := rawURL
	if len(params) > 0 {
		reqURL = rawURL + "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := backoffBase << (attempt - 2)
			if delay > backoffCap {
				delay = backoffCap
			}
			c.log.Debug("retrying request",
				zap.String("url", reqURL),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		body, err := c.do(ctx, method, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) do(ctx context.Context, method, reqURL string) ([]byte, error) {
	// Blocking pacing: every outbound request waits its turn, bursts are
	// never permitted even after idle periods.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.log.Warn("rate limited by SEC, cooling down", zap.String("url", reqURL))
		if err := c.sleep(ctx, rateLimitCooldown); err != nil {
			return nil, err
		}
		return nil, &httpStatusError{status: resp.StatusCode, url: reqURL}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{status: resp.StatusCode, url: reqURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
