// Path: internal/scraper/scraper.go
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"rank-sync/internal/config"
	"rank-sync/internal/logging"
	"rank-sync/internal/metrics"
	"rank-sync/internal/payload"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 16 << 20

// RetryPolicy is a fixed-delay bounded retry: MaxAttempts tries with Delay
// between consecutive tries and no wait after the last one.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// PolicyFromConfig builds the retry policy of a run.
func PolicyFromConfig(cfg config.SyncConfig) RetryPolicy {
	return RetryPolicy{MaxAttempts: cfg.MaxRetries, Delay: cfg.RetryDelay()}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchResult holds the payload returned by Client.Fetch.
type FetchResult struct {
	Payload payload.RawPayload
	// Fallback is set when the payload was read from the fallback file
	// instead of the requested URL.
	Fallback bool
	// Attempts is the number of GETs made.
	Attempts int
}

// Client is a retrying client for the ranking API.
type Client struct {
	client       *http.Client
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker[[]byte]
	policy       RetryPolicy
	fallbackFile string
	userAgent    string
	sleep        Sleeper
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithSleeper replaces the wait used between attempts.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// NewClient creates and configures a new Client.
func NewClient(cfg config.ScraperConfig, policy RetryPolicy, fallbackFile string, opts ...Option) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.BurstLimit
	if burst < 1 {
		burst = 1
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		client:       &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(limit, burst),
		breaker:      newBreaker(cfg.BreakerFailures),
		policy:       policy,
		fallbackFile: fallbackFile,
		userAgent:    cfg.UserAgent,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newBreaker returns nil when failures is zero, which disables breaking.
// Only transport errors and 5xx responses count toward tripping; a 4xx
// means one chart is unavailable, not that the upstream is down.
func newBreaker(failures int) *gobreaker.CircuitBreaker[[]byte] {
	if failures <= 0 {
		return nil
	}
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "ranking-api",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		IsSuccessful: countsAsHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
}

func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code < http.StatusInternalServerError
}

// Fetch GETs url and decodes the body, retrying per the policy. When every
// attempt fails and a fallback file exists, its contents are returned
// instead, whatever url was asked for. Otherwise a *FetchError is returned.
func (c *Client) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	attempts := c.policy.attempts()
	var lastErr error

	for i := 1; i <= attempts; i++ {
		raw, err := c.attempt(ctx, url)
		if err == nil {
			return &FetchResult{Payload: raw, Attempts: i}, nil
		}
		lastErr = err
		logging.Warn().Err(err).Str("url", url).Int("attempt", i).Int("max_attempts", attempts).Msg("fetch attempt failed")

		if ctx.Err() != nil {
			return nil, &FetchError{URL: url, Attempts: i, Err: ctx.Err()}
		}
		if i < attempts {
			if err := c.sleep(ctx, c.policy.Delay); err != nil {
				return nil, &FetchError{URL: url, Attempts: i, Err: err}
			}
		}
	}

	if c.fallbackFile != "" {
		raw, found, err := c.readFallback()
		if found && err == nil {
			metrics.FallbackUsed.Inc()
			logging.Warn().Str("url", url).Str("fallback", c.fallbackFile).Msg("serving fallback payload")
			return &FetchResult{Payload: raw, Fallback: true, Attempts: attempts}, nil
		}
		if err != nil {
			lastErr = errors.Join(lastErr, err)
		}
	}

	return nil, &FetchError{URL: url, Attempts: attempts, Err: lastErr}
}

// attempt performs one rate-limited GET and decodes the body.
func (c *Client) attempt(ctx context.Context, url string) (payload.RawPayload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := c.get(ctx, url)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		metrics.FetchAttempts.WithLabelValues(outcome).Inc()
		return nil, err
	}

	raw, err := payload.Decode(body)
	if err != nil {
		metrics.FetchAttempts.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.FetchAttempts.WithLabelValues("success").Inc()
	return raw, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if c.breaker == nil {
		return c.doGET(ctx, url)
	}
	return c.breaker.Execute(func() ([]byte, error) {
		return c.doGET(ctx, url)
	})
}

func (c *Client) doGET(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// readFallback reports found=false when the file does not exist.
func (c *Client) readFallback() (payload.RawPayload, bool, error) {
	body, err := os.ReadFile(c.fallbackFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, true, fmt.Errorf("read fallback %s: %w", c.fallbackFile, err)
	}
	raw, err := payload.Decode(body)
	if err != nil {
		return nil, true, fmt.Errorf("fallback %s: %w", c.fallbackFile, err)
	}
	return raw, true, nil
}
