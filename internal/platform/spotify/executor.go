package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"releaseingest/internal/platform/clock"
)

// ErrExhaustedRetries is returned when every attempt failed without a response to hand back.
var ErrExhaustedRetries = errors.New("spotify: retries exhausted")

const (
	DefaultMaxRetries       = 3
	DefaultInitialBackoff   = time.Second
	DefaultRateLimitWaitCap = 2 * time.Minute

	maxBackoffShift = 20
)

type ExecutorConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	RateLimitWaitCap  time.Duration
	RequestsPerSecond float64 // 0 disables the steady-state limiter
}

// Executor issues upstream requests with bounded retry for failures and
// capped, upstream-directed waits for 429 responses.
type Executor struct {
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	initialBackoff time.Duration
	waitCap        time.Duration
	logger         *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewExecutor(httpClient *http.Client, cfg ExecutorConfig, logger *slog.Logger) *Executor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.RateLimitWaitCap <= 0 {
		cfg.RateLimitWaitCap = DefaultRateLimitWaitCap
	}
	e := &Executor{
		httpClient:     httpClient,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		waitCap:        cfg.RateLimitWaitCap,
		logger:         logger,
		sleep:          clock.Sleep,
		now:            time.Now,
	}
	if cfg.RequestsPerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return e
}

// Execute sends req until it succeeds, the retry budget runs out, or ctx is done.
// A non-2xx response on the final attempt is returned as-is; callers inspect the status.
// 429 responses do not consume the retry budget.
func (e *Executor) Execute(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	throttles := 0

	for attempt := 0; attempt <= e.maxRetries; {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		attemptReq, err := cloneRequest(ctx, req)
		if err != nil {
			return nil, err
		}

		resp, err := e.httpClient.Do(attemptReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt == e.maxRetries {
				break
			}
			wait := e.backoff(attempt)
			e.logger.Warn("upstream request failed, retrying",
				"path", req.URL.Path, "attempt", attempt, "wait", wait, "error", err)
			if err := e.sleep(ctx, wait); err != nil {
				return nil, err
			}
			attempt++
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := e.throttleWait(resp.Header, throttles)
			discard(resp)
			throttles++
			e.logger.Info("upstream throttled, waiting",
				"path", req.URL.Path, "attempt", attempt, "wait", wait)
			if err := e.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}
		throttles = 0

		if isSuccess(resp.StatusCode) || attempt == e.maxRetries {
			return resp, nil
		}

		lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		discard(resp)
		wait := e.backoff(attempt)
		e.logger.Warn("upstream request failed, retrying",
			"path", req.URL.Path, "attempt", attempt, "status", resp.StatusCode, "wait", wait)
		if err := e.sleep(ctx, wait); err != nil {
			return nil, err
		}
		attempt++
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrExhaustedRetries, e.maxRetries+1, lastErr)
}

// backoff returns initialBackoff * 2^n.
func (e *Executor) backoff(n int) time.Duration {
	if n > maxBackoffShift {
		n = maxBackoffShift
	}
	return e.initialBackoff * time.Duration(1<<uint(n))
}

// throttleWait prefers the server's Retry-After and falls back to exponential
// backoff over consecutive throttles. The result never exceeds waitCap.
func (e *Executor) throttleWait(h http.Header, throttles int) time.Duration {
	wait, ok := parseRetryAfter(h.Get("Retry-After"), e.now())
	if !ok {
		wait = e.backoff(throttles)
	}
	if wait > e.waitCap {
		wait = e.waitCap
	}
	return wait
}

// parseRetryAfter accepts delta-seconds or an HTTP-date.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := when.Sub(now)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

func cloneRequest(ctx context.Context, req *http.Request) (*http.Request, error) {
	out := req.Clone(ctx)
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		out.Body = body
	}
	return out, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
