// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package fitbit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/metrics"
	"github.com/tomtom215/sleepsight/internal/models"
)

const (
	// maxErrorBodySize limits how much of an error response is kept.
	maxErrorBodySize = 64 * 1024

	// maxBodySize limits a successful response. A full day of one-minute
	// heart rate samples is well under 1MB.
	maxBodySize = 16 * 1024 * 1024

	// maxRetryDelay caps Retry-After values.
	maxRetryDelay = 5 * time.Minute

	// maxBackoffShift caps the exponent of the 429 backoff.
	maxBackoffShift = 16
)

// Fetcher retrieves the raw body of one upstream call.
type Fetcher interface {
	Fetch(ctx context.Context, category models.Category, date models.Date, accessToken string) ([]byte, error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL         string
	Timeout         time.Duration
	RequestsPerHour int
	Burst           int
	MaxRetries      int
	RetryBaseDelay  time.Duration

	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// Client calls the upstream API.
//
// Features:
//   - Outbound token bucket shared by all callers (RequestsPerHour, Burst)
//   - HTTP 429 retry with exponential backoff, honouring Retry-After
//   - Typed errors: ErrTransport, ErrRateLimited, *UpstreamError, ErrInvalidRequest
//
// Waiting for a limiter token is bounded only by ctx. Each HTTP exchange is
// bounded by ClientConfig.Timeout.
//
// Safe for concurrent use.
type Client struct {
	builder        *Builder
	http           *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if cfg.RequestsPerHour > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerHour) / 3600.0)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	base := cfg.RetryBaseDelay
	if base <= 0 {
		base = time.Second
	}

	return &Client{
		builder:        NewBuilder(cfg.BaseURL),
		http:           httpClient,
		limiter:        rate.NewLimiter(limit, burst),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: base,
	}
}

// Builder returns the request builder used by c.
func (c *Client) Builder() *Builder {
	return c.builder
}

// Fetch performs the call for (category, date) and returns the body of a 2xx
// response.
func (c *Client) Fetch(ctx context.Context, category models.Category, date models.Date, accessToken string) ([]byte, error) {
	desc, err := c.builder.Build(category, date, accessToken)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.doRequestWithRateLimit(ctx, desc)
	if err != nil {
		status := 0
		if errors.Is(err, ErrUpstream) {
			status = StatusCode(err)
		}
		metrics.RecordUpstreamRequest(string(category), status, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(string(category), resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := readBodyForError(resp.Body)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: logging.TruncateBody(body, 512)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	return body, nil
}

// doRequestWithRateLimit waits for the outbound limiter, sends the request
// and retries HTTP 429 with exponential backoff (base, 2x, 4x, ...). A
// Retry-After header in seconds replaces the computed delay.
func (c *Client) doRequestWithRateLimit(ctx context.Context, desc *RequestDescriptor) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}

		req, err := desc.HTTPRequest(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		metrics.UpstreamRateLimitedTotal.Inc()
		body := readBodyForError(resp.Body)
		_ = resp.Body.Close()

		if attempt >= c.maxRetries {
			return nil, &UpstreamError{StatusCode: http.StatusTooManyRequests, Body: logging.TruncateBody(body, 512)}
		}

		delay := retryDelay(c.retryBaseDelay, attempt, resp.Header.Get("Retry-After"))

		logging.Ctx(ctx).Warn().
			Dur("retry_delay", delay).
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Str("url", desc.URL).
			Msg("Upstream API rate limited (HTTP 429), retrying")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// retryDelay is base doubled per attempt, replaced by a Retry-After value in
// seconds and capped at maxRetryDelay.
func retryDelay(base time.Duration, attempt int, retryAfter string) time.Duration {
	delay := base << min(attempt, maxBackoffShift)
	if retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
			delay = time.Duration(seconds) * time.Second
		}
	}
	if delay > maxRetryDelay || delay < 0 {
		delay = maxRetryDelay
	}
	return delay
}

// readBodyForError reads at most 64KB of an error response.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
