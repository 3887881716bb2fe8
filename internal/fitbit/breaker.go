// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package fitbit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/metrics"
	"github.com/tomtom215/sleepsight/internal/models"
)

// BreakerConfig tunes the circuit breaker. Zero values use the defaults:
// 3 half-open probes, 1 minute counting window, 2 minute open period, trip at
// a 60% failure ratio over at least 10 requests.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// BreakerClient wraps a Fetcher with a circuit breaker so a failing upstream
// is not hammered by a long range ingestion.
type BreakerClient struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker[[]byte]
	name string
}

// NewBreakerClient wraps next.
func NewBreakerClient(next Fetcher, cfg BreakerConfig) *BreakerClient {
	if cfg.Name == "" {
		cfg.Name = "fitbit-api"
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 10
	}
	if cfg.FailureRatio == 0 {
		cfg.FailureRatio = 0.6
	}

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cfg.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
		IsSuccessful: isBreakerSuccess,
	})

	return &BreakerClient{next: next, cb: cb, name: cfg.Name}
}

// Fetch implements Fetcher.
func (b *BreakerClient) Fetch(ctx context.Context, category models.Category, date models.Date, accessToken string) ([]byte, error) {
	body, err := b.cb.Execute(func() ([]byte, error) {
		return b.next.Fetch(ctx, category, date, accessToken)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return body, nil
}

// State returns the current breaker state as a string.
func (b *BreakerClient) State() string {
	return stateToString(b.cb.State())
}

// isBreakerSuccess counts only upstream health problems as failures.
// Client errors (other than 429), bad requests, local limiter refusals and
// caller cancellation say nothing about the upstream service.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrRateLimited) {
		return true
	}
	if code := StatusCode(err); code >= 400 && code < 500 && code != http.StatusTooManyRequests {
		return true
	}
	return false
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
