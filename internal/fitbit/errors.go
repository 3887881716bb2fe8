// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package fitbit

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidRequest is returned when a request cannot be built, for
	// example a dated category without a date.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTransport wraps failures to reach the upstream API.
	ErrTransport = errors.New("upstream transport error")

	// ErrUpstream is matched by every *UpstreamError.
	ErrUpstream = errors.New("upstream error")

	// ErrParse is returned for response bodies that do not match the
	// category schema.
	ErrParse = errors.New("upstream payload parse error")

	// ErrCircuitOpen is returned while the circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("upstream circuit breaker open")

	// ErrRateLimited is returned when the outbound limiter cannot grant a
	// token before the caller's deadline. No request was sent.
	ErrRateLimited = errors.New("outbound rate limit")
)

// UpstreamError is a non-2xx response from the upstream API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Is makes errors.Is(err, ErrUpstream) true.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Unauthorized reports whether the credential was rejected.
func (e *UpstreamError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// StatusCode extracts the upstream status from err, or 0.
func StatusCode(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}
