// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package logging

import (
	"net/url"
	"strings"
)

// SanitizeToken masks a bearer or refresh token, keeping the first and last
// 4 characters. Short tokens are fully masked.
//
//	"eyJhbGciOiJIUzI1NiJ9.payload.sig" -> "eyJh....sig"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeHeader masks the credential part of an Authorization header value.
func SanitizeHeader(value string) string {
	scheme, token, ok := strings.Cut(value, " ")
	if !ok {
		return SanitizeToken(value)
	}
	return scheme + " " + SanitizeToken(token)
}

// sensitiveParams are query parameters that never reach the log verbatim.
var sensitiveParams = []string{"code", "state", "code_verifier", "access_token", "refresh_token", "client_secret"}

// SanitizeURL masks sensitive query parameters in raw.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for _, p := range sensitiveParams {
		if v := q.Get(p); v != "" {
			q.Set(p, SanitizeToken(v))
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// TruncateBody shortens an upstream response body for error messages.
func TruncateBody(body []byte, maxLen int) string {
	if len(body) <= maxLen {
		return string(body)
	}
	return string(body[:maxLen]) + "..."
}
