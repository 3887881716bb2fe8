// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// captureGlobal swaps the global logger for one writing to a buffer.
// Tests using it must not run in parallel.
func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	SetLogger(NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if i := strings.LastIndex(line, "\n"); i >= 0 {
		line = line[i+1:]
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("log line is not JSON: %q: %v", line, err)
	}
	return m
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"DEBUG":    zerolog.DebugLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
		"":         zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})

	Init(Config{Level: "info", Format: "json", Output: &buf})
	Debug().Msg("hidden")
	Info().Str("category", "sleep").Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug entry written at info level")
	}
	m := decodeLine(t, &buf)
	if m["message"] != "visible" || m["category"] != "sleep" || m["level"] != "info" {
		t.Errorf("unexpected entry: %v", m)
	}
}

func TestCtx_AddsContextFields(t *testing.T) {
	buf := captureGlobal(t)

	ctx := ContextWithCorrelationID(context.Background(), "abcd1234")
	ctx = ContextWithRequestID(ctx, "req-1")
	Ctx(ctx).Info().Msg("with context")

	m := decodeLine(t, buf)
	if m["correlation_id"] != "abcd1234" {
		t.Errorf("correlation_id = %v", m["correlation_id"])
	}
	if m["request_id"] != "req-1" {
		t.Errorf("request_id = %v", m["request_id"])
	}
}

func TestContextWithNewCorrelationID_KeepsExisting(t *testing.T) {
	t.Parallel()

	ctx := ContextWithCorrelationID(context.Background(), "keepme00")
	if got := CorrelationIDFromContext(ContextWithNewCorrelationID(ctx)); got != "keepme00" {
		t.Errorf("correlation id replaced: %q", got)
	}
	fresh := CorrelationIDFromContext(ContextWithNewCorrelationID(context.Background()))
	if len(fresh) != 8 {
		t.Errorf("generated correlation id %q, want 8 chars", fresh)
	}
}

func TestSlogHandler_WritesThroughZerolog(t *testing.T) {
	buf := captureGlobal(t)

	logger := slog.New(NewSlogHandler()).With("service", "refresher").WithGroup("sup")
	logger.Warn("service restarted", "attempt", 3, "err", errors.New("boom"))

	m := decodeLine(t, buf)
	if m["level"] != "warn" {
		t.Errorf("level = %v, want warn", m["level"])
	}
	if m["sup.service"] != nil {
		t.Errorf("attrs added before WithGroup must not be grouped: %v", m)
	}
	if m["service"] != "refresher" {
		t.Errorf("service = %v", m["service"])
	}
	if m["sup.attempt"] != float64(3) {
		t.Errorf("sup.attempt = %v", m["sup.attempt"])
	}
	if m["sup.err"] != "boom" {
		t.Errorf("sup.err = %v", m["sup.err"])
	}
}

func TestSanitizeToken(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"", ""},
		{"short", "***"},
		{"eyJhbGciOiJIUzI1NiJ9.payload.sig", "eyJh....sig"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := SanitizeHeader("Bearer abcdefghijklmnopqrstuvwxyz"); got != "Bearer abcd...wxyz" {
		t.Errorf("SanitizeHeader() = %q", got)
	}
}

func TestSanitizeURL(t *testing.T) {
	t.Parallel()

	got := SanitizeURL("https://example.test/auth/fitbit/callback?code=0123456789abcdef&state=s")
	if strings.Contains(got, "0123456789abcdef") {
		t.Errorf("code leaked: %s", got)
	}
	if !strings.Contains(got, "state=%2A%2A%2A") {
		t.Errorf("state not masked: %s", got)
	}
	if plain := SanitizeURL("https://example.test/a?b=c"); plain != "https://example.test/a?b=c" {
		t.Errorf("unrelated URL changed: %s", plain)
	}
}

func TestTruncateBody(t *testing.T) {
	t.Parallel()

	if got := TruncateBody([]byte("abcdef"), 3); got != "abc..." {
		t.Errorf("TruncateBody() = %q", got)
	}
	if got := TruncateBody([]byte("ab"), 3); got != "ab" {
		t.Errorf("TruncateBody() = %q", got)
	}
}
