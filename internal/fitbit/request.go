// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package fitbit

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/models"
)

// DefaultBaseURL is the per-user API root for the authorized subject.
const DefaultBaseURL = "https://api.fitbit.com/1/user/-/"

// heartIntradaySuffix selects a one-day window at one-minute resolution.
const heartIntradaySuffix = "/1d/1min"

// RequestDescriptor fully describes one upstream call.
type RequestDescriptor struct {
	Method string
	URL    string
	Header http.Header
}

// HTTPRequest builds an *http.Request bound to ctx.
func (d *RequestDescriptor) HTTPRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, d.Method, d.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req.Header = d.Header.Clone()
	return req, nil
}

// Redacted returns a copy with the bearer token masked, for display.
func (d *RequestDescriptor) Redacted() RequestDescriptor {
	out := RequestDescriptor{Method: d.Method, URL: d.URL, Header: d.Header.Clone()}
	if auth := out.Header.Get("Authorization"); auth != "" {
		out.Header.Set("Authorization", logging.SanitizeHeader(auth))
	}
	return out
}

// Builder maps (category, date) to request descriptors. It holds no state
// beyond the base URL and is safe for concurrent use.
type Builder struct {
	baseURL string
}

// NewBuilder returns a Builder rooted at baseURL. An empty baseURL uses
// DefaultBaseURL.
func NewBuilder(baseURL string) *Builder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Builder{baseURL: baseURL}
}

// BaseURL returns the API root.
func (b *Builder) BaseURL() string {
	return b.baseURL
}

// Build returns the descriptor for category. Undated categories ignore date;
// dated categories require a non-zero date.
func (b *Builder) Build(category models.Category, date models.Date, accessToken string) (*RequestDescriptor, error) {
	path, err := categoryPath(category, date)
	if err != nil {
		return nil, err
	}

	header := make(http.Header)
	header.Set("Authorization", "Bearer "+accessToken)
	header.Set("Accept", "application/json")

	return &RequestDescriptor{
		Method: http.MethodGet,
		URL:    b.baseURL + path,
		Header: header,
	}, nil
}

func categoryPath(category models.Category, date models.Date) (string, error) {
	switch category {
	case models.CategoryProfile, models.CategoryDevices, models.CategoryFriends:
		return string(category) + ".json", nil
	}

	if !category.Dated() {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, category)
	}
	if date.IsZero() {
		return "", fmt.Errorf("%w: category %q requires a date", ErrInvalidRequest, category)
	}

	d := date.String()
	switch category {
	case models.CategorySleep:
		return "sleep/date/" + d + ".json", nil
	case models.CategoryHeart:
		return "activities/heart/date/" + d + heartIntradaySuffix + ".json", nil
	case models.CategoryActivities:
		return "activities/date/" + d + ".json", nil
	case models.CategoryFood:
		return "foods/log/date/" + d + ".json", nil
	default:
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, category)
	}
}
