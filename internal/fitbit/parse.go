// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package fitbit

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sleepsight/internal/models"
)

// ParsePayload decodes body into the payload variant for category and
// validates its authoritative date. An empty but well-formed payload is
// returned together with models.ErrEmptyPayload.
func ParsePayload(category models.Category, body []byte) (models.Payload, models.Date, error) {
	if !category.Ingestable() {
		return nil, models.Date{}, fmt.Errorf("%w: category %q has no payload schema", ErrInvalidRequest, category)
	}

	p, err := models.DecodePayload(category, body)
	if err != nil {
		return nil, models.Date{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	date, err := p.RecordDate()
	if errors.Is(err, models.ErrEmptyPayload) {
		return p, models.Date{}, models.ErrEmptyPayload
	}
	if err != nil {
		return nil, models.Date{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return p, date, nil
}

// ParseProfile decodes a profile response. The encoded id is required.
func ParseProfile(body []byte) (*models.ProfileUser, error) {
	var resp models.ProfileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %v", ErrParse, err)
	}
	if resp.User.EncodedID == "" {
		return nil, fmt.Errorf("%w: profile has no encodedId", ErrParse)
	}
	return &resp.User, nil
}
