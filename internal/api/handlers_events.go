// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/sleepsight/internal/events"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 200
)

// Events lists the most recently consumed events, newest first.
//
// Endpoint: GET /api/events?limit=50
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.deps.Feed == nil {
		respondError(w, http.StatusServiceUnavailable, "EVENTS_DISABLED", "Event feed is not running", nil)
		return
	}

	limit := getIntParam(r, "limit", defaultEventsLimit)
	if limit < 1 || limit > maxEventsLimit {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be between 1 and 200", nil)
		return
	}

	recent := h.deps.Feed.Recent(limit)
	if recent == nil {
		recent = []events.Summary{}
	}
	respondSuccess(w, recent, start)
}

// getIntParam extracts an integer query parameter with a default value.
// Unparseable values yield -1 so range checks reject them.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}
