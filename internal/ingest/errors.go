// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package ingest

import (
	"context"
	"errors"

	"github.com/tomtom215/sleepsight/internal/credential"
	"github.com/tomtom215/sleepsight/internal/fitbit"
	"github.com/tomtom215/sleepsight/internal/models"
)

var (
	// ErrInvalidRequest is returned for structurally invalid calls. No work
	// is performed.
	ErrInvalidRequest = fitbit.ErrInvalidRequest

	// ErrNoCredential is returned when no credential was ever set.
	ErrNoCredential = credential.ErrNoCredential

	// ErrStore wraps persistence failures recorded in day outcomes.
	ErrStore = errors.New("store error")
)

// classify maps a per-day error to its report kind. parent is the range
// context: a context error counts as cancellation only once parent is done,
// otherwise it is a per-day timeout of the failing step.
func classify(parent context.Context, err error) (models.ErrorKind, int) {
	if parent.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return models.ErrorKindCanceled, 0
	}
	switch {
	case errors.Is(err, ErrNoCredential):
		return models.ErrorKindNoCredential, 0
	case errors.Is(err, fitbit.ErrRateLimited):
		return models.ErrorKindRateLimited, 0
	case errors.Is(err, fitbit.ErrCircuitOpen):
		return models.ErrorKindCircuitOpen, 0
	case errors.Is(err, fitbit.ErrUpstream):
		return models.ErrorKindUpstream, fitbit.StatusCode(err)
	case errors.Is(err, fitbit.ErrParse):
		return models.ErrorKindParse, 0
	case errors.Is(err, ErrStore):
		return models.ErrorKindStore, 0
	default:
		return models.ErrorKindTransport, 0
	}
}
