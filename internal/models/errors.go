// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package models

import "errors"

var (
	// ErrDuplicateKey is returned by stores when a record or subject with the
	// same key already exists. The existing row is never overwritten.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned by point lookups that match nothing.
	ErrNotFound = errors.New("not found")

	// ErrEmptyPayload means an upstream response parsed correctly but held no
	// entries for the requested day.
	ErrEmptyPayload = errors.New("payload has no entries")
)
