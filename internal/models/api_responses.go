// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package models

import (
	"time"
)

// APIResponse is the envelope written by every HTTP endpoint.
//
// Status field values:
//   - "success": see Data
//   - "error": see Error
//
// Example:
//
//	{
//	  "status": "success",
//	  "data": {"call": "Sleep", "success": true, "report": {...}},
//	  "metadata": {"timestamp": "2026-01-05T12:00:00Z", "query_time_ms": 812}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a machine-readable error.
//
// Common codes:
//   - VALIDATION_ERROR: malformed request parameters
//   - NO_CREDENTIAL: no authorization has been completed yet
//   - UPSTREAM_ERROR: the upstream API rejected a single-shot call
//   - INTERNAL_ERROR: anything else
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// CallResponse is the operational result of an ingestion endpoint.
type CallResponse struct {
	Call    string           `json:"call"`
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Report  *IngestionReport `json:"report,omitempty"`
}
