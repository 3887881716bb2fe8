// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package models

import (
	"fmt"
	"time"
)

// Outcome is the result of processing one day.
type Outcome string

// Day outcomes.
const (
	// OutcomeStored means the day was fetched and a new record persisted.
	OutcomeStored Outcome = "stored"

	// OutcomeDuplicate means a record already existed for the key. Not an error.
	OutcomeDuplicate Outcome = "duplicate"

	// OutcomeNoData means upstream answered successfully with no entries.
	OutcomeNoData Outcome = "no_data"

	// OutcomeFailed means the day must be re-ingested by a later call.
	OutcomeFailed Outcome = "failed"
)

// ErrorKind classifies a failed day.
type ErrorKind string

// Failure kinds.
const (
	ErrorKindNone        ErrorKind = ""
	ErrorKindTransport   ErrorKind = "transport"
	ErrorKindUpstream    ErrorKind = "upstream"
	ErrorKindParse       ErrorKind = "parse"
	ErrorKindStore       ErrorKind = "store"
	ErrorKindCanceled    ErrorKind = "canceled"
	ErrorKindCircuitOpen ErrorKind = "circuit_open"

	// ErrorKindRateLimited means the outbound limiter refused before any
	// request was sent.
	ErrorKindRateLimited ErrorKind = "rate_limited"

	// ErrorKindNoCredential means the credential was cleared during the range.
	ErrorKindNoCredential ErrorKind = "no_credential"
)

// DayOutcome records what happened to one requested day. RecordDate is the
// upstream-reported day when it was known.
type DayOutcome struct {
	Date       Date      `json:"date"`
	RecordDate Date      `json:"record_date"`
	Outcome    Outcome   `json:"outcome"`
	Kind       ErrorKind `json:"kind,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// IngestionReport summarizes a range ingestion. Days is ordered by requested date.
type IngestionReport struct {
	Category    Category      `json:"category"`
	SubjectID   string        `json:"subject_id"`
	Begin       Date          `json:"begin"`
	End         Date          `json:"end"`
	Days        []DayOutcome  `json:"days"`
	Stored      int           `json:"stored"`
	Duplicates  int           `json:"duplicates"`
	NoData      int           `json:"no_data"`
	Failed      int           `json:"failed"`
	NeedsReauth bool          `json:"needs_reauth"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
}

// Tally recomputes the counters from Days.
func (r *IngestionReport) Tally() {
	r.Stored, r.Duplicates, r.NoData, r.Failed = 0, 0, 0, 0
	r.NeedsReauth = false
	for i := range r.Days {
		switch r.Days[i].Outcome {
		case OutcomeStored:
			r.Stored++
		case OutcomeDuplicate:
			r.Duplicates++
		case OutcomeNoData:
			r.NoData++
		case OutcomeFailed:
			r.Failed++
			switch {
			case r.Days[i].Kind == ErrorKindNoCredential:
				r.NeedsReauth = true
			case r.Days[i].Kind == ErrorKindUpstream && r.Days[i].StatusCode == 401:
				r.NeedsReauth = true
			}
		}
	}
}

// Success reports whether no day failed.
func (r *IngestionReport) Success() bool {
	return r.Failed == 0
}

// Summary renders the counters as a short human-readable line.
func (r *IngestionReport) Summary() string {
	return fmt.Sprintf("%s %s to %s: %d stored, %d already exist, %d without data, %d failed",
		r.Category.Title(), r.Begin, r.End, r.Stored, r.Duplicates, r.NoData, r.Failed)
}
