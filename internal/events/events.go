// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package events

import (
	"time"

	"github.com/tomtom215/sleepsight/internal/models"
)

// Topics
const (
	TopicRecordIngested  = "record.ingested"
	TopicSubjectEnrolled = "subject.enrolled"
)

// eventVersion is bumped on incompatible payload changes.
const eventVersion = "1"

// Envelope carries the fields common to every event.
type Envelope struct {
	EventVersion  string    `json:"event_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// RecordIngested announces a newly stored record. The payload itself is not
// carried; consumers read it from the store.
type RecordIngested struct {
	Envelope
	RecordID  string          `json:"record_id"`
	SubjectID string          `json:"subject_id"`
	Date      string          `json:"date"`
	Category  models.Category `json:"category"`
}

// SubjectEnrolled announces a newly enrolled subject.
type SubjectEnrolled struct {
	Envelope
	SubjectID string `json:"subject_id"`
	Name      string `json:"name"`
}

// Summary is the compact form kept in the recent-events feed.
type Summary struct {
	EventID    string    `json:"event_id"`
	Topic      string    `json:"topic"`
	SubjectID  string    `json:"subject_id"`
	Detail     string    `json:"detail"`
	OccurredAt time.Time `json:"occurred_at"`
}
