// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package models

import (
	"time"

	"github.com/google/uuid"
)

// RecordKey is the unique key of a Record.
type RecordKey struct {
	SubjectID string   `json:"subject_id"`
	Date      Date     `json:"date"`
	Category  Category `json:"category"`
}

// String renders the key as "subject/date/category" for logs and lock maps.
func (k RecordKey) String() string {
	return k.SubjectID + "/" + k.Date.String() + "/" + string(k.Category)
}

// Record is one ingested data point. Records are created once and never
// updated or deleted.
type Record struct {
	ID        uuid.UUID `json:"id"`
	SubjectID string    `json:"subject_id"`
	Date      Date      `json:"date"`
	Category  Category  `json:"category"`
	Payload   Payload   `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRecord builds a Record for payload under the given subject and day.
func NewRecord(subjectID string, date Date, payload Payload) *Record {
	return &Record{
		ID:        uuid.New(),
		SubjectID: subjectID,
		Date:      date,
		Category:  payload.Category(),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// Key returns the record's unique key.
func (r *Record) Key() RecordKey {
	return RecordKey{SubjectID: r.SubjectID, Date: r.Date, Category: r.Category}
}
