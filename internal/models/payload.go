// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package models

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Payload is the category-specific body of a Record. Each variant knows the
// calendar day the upstream service attributes its data to.
//
// The typed fields validate the body and expose what ingestion needs. A
// variant decoded from JSON keeps the exact bytes it was decoded from and
// marshals back to them, so fields the structs do not declare survive
// storage unchanged.
type Payload interface {
	// Category returns the tag of this variant.
	Category() Category

	// RecordDate returns the upstream-reported day for this payload.
	// It returns ErrEmptyPayload when the payload carries no entries.
	RecordDate() (Date, error)

	// Len returns the number of top-level entries.
	Len() int
}

// SleepPayload is the body of a sleep log response.
type SleepPayload struct {
	Sleep   []SleepLog    `json:"sleep"`
	Summary *SleepSummary `json:"summary,omitempty"`

	raw json.RawMessage
}

// SleepLog is one sleep session. Levels is kept verbatim because its shape
// depends on the log type ("stages" or "classic").
type SleepLog struct {
	LogID               int64           `json:"logId"`
	DateOfSleep         string          `json:"dateOfSleep"`
	StartTime           string          `json:"startTime"`
	EndTime             string          `json:"endTime"`
	Duration            int64           `json:"duration"`
	Efficiency          int             `json:"efficiency"`
	IsMainSleep         bool            `json:"isMainSleep"`
	MinutesAsleep       int             `json:"minutesAsleep"`
	MinutesAwake        int             `json:"minutesAwake"`
	MinutesToFallAsleep int             `json:"minutesToFallAsleep"`
	MinutesAfterWakeup  int             `json:"minutesAfterWakeup"`
	TimeInBed           int             `json:"timeInBed"`
	Type                string          `json:"type,omitempty"`
	Levels              json.RawMessage `json:"levels,omitempty"`
}

// SleepSummary aggregates every session of the day.
type SleepSummary struct {
	TotalMinutesAsleep int             `json:"totalMinutesAsleep"`
	TotalSleepRecords  int             `json:"totalSleepRecords"`
	TotalTimeInBed     int             `json:"totalTimeInBed"`
	Stages             json.RawMessage `json:"stages,omitempty"`
}

// Category implements Payload.
func (p *SleepPayload) Category() Category { return CategorySleep }

// Len implements Payload.
func (p *SleepPayload) Len() int { return len(p.Sleep) }

// RecordDate implements Payload. The first log's dateOfSleep is authoritative.
func (p *SleepPayload) RecordDate() (Date, error) {
	if len(p.Sleep) == 0 {
		return Date{}, ErrEmptyPayload
	}
	d, err := ParseDate(p.Sleep[0].DateOfSleep)
	if err != nil {
		return Date{}, fmt.Errorf("sleep dateOfSleep: %w", err)
	}
	return d, nil
}

// HeartPayload is the body of a one-day, one-minute heart rate response.
type HeartPayload struct {
	ActivitiesHeart []HeartDay     `json:"activities-heart"`
	Intraday        *HeartIntraday `json:"activities-heart-intraday,omitempty"`

	raw json.RawMessage
}

// HeartDay is the daily heart rate summary.
type HeartDay struct {
	DateTime string     `json:"dateTime"`
	Value    HeartValue `json:"value"`
}

// HeartValue holds the zone breakdown and resting rate for one day.
type HeartValue struct {
	RestingHeartRate     int             `json:"restingHeartRate,omitempty"`
	HeartRateZones       []HeartRateZone `json:"heartRateZones"`
	CustomHeartRateZones []HeartRateZone `json:"customHeartRateZones,omitempty"`
}

// HeartRateZone is one heart rate zone.
type HeartRateZone struct {
	Name        string  `json:"name"`
	Min         int     `json:"min"`
	Max         int     `json:"max"`
	Minutes     int     `json:"minutes"`
	CaloriesOut float64 `json:"caloriesOut"`
}

// HeartIntraday is the fine-grained series.
type HeartIntraday struct {
	Dataset         []HeartSample `json:"dataset"`
	DatasetInterval int           `json:"datasetInterval"`
	DatasetType     string        `json:"datasetType"`
}

// HeartSample is one intraday measurement. Time is "HH:MM:SS".
type HeartSample struct {
	Time  string `json:"time"`
	Value int    `json:"value"`
}

// Category implements Payload.
func (p *HeartPayload) Category() Category { return CategoryHeart }

// Len implements Payload.
func (p *HeartPayload) Len() int { return len(p.ActivitiesHeart) }

// RecordDate implements Payload. The first summary's dateTime is authoritative.
func (p *HeartPayload) RecordDate() (Date, error) {
	if len(p.ActivitiesHeart) == 0 {
		return Date{}, ErrEmptyPayload
	}
	d, err := ParseDate(p.ActivitiesHeart[0].DateTime)
	if err != nil {
		return Date{}, fmt.Errorf("activities-heart dateTime: %w", err)
	}
	return d, nil
}

// UnmarshalJSON decodes the typed fields and keeps data verbatim.
func (p *SleepPayload) UnmarshalJSON(data []byte) error {
	type fields SleepPayload
	var v fields
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = SleepPayload(v)
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the decoded bytes when present, otherwise the fields.
func (p *SleepPayload) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	type fields SleepPayload
	return json.Marshal((*fields)(p))
}

// UnmarshalJSON decodes the typed fields and keeps data verbatim.
func (p *HeartPayload) UnmarshalJSON(data []byte) error {
	type fields HeartPayload
	var v fields
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = HeartPayload(v)
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the decoded bytes when present, otherwise the fields.
func (p *HeartPayload) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	type fields HeartPayload
	return json.Marshal((*fields)(p))
}

// NewPayload returns an empty variant for category.
func NewPayload(category Category) (Payload, error) {
	switch category {
	case CategorySleep:
		return &SleepPayload{}, nil
	case CategoryHeart:
		return &HeartPayload{}, nil
	default:
		return nil, fmt.Errorf("no payload variant for category %q", category)
	}
}

// DecodePayload unmarshals data into the variant for category.
func DecodePayload(category Category, data []byte) (Payload, error) {
	p, err := NewPayload(category)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", category, err)
	}
	return p, nil
}

// EncodePayload marshals p for storage. A decoded payload encodes to the
// bytes it was decoded from.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("nil payload")
	}
	return json.Marshal(p)
}
