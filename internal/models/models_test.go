// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package models

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestDaysInRange_HalfOpen(t *testing.T) {
	t.Parallel()

	days := DaysInRange(MustParseDate("2023-01-01"), MustParseDate("2023-01-04"))
	want := []string{"2023-01-01", "2023-01-02", "2023-01-03"}
	if len(days) != len(want) {
		t.Fatalf("DaysInRange() returned %d days, want %d", len(days), len(want))
	}
	for i, d := range days {
		if d.String() != want[i] {
			t.Errorf("days[%d] = %s, want %s", i, d, want[i])
		}
	}
}

func TestDaysInRange_Edges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		begin, end string
		want       int
	}{
		{"empty range", "2023-01-01", "2023-01-01", 0},
		{"reversed range", "2023-01-05", "2023-01-01", 0},
		{"single day", "2023-01-01", "2023-01-02", 1},
		{"across month", "2023-01-30", "2023-02-02", 3},
		{"leap day", "2024-02-28", "2024-03-01", 2},
		{"across dst in local zones", "2023-03-10", "2023-03-15", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DaysInRange(MustParseDate(tt.begin), MustParseDate(tt.end))
			if len(got) != tt.want {
				t.Errorf("len(DaysInRange(%s, %s)) = %d, want %d", tt.begin, tt.end, len(got), tt.want)
			}
			if tt.want > 0 && DaysBetween(MustParseDate(tt.begin), MustParseDate(tt.end)) != tt.want {
				t.Errorf("DaysBetween() disagrees with DaysInRange()")
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2023-01-01", false},
		{"2023-1-1", true},
		{"01/02/2023", true},
		{"", true},
		{"2023-02-30", true},
	}

	for _, tt := range tests {
		_, err := ParseDate(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestDate_TextRoundTrip(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Day Date `json:"day"`
	}

	data, err := json.Marshal(wrapper{Day: NewDate(2023, time.March, 7)})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"day":"2023-03-07"}` {
		t.Errorf("Marshal = %s", data)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"day":"2024-12-31"}`), &w); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !w.Day.Equal(MustParseDate("2024-12-31")) {
		t.Errorf("Unmarshal day = %s", w.Day)
	}

	if err := json.Unmarshal([]byte(`{"day":"yesterday"}`), &w); err == nil {
		t.Error("Unmarshal of invalid date should fail")
	}
}

func TestCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category   Category
		dated      bool
		ingestable bool
	}{
		{CategoryProfile, false, false},
		{CategoryDevices, false, false},
		{CategoryFriends, false, false},
		{CategorySleep, true, true},
		{CategoryHeart, true, true},
		{CategoryActivities, true, false},
		{CategoryFood, true, false},
	}

	for _, tt := range tests {
		if got := tt.category.Dated(); got != tt.dated {
			t.Errorf("%s.Dated() = %v, want %v", tt.category, got, tt.dated)
		}
		if got := tt.category.Ingestable(); got != tt.ingestable {
			t.Errorf("%s.Ingestable() = %v, want %v", tt.category, got, tt.ingestable)
		}
	}

	if _, err := ParseCategory("Sleep"); err != nil {
		t.Errorf("ParseCategory(Sleep) error = %v", err)
	}
	if _, err := ParseCategory("steps"); err == nil {
		t.Error("ParseCategory(steps) should fail")
	}
	if CategoryHeart.Title() != "Heart" {
		t.Errorf("Title() = %q", CategoryHeart.Title())
	}
}

func TestSleepPayload_RecordDate(t *testing.T) {
	t.Parallel()

	body := `{"sleep":[{"logId":1,"dateOfSleep":"2023-01-02","minutesAsleep":420,"levels":{"summary":{}}}],"summary":{"totalMinutesAsleep":420}}`
	p, err := DecodePayload(CategorySleep, []byte(body))
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	d, err := p.RecordDate()
	if err != nil {
		t.Fatalf("RecordDate: %v", err)
	}
	if d.String() != "2023-01-02" {
		t.Errorf("RecordDate() = %s, want 2023-01-02", d)
	}
	if p.(*SleepPayload).Sleep[0].MinutesAsleep != 420 {
		t.Error("minutesAsleep not decoded")
	}

	empty, _ := DecodePayload(CategorySleep, []byte(`{"sleep":[]}`))
	if _, err := empty.RecordDate(); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("empty RecordDate() error = %v, want ErrEmptyPayload", err)
	}
}

func TestHeartPayload_RecordDate(t *testing.T) {
	t.Parallel()

	body := `{"activities-heart":[{"dateTime":"2023-01-03","value":{"restingHeartRate":58,"heartRateZones":[]}}],
		"activities-heart-intraday":{"dataset":[{"time":"00:00:00","value":61}],"datasetInterval":1,"datasetType":"minute"}}`
	p, err := DecodePayload(CategoryHeart, []byte(body))
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	d, err := p.RecordDate()
	if err != nil || d.String() != "2023-01-03" {
		t.Errorf("RecordDate() = %s, %v", d, err)
	}
	heart := p.(*HeartPayload)
	if heart.Intraday == nil || len(heart.Intraday.Dataset) != 1 {
		t.Error("intraday dataset not decoded")
	}

	bad, _ := DecodePayload(CategoryHeart, []byte(`{"activities-heart":[{"dateTime":"Jan 3"}]}`))
	if _, err := bad.RecordDate(); err == nil {
		t.Error("RecordDate() with malformed date should fail")
	}
}

func TestEncodePayload_KeepsUpstreamFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		category Category
		body     string
		absent   []string
	}{
		{
			name:     "sleep with classic log fields",
			category: CategorySleep,
			body: `{"sleep":[{"logId":1,"dateOfSleep":"2023-01-01","minutesAsleep":420,"awakeCount":3,"restlessCount":7,
				"minuteData":[{"dateTime":"23:00:00","value":"2"},{"dateTime":"23:01:00","value":"1"}]}]}`,
			absent: []string{"startTime", "efficiency", "summary"},
		},
		{
			name:     "heart with extra summary value fields",
			category: CategoryHeart,
			body: `{"activities-heart":[{"dateTime":"2023-01-03","value":{"restingHeartRate":58,"heartRateZones":[],
				"customHeartRateZones":[],"vendorScore":12.5}}],"activities-heart-intraday":{"dataset":[],"datasetInterval":1,"datasetType":"minute"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := DecodePayload(tt.category, []byte(tt.body))
			if err != nil {
				t.Fatalf("DecodePayload: %v", err)
			}
			encoded, err := EncodePayload(p)
			if err != nil {
				t.Fatalf("EncodePayload: %v", err)
			}

			var want, got map[string]any
			if err := json.Unmarshal([]byte(tt.body), &want); err != nil {
				t.Fatal(err)
			}
			if err := json.Unmarshal(encoded, &got); err != nil {
				t.Fatalf("encoded payload is not JSON: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("encoded = %s\nwant     %s", encoded, tt.body)
			}
			for _, field := range tt.absent {
				if strings.Contains(string(encoded), field) {
					t.Errorf("encoded payload invents %s: %s", field, encoded)
				}
			}

			again, err := DecodePayload(tt.category, encoded)
			if err != nil {
				t.Fatalf("DecodePayload(encoded): %v", err)
			}
			before, _ := p.RecordDate()
			after, _ := again.RecordDate()
			if before.String() != after.String() {
				t.Errorf("record date %s became %s across a storage round trip", before, after)
			}
		})
	}
}

func TestEncodePayload_BuiltInCode(t *testing.T) {
	t.Parallel()

	p := &SleepPayload{Sleep: []SleepLog{{LogID: 9, DateOfSleep: "2023-01-05", MinutesAsleep: 300}}}
	encoded, err := EncodePayload(p)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	back, err := DecodePayload(CategorySleep, encoded)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if got := back.(*SleepPayload).Sleep[0].MinutesAsleep; got != 300 {
		t.Errorf("MinutesAsleep = %d, want 300", got)
	}
}

func TestDecodePayload_UnknownCategory(t *testing.T) {
	t.Parallel()

	if _, err := DecodePayload(CategoryProfile, []byte(`{}`)); err == nil {
		t.Error("DecodePayload(profile) should fail")
	}
}

func TestIngestionReport_Tally(t *testing.T) {
	t.Parallel()

	r := &IngestionReport{
		Category: CategorySleep,
		Days: []DayOutcome{
			{Outcome: OutcomeStored},
			{Outcome: OutcomeDuplicate},
			{Outcome: OutcomeNoData},
			{Outcome: OutcomeFailed, Kind: ErrorKindTransport},
			{Outcome: OutcomeFailed, Kind: ErrorKindUpstream, StatusCode: 401},
		},
	}
	r.Tally()

	if r.Stored != 1 || r.Duplicates != 1 || r.NoData != 1 || r.Failed != 2 {
		t.Errorf("Tally() = %d/%d/%d/%d", r.Stored, r.Duplicates, r.NoData, r.Failed)
	}
	if !r.NeedsReauth {
		t.Error("NeedsReauth should be set by an upstream 401")
	}
	if r.Success() {
		t.Error("Success() should be false with failed days")
	}

	lost := &IngestionReport{Days: []DayOutcome{{Outcome: OutcomeFailed, Kind: ErrorKindNoCredential}}}
	lost.Tally()
	if !lost.NeedsReauth {
		t.Error("NeedsReauth should be set when the credential was lost mid-range")
	}
	limited := &IngestionReport{Days: []DayOutcome{{Outcome: OutcomeFailed, Kind: ErrorKindRateLimited}}}
	limited.Tally()
	if limited.NeedsReauth {
		t.Error("a rate-limited day does not need reauthorization")
	}
}

func TestCredential_ExpiresWithin(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := &Credential{Expiry: now.Add(10 * time.Minute)}
	if c.ExpiresWithin(now, 5*time.Minute) {
		t.Error("expiry 10m away should not be within 5m")
	}
	if !c.ExpiresWithin(now, 15*time.Minute) {
		t.Error("expiry 10m away should be within 15m")
	}
	unknown := &Credential{}
	if unknown.ExpiresWithin(now, time.Hour) {
		t.Error("unknown expiry should never be reported as expiring")
	}
}
