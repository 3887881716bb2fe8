// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package testinfra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/sleepsight/internal/models"
)

// RecordSubjectStore is the contract every record/subject backend meets.
type RecordSubjectStore interface {
	RecordExists(ctx context.Context, key models.RecordKey) (bool, error)
	InsertRecord(ctx context.Context, rec *models.Record) error
	GetRecord(ctx context.Context, key models.RecordKey) (*models.Record, error)
	GetSubject(ctx context.Context, externalID string) (*models.Subject, error)
	InsertSubject(ctx context.Context, s *models.Subject) error
}

// SleepRecord builds a one-session sleep record for subject on date.
func SleepRecord(subject, date string, minutesAsleep int) *models.Record {
	d := models.MustParseDate(date)
	return models.NewRecord(subject, d, &models.SleepPayload{
		Sleep: []models.SleepLog{{
			LogID:         int64(minutesAsleep),
			DateOfSleep:   date,
			MinutesAsleep: minutesAsleep,
			IsMainSleep:   true,
		}},
		Summary: &models.SleepSummary{TotalMinutesAsleep: minutesAsleep, TotalSleepRecords: 1},
	})
}

// HeartRecord builds a resting-heart-rate record for subject on date.
func HeartRecord(subject, date string, resting int) *models.Record {
	d := models.MustParseDate(date)
	return models.NewRecord(subject, d, &models.HeartPayload{
		ActivitiesHeart: []models.HeartDay{{
			DateTime: date,
			Value:    models.HeartValue{RestingHeartRate: resting},
		}},
	})
}

// RunStoreSuite runs the shared record/subject store tests. open must return
// an empty store; it is called once per subtest.
func RunStoreSuite(t *testing.T, open func(t *testing.T) RecordSubjectStore) {
	t.Helper()

	t.Run("record insert then exists", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		rec := SleepRecord("ABC123", "2023-01-01", 420)

		exists, err := s.RecordExists(ctx, rec.Key())
		if err != nil {
			t.Fatalf("RecordExists() error = %v", err)
		}
		if exists {
			t.Fatal("RecordExists() = true on empty store")
		}
		if err := s.InsertRecord(ctx, rec); err != nil {
			t.Fatalf("InsertRecord() error = %v", err)
		}
		exists, err = s.RecordExists(ctx, rec.Key())
		if err != nil || !exists {
			t.Fatalf("RecordExists() = %v, %v; want true", exists, err)
		}

		got, err := s.GetRecord(ctx, rec.Key())
		if err != nil {
			t.Fatalf("GetRecord() error = %v", err)
		}
		if got.ID != rec.ID || got.Key() != rec.Key() {
			t.Errorf("GetRecord() = %+v, want id %s key %s", got, rec.ID, rec.Key())
		}
		sleep, ok := got.Payload.(*models.SleepPayload)
		if !ok || len(sleep.Sleep) != 1 || sleep.Sleep[0].MinutesAsleep != 420 {
			t.Errorf("payload = %#v", got.Payload)
		}
	})

	t.Run("payload keeps upstream fields", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		body := `{"sleep":[{"logId":7,"dateOfSleep":"2023-01-09","minutesAsleep":410,"awakeCount":3,"restlessCount":7,` +
			`"minuteData":[{"dateTime":"23:00:00","value":"2"}]}]}`
		payload, err := models.DecodePayload(models.CategorySleep, []byte(body))
		if err != nil {
			t.Fatalf("DecodePayload() error = %v", err)
		}
		rec := models.NewRecord("ABC123", models.MustParseDate("2023-01-09"), payload)
		if err := s.InsertRecord(ctx, rec); err != nil {
			t.Fatalf("InsertRecord() error = %v", err)
		}
		got, err := s.GetRecord(ctx, rec.Key())
		if err != nil {
			t.Fatalf("GetRecord() error = %v", err)
		}
		stored, err := models.EncodePayload(got.Payload)
		if err != nil {
			t.Fatalf("EncodePayload() error = %v", err)
		}
		for _, field := range []string{"minuteData", "awakeCount", "restlessCount"} {
			if !strings.Contains(string(stored), field) {
				t.Errorf("stored payload dropped %s: %s", field, stored)
			}
		}
		for _, field := range []string{"startTime", "efficiency", "summary"} {
			if strings.Contains(string(stored), field) {
				t.Errorf("stored payload invented %s: %s", field, stored)
			}
		}
	})

	t.Run("duplicate record keeps first", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		first := SleepRecord("ABC123", "2023-01-02", 400)
		second := SleepRecord("ABC123", "2023-01-02", 999)

		if err := s.InsertRecord(ctx, first); err != nil {
			t.Fatalf("InsertRecord(first) error = %v", err)
		}
		if err := s.InsertRecord(ctx, second); !errors.Is(err, models.ErrDuplicateKey) {
			t.Fatalf("InsertRecord(second) error = %v, want ErrDuplicateKey", err)
		}
		got, err := s.GetRecord(ctx, first.Key())
		if err != nil {
			t.Fatalf("GetRecord() error = %v", err)
		}
		if got.ID != first.ID {
			t.Errorf("stored id = %s, want first insert %s", got.ID, first.ID)
		}
	})

	t.Run("key includes category and subject", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		recs := []*models.Record{
			SleepRecord("ABC123", "2023-01-03", 400),
			HeartRecord("ABC123", "2023-01-03", 58),
			SleepRecord("XYZ789", "2023-01-03", 380),
		}
		for _, rec := range recs {
			if err := s.InsertRecord(ctx, rec); err != nil {
				t.Errorf("InsertRecord(%s) error = %v", rec.Key(), err)
			}
		}
		other := models.RecordKey{SubjectID: "ABC123", Date: models.MustParseDate("2023-01-04"), Category: models.CategorySleep}
		if exists, _ := s.RecordExists(ctx, other); exists {
			t.Errorf("RecordExists(%s) = true, want false", other)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		s := open(t)
		key := models.RecordKey{SubjectID: "nobody", Date: models.MustParseDate("2023-01-01"), Category: models.CategoryHeart}
		if _, err := s.GetRecord(context.Background(), key); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("GetRecord() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("concurrent inserts of one key", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		const writers = 6
		var (
			wg         sync.WaitGroup
			mu         sync.Mutex
			stored     int
			duplicates int
			other      []error
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := s.InsertRecord(ctx, SleepRecord("ABC123", "2023-02-01", 300+i))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					stored++
				case errors.Is(err, models.ErrDuplicateKey):
					duplicates++
				default:
					other = append(other, err)
				}
			}(i)
		}
		wg.Wait()

		if len(other) > 0 {
			t.Fatalf("unexpected errors: %v", other)
		}
		if stored != 1 || duplicates != writers-1 {
			t.Errorf("stored=%d duplicates=%d, want 1 and %d", stored, duplicates, writers-1)
		}
	})

	t.Run("subject round trip", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		if _, err := s.GetSubject(ctx, "ABC123"); !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("GetSubject() error = %v, want ErrNotFound", err)
		}

		want := &models.Subject{
			ExternalID:  "ABC123",
			Name:        "Jane Doe",
			Age:         34,
			Gender:      "FEMALE",
			DateOfBirth: "1990-05-17",
			Token:       "sealed-token",
			CreatedAt:   time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC),
		}
		if err := s.InsertSubject(ctx, want); err != nil {
			t.Fatalf("InsertSubject() error = %v", err)
		}
		got, err := s.GetSubject(ctx, "ABC123")
		if err != nil {
			t.Fatalf("GetSubject() error = %v", err)
		}
		if err := compareSubjects(got, want); err != nil {
			t.Error(err)
		}

		dup := *want
		dup.Name = "Someone Else"
		if err := s.InsertSubject(ctx, &dup); !errors.Is(err, models.ErrDuplicateKey) {
			t.Fatalf("InsertSubject(dup) error = %v, want ErrDuplicateKey", err)
		}
		got, _ = s.GetSubject(ctx, "ABC123")
		if got == nil || got.Name != "Jane Doe" {
			t.Errorf("subject after duplicate insert = %+v, want original", got)
		}
	})
}

func compareSubjects(got, want *models.Subject) error {
	if got.ExternalID != want.ExternalID || got.Name != want.Name || got.Age != want.Age ||
		got.Gender != want.Gender || got.DateOfBirth != want.DateOfBirth || got.Token != want.Token {
		return fmt.Errorf("subject = %+v, want %+v", got, want)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		return fmt.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	return nil
}
