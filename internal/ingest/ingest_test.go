// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/sleepsight/internal/credential"
	"github.com/tomtom215/sleepsight/internal/fitbit"
	"github.com/tomtom215/sleepsight/internal/models"
)

// memStore is an in-memory Store. With enforceUnique=false it accepts
// duplicate inserts, which lets tests observe what the guard alone prevents.
type memStore struct {
	mu            sync.Mutex
	enforceUnique bool
	records       map[string][]*models.Record
	subjects      map[string]*models.Subject
	insertErr     func(rec *models.Record) error
	existsErr     error
}

func newMemStore() *memStore {
	return &memStore{
		enforceUnique: true,
		records:       make(map[string][]*models.Record),
		subjects:      make(map[string]*models.Subject),
	}
}

func (s *memStore) RecordExists(_ context.Context, key models.RecordKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return len(s.records[key.String()]) > 0, nil
}

func (s *memStore) InsertRecord(_ context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		if err := s.insertErr(rec); err != nil {
			return err
		}
	}
	k := rec.Key().String()
	if s.enforceUnique && len(s.records[k]) > 0 {
		return models.ErrDuplicateKey
	}
	s.records[k] = append(s.records[k], rec)
	return nil
}

func (s *memStore) GetSubject(_ context.Context, id string) (*models.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subjects[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *memStore) InsertSubject(_ context.Context, sub *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[sub.ExternalID]; ok {
		return models.ErrDuplicateKey
	}
	cp := *sub
	s.subjects[sub.ExternalID] = &cp
	return nil
}

func (s *memStore) put(subject string, date string, category models.Category) {
	rec := &models.Record{SubjectID: subject, Date: models.MustParseDate(date), Category: category}
	s.mu.Lock()
	s.records[rec.Key().String()] = append(s.records[rec.Key().String()], rec)
	s.mu.Unlock()
}

func (s *memStore) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[key])
}

func (s *memStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, recs := range s.records {
		n += len(recs)
	}
	return n
}

// fakeFetcher serves bodies from a function and records requested dates.
type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, category models.Category, date models.Date) ([]byte, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, category models.Category, date models.Date, token string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, string(category)+":"+date.String())
	f.mu.Unlock()
	if token == "" {
		return nil, errors.New("missing token")
	}
	return f.fn(ctx, category, date)
}

func (f *fakeFetcher) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.calls...)
	sort.Strings(out)
	return out
}

func sleepBody(date string) []byte {
	return []byte(fmt.Sprintf(`{"sleep":[{"logId":1,"dateOfSleep":%q,"minutesAsleep":420}],"summary":{"totalMinutesAsleep":420}}`, date))
}

func heartBody(date string) []byte {
	return []byte(fmt.Sprintf(`{"activities-heart":[{"dateTime":%q,"value":{"restingHeartRate":60,"heartRateZones":[]}}],"activities-heart-intraday":{"dataset":[],"datasetInterval":1,"datasetType":"minute"}}`, date))
}

// echoFetcher returns a payload dated on the requested day.
func echoFetcher() *fakeFetcher {
	return &fakeFetcher{fn: func(_ context.Context, c models.Category, d models.Date) ([]byte, error) {
		if c == models.CategoryHeart {
			return heartBody(d.String()), nil
		}
		return sleepBody(d.String()), nil
	}}
}

func newCreds(subject string) *credential.Store {
	s := credential.NewStore()
	s.Set(models.Credential{AccessToken: "access-token", SubjectID: subject})
	return s
}

func newTestOrchestrator(store Store, f fitbit.Fetcher, creds CredentialSource, opts ...Option) *Orchestrator {
	return New(Config{Concurrency: 4, MaxRangeDays: 366, DayTimeout: 5 * time.Second}, creds, f, store, opts...)
}

func d(s string) models.Date { return models.MustParseDate(s) }

func TestIngest_HalfOpenRange(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	f := echoFetcher()
	o := newTestOrchestrator(store, f, newCreds("SUBJ"))

	report, err := o.Ingest(context.Background(), models.CategorySleep, "", d("2023-01-01"), d("2023-01-04"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	want := []string{"sleep:2023-01-01", "sleep:2023-01-02", "sleep:2023-01-03"}
	got := f.callList()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("fetched %v, want %v", got, want)
	}
	if len(report.Days) != 3 || report.Stored != 3 {
		t.Fatalf("report = %+v", report)
	}
	for i, day := range report.Days {
		if day.Date.String() != want[i][len("sleep:"):] {
			t.Errorf("Days[%d].Date = %s, want ascending order", i, day.Date)
		}
	}
	if report.SubjectID != "SUBJ" {
		t.Errorf("SubjectID = %q, want credential subject", report.SubjectID)
	}
	if !report.Success() {
		t.Error("Success() = false")
	}
}

func TestIngest_Idempotent(t *testing.T) {
	t.Parallel()

	for _, category := range []models.Category{models.CategorySleep, models.CategoryHeart} {
		t.Run(string(category), func(t *testing.T) {
			t.Parallel()
			store := newMemStore()
			f := echoFetcher()
			o := newTestOrchestrator(store, f, newCreds("SUBJ"))
			ctx := context.Background()

			if _, err := o.Ingest(ctx, category, "SUBJ", d("2023-02-01"), d("2023-02-06")); err != nil {
				t.Fatalf("first Ingest() error = %v", err)
			}
			firstCalls := len(f.callList())
			before := store.total()

			report, err := o.Ingest(ctx, category, "SUBJ", d("2023-02-01"), d("2023-02-06"))
			if err != nil {
				t.Fatalf("second Ingest() error = %v", err)
			}
			if store.total() != before {
				t.Errorf("second call stored %d new records", store.total()-before)
			}
			if report.Duplicates != 5 || report.Stored != 0 {
				t.Errorf("second report = %s", report.Summary())
			}
			if len(f.callList()) != firstCalls {
				t.Errorf("second call fetched %d days, want 0", len(f.callList())-firstCalls)
			}
		})
	}
}

func TestIngest_OneFailedDay(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	f := &fakeFetcher{fn: func(_ context.Context, _ models.Category, day models.Date) ([]byte, error) {
		if day.String() == "2023-03-03" {
			return nil, fmt.Errorf("%w: connection reset", fitbit.ErrTransport)
		}
		return sleepBody(day.String()), nil
	}}
	o := newTestOrchestrator(store, f, newCreds("SUBJ"))

	report, err := o.Ingest(context.Background(), models.CategorySleep, "SUBJ", d("2023-03-01"), d("2023-03-06"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if report.Stored != 4 || report.Failed != 1 {
		t.Fatalf("report = %s", report.Summary())
	}
	failed := report.Days[2]
	if failed.Outcome != models.OutcomeFailed || failed.Kind != models.ErrorKindTransport {
		t.Errorf("Days[2] = %+v", failed)
	}
	if store.total() != 4 {
		t.Errorf("store has %d records, want 4", store.total())
	}
	if store.count("SUBJ/2023-03-03/sleep") != 0 {
		t.Error("failed day was stored")
	}
	if report.Success() {
		t.Error("Success() = true with a failed day")
	}
}

func TestIngest_UpstreamUnauthorizedNeedsReauth(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{fn: func(context.Context, models.Category, models.Date) ([]byte, error) {
		return nil, &fitbit.UpstreamError{StatusCode: http.StatusUnauthorized, Body: "expired_token"}
	}}
	o := newTestOrchestrator(newMemStore(), f, newCreds("SUBJ"))

	report, err := o.Ingest(context.Background(), models.CategoryHeart, "SUBJ", d("2023-01-01"), d("2023-01-03"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if report.Failed != 2 || !report.NeedsReauth {
		t.Errorf("report = %+v", report)
	}
	if report.Days[0].Kind != models.ErrorKindUpstream || report.Days[0].StatusCode != 401 {
		t.Errorf("Days[0] = %+v", report.Days[0])
	}
}

func TestIngest_InvalidRequests(t *testing.T) {
	t.Parallel()

	o := New(Config{Concurrency: 2, MaxRangeDays: 31}, newCreds("SUBJ"), echoFetcher(), newMemStore())
	ctx := context.Background()

	tests := []struct {
		name     string
		category models.Category
		begin    models.Date
		end      models.Date
	}{
		{"end before begin", models.CategorySleep, d("2023-01-05"), d("2023-01-01")},
		{"missing begin", models.CategorySleep, models.Date{}, d("2023-01-01")},
		{"profile by range", models.CategoryProfile, d("2023-01-01"), d("2023-01-02")},
		{"food not ingestable", models.CategoryFood, d("2023-01-01"), d("2023-01-02")},
		{"range too long", models.CategoryHeart, d("2023-01-01"), d("2023-03-01")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := o.Ingest(ctx, tt.category, "SUBJ", tt.begin, tt.end)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error = %v, want ErrInvalidRequest", err)
			}
			if report != nil {
				t.Error("invalid request returned a report")
			}
		})
	}
}

func TestIngest_NoCredential(t *testing.T) {
	t.Parallel()

	f := echoFetcher()
	o := newTestOrchestrator(newMemStore(), f, credential.NewStore())

	_, err := o.Ingest(context.Background(), models.CategorySleep, "SUBJ", d("2023-01-01"), d("2023-01-02"))
	if !errors.Is(err, ErrNoCredential) {
		t.Errorf("error = %v, want ErrNoCredential", err)
	}
	if len(f.callList()) != 0 {
		t.Error("fetched without a credential")
	}
}

func TestIngest_CredentialClearedMidRange(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	creds := newCreds("SUBJ")
	f := &fakeFetcher{fn: func(_ context.Context, _ models.Category, day models.Date) ([]byte, error) {
		if day.String() == "2023-01-02" {
			creds.Clear()
		}
		return sleepBody(day.String()), nil
	}}
	o := New(Config{Concurrency: 1, MaxRangeDays: 366}, creds, f, store)

	report, err := o.Ingest(context.Background(), models.CategorySleep, "SUBJ", d("2023-01-01"), d("2023-01-06"))
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("Ingest() error = %v, want ErrNoCredential", err)
	}
	if report == nil || len(report.Days) != 5 {
		t.Fatalf("partial report missing: %+v", report)
	}
	if report.Stored != 2 {
		t.Errorf("report = %s, want the 2 days fetched before the credential was cleared", report.Summary())
	}
	if got := report.Days[2]; got.Kind != models.ErrorKindNoCredential || got.StatusCode != 0 {
		t.Errorf("Days[2] = %+v, want no_credential without a status", got)
	}
	for _, day := range report.Days[3:] {
		if day.Outcome != models.OutcomeFailed || day.Kind != models.ErrorKindCanceled {
			t.Errorf("day %s = %+v, want canceled", day.Date, day)
		}
	}
	if !report.NeedsReauth {
		t.Error("NeedsReauth = false after losing the credential")
	}
	if n := len(f.callList()); n != 2 {
		t.Errorf("fetched %d days, want 2", n)
	}
}

func TestIngest_NoSubject(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(newMemStore(), echoFetcher(), newCreds(""))
	_, err := o.Ingest(context.Background(), models.CategorySleep, "", d("2023-01-01"), d("2023-01-02"))
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
}

func TestIngest_EmptyRange(t *testing.T) {
	t.Parallel()

	f := echoFetcher()
	o := newTestOrchestrator(newMemStore(), f, newCreds("SUBJ"))
	report, err := o.Ingest(context.Background(), models.CategorySleep, "", d("2023-01-01"), d("2023-01-01"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(report.Days) != 0 || len(f.callList()) != 0 {
		t.Errorf("begin == end processed %d days", len(report.Days))
	}
}

func TestIngest_NoData(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	f := &fakeFetcher{fn: func(context.Context, models.Category, models.Date) ([]byte, error) {
		return []byte(`{"sleep":[],"summary":{"totalMinutesAsleep":0}}`), nil
	}}
	o := newTestOrchestrator(store, f, newCreds("SUBJ"))

	report, err := o.Ingest(context.Background(), models.CategorySleep, "", d("2023-01-01"), d("2023-01-03"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if report.NoData != 2 || report.Failed != 0 || store.total() != 0 {
		t.Errorf("report = %s, stored %d", report.Summary(), store.total())
	}
}

func TestIngest_ParseFailure(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{fn: func(context.Context, models.Category, models.Date) ([]byte, error) {
		return []byte(`{"sleep":"not-a-list"}`), nil
	}}
	o := newTestOrchestrator(newMemStore(), f, newCreds("SUBJ"))

	report, _ := o.Ingest(context.Background(), models.CategorySleep, "", d("2023-01-01"), d("2023-01-02"))
	if report.Days[0].Kind != models.ErrorKindParse {
		t.Errorf("Days[0] = %+v, want parse failure", report.Days[0])
	}
}

// The upstream may attribute data to a different day than requested. The
// write is guarded by the day the payload reports.
func TestIngest_AuthoritativeDateGuard(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.enforceUnique = false
	store.put("SUBJ", "2023-01-01", models.CategorySleep)

	f := &fakeFetcher{fn: func(context.Context, models.Category, models.Date) ([]byte, error) {
		return sleepBody("2023-01-01"), nil
	}}
	o := newTestOrchestrator(store, f, newCreds("SUBJ"))

	report, err := o.Ingest(context.Background(), models.CategorySleep, "", d("2023-01-02"), d("2023-01-03"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	day := report.Days[0]
	if day.Outcome != models.OutcomeDuplicate || day.RecordDate.String() != "2023-01-01" {
		t.Errorf("day = %+v, want duplicate on 2023-01-01", day)
	}
	if store.count("SUBJ/2023-01-01/sleep") != 1 || store.count("SUBJ/2023-01-02/sleep") != 0 {
		t.Error("record written under the wrong or a duplicate key")
	}
}

func TestIngest_StoreLevelDuplicateIsNotFailure(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.insertErr = func(*models.Record) error { return fmt.Errorf("insert: %w", models.ErrDuplicateKey) }
	o := newTestOrchestrator(store, echoFetcher(), newCreds("SUBJ"))

	report, _ := o.Ingest(context.Background(), models.CategoryHeart, "", d("2023-01-01"), d("2023-01-02"))
	if report.Duplicates != 1 || report.Failed != 0 {
		t.Errorf("report = %s", report.Summary())
	}
}

func TestIngest_StoreError(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.insertErr = func(rec *models.Record) error {
		if rec.Date.String() == "2023-01-02" {
			return errors.New("disk full")
		}
		return nil
	}
	o := newTestOrchestrator(store, echoFetcher(), newCreds("SUBJ"))

	report, err := o.Ingest(context.Background(), models.CategorySleep, "", d("2023-01-01"), d("2023-01-04"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if report.Stored != 2 || report.Failed != 1 || report.Days[1].Kind != models.ErrorKindStore {
		t.Errorf("report = %+v", report)
	}
}

// Two overlapping ingestions race through the guard; the per-key lock
// must leave exactly one record per key even without a store constraint.
func TestIngest_ConcurrentSameKeys(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.enforceUnique = false

	var inFlight atomic.Int32
	f := &fakeFetcher{fn: func(_ context.Context, _ models.Category, day models.Date) ([]byte, error) {
		inFlight.Add(1)
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return sleepBody(day.String()), nil
	}}
	o := newTestOrchestrator(store, f, newCreds("SUBJ"))

	var wg sync.WaitGroup
	reports := make([]*models.IngestionReport, 4)
	for i := range reports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := o.Ingest(context.Background(), models.CategorySleep, "SUBJ", d("2023-05-01"), d("2023-05-08"))
			if err != nil {
				t.Errorf("Ingest() error = %v", err)
			}
			reports[i] = r
		}()
	}
	wg.Wait()

	for _, day := range models.DaysInRange(d("2023-05-01"), d("2023-05-08")) {
		key := "SUBJ/" + day.String() + "/sleep"
		if n := store.count(key); n != 1 {
			t.Errorf("%s stored %d times, want 1", key, n)
		}
	}

	stored := 0
	for _, r := range reports {
		if r == nil {
			continue
		}
		stored += r.Stored
		if r.Stored+r.Duplicates != 7 {
			t.Errorf("report = %s", r.Summary())
		}
	}
	if stored != 7 {
		t.Errorf("total stored across calls = %d, want 7", stored)
	}
	if o.locks.Len() != 0 {
		t.Errorf("lock table holds %d keys after completion", o.locks.Len())
	}
}

func TestIngest_Cancellation(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeFetcher{fn: func(_ context.Context, _ models.Category, day models.Date) ([]byte, error) {
		if day.String() == "2023-01-02" {
			cancel()
		}
		return sleepBody(day.String()), nil
	}}
	o := New(Config{Concurrency: 1, MaxRangeDays: 366}, newCreds("SUBJ"), f, store)

	report, err := o.Ingest(ctx, models.CategorySleep, "", d("2023-01-01"), d("2023-01-11"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Ingest() error = %v, want context.Canceled", err)
	}
	if report == nil || len(report.Days) != 10 {
		t.Fatalf("partial report missing: %+v", report)
	}
	if report.Days[0].Outcome != models.OutcomeStored {
		t.Errorf("Days[0] = %+v, want stored", report.Days[0])
	}
	if store.count("SUBJ/2023-01-01/sleep") != 1 {
		t.Error("completed day before cancellation is not durable")
	}
	last := report.Days[9]
	if last.Outcome != models.OutcomeFailed || last.Kind != models.ErrorKindCanceled {
		t.Errorf("Days[9] = %+v, want canceled", last)
	}
	if report.Stored+report.Failed+report.Duplicates != 10 {
		t.Errorf("report = %s", report.Summary())
	}
	if n := len(f.callList()); n > 2 {
		t.Errorf("fetched %d days after cancellation", n)
	}
}

// recordingArchiver and recordingPublisher capture side effects.
type recordingArchiver struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (a *recordingArchiver) Archive(_ context.Context, key models.RecordKey, body []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, key.String())
	return a.err
}

type recordingPublisher struct {
	records  atomic.Int32
	subjects atomic.Int32
}

func (p *recordingPublisher) PublishRecordIngested(context.Context, *models.Record) error {
	p.records.Add(1)
	return nil
}

func (p *recordingPublisher) PublishSubjectEnrolled(context.Context, *models.Subject) error {
	p.subjects.Add(1)
	return nil
}

func TestIngest_ArchiveAndPublish(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.put("SUBJ", "2023-01-01", models.CategoryHeart)
	arch := &recordingArchiver{err: errors.New("bucket unavailable")}
	pub := &recordingPublisher{}
	o := newTestOrchestrator(store, echoFetcher(), newCreds("SUBJ"), WithArchiver(arch), WithPublisher(pub))

	report, err := o.Ingest(context.Background(), models.CategoryHeart, "", d("2023-01-01"), d("2023-01-04"))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if report.Stored != 2 || report.Duplicates != 1 {
		t.Fatalf("report = %s", report.Summary())
	}
	if len(arch.keys) != 2 {
		t.Errorf("archived %v, want the 2 stored days", arch.keys)
	}
	if pub.records.Load() != 2 {
		t.Errorf("published %d record events, want 2", pub.records.Load())
	}
}

func TestKeyedMutex(t *testing.T) {
	t.Parallel()

	k := NewKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b") // distinct keys do not block

	acquired := make(chan struct{})
	released := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		close(acquired)
		unlock()
		close(released)
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock(a) acquired while held")
	case <-time.After(20 * time.Millisecond):
	}

	unlockA()
	unlockA() // idempotent
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Lock(a) not released")
	}
	unlockB()
	<-released

	if k.Len() != 0 {
		t.Errorf("Len() = %d after all unlocks", k.Len())
	}
}
