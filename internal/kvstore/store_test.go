// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package kvstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/sleepsight/internal/credential"
	"github.com/tomtom215/sleepsight/internal/models"
	"github.com/tomtom215/sleepsight/internal/testinfra"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreSuite(t *testing.T) {
	t.Parallel()
	testinfra.RunStoreSuite(t, func(t *testing.T) testinfra.RecordSubjectStore {
		return setupTestStore(t)
	})
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.InsertSubject(ctx, &models.Subject{ExternalID: "ABC123", Name: "Jane Doe", Token: "sealed"}); err != nil {
		t.Fatalf("InsertSubject() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	got, err := s.GetSubject(ctx, "ABC123")
	if err != nil {
		t.Fatalf("GetSubject() error = %v", err)
	}
	if got.Token != "sealed" {
		t.Errorf("Token = %q, want sealed", got.Token)
	}
	if err := s.RunGC(); err != nil {
		t.Errorf("RunGC() error = %v", err)
	}
}

func TestCredentialPersistence(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.LoadCredential(ctx); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("LoadCredential() on empty store error = %v, want ErrNotFound", err)
	}

	enc, err := credential.NewEncryptor("kvstore-test-secret-0123456789abcdef")
	if err != nil {
		t.Fatal(err)
	}
	want := models.Credential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		SubjectID:    "ABC123",
		Scopes:       []string{"sleep", "heartrate"},
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := credential.Save(ctx, s, enc, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := s.LoadCredential(ctx)
	if err != nil {
		t.Fatalf("LoadCredential() error = %v", err)
	}
	if raw.AccessToken == "access-1" {
		t.Error("access token stored in plaintext")
	}

	got, err := credential.Load(ctx, s, enc)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.AccessToken != "access-1" || got.RefreshToken != "refresh-1" || got.SubjectID != "ABC123" {
		t.Errorf("Load() = %+v", got)
	}
	if !got.Expiry.Equal(want.Expiry) {
		t.Errorf("Expiry = %v, want %v", got.Expiry, want.Expiry)
	}

	want.AccessToken = "access-2"
	if err := credential.Save(ctx, s, enc, want); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	got, _ = credential.Load(ctx, s, enc)
	if got.AccessToken != "access-2" {
		t.Errorf("credential not replaced: %+v", got)
	}
}

func TestGarbageCollector_StopsOnCancel(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	gc := NewGarbageCollector(s, "test", 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gc.RunWithContext(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
}
