// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package pgstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/tomtom215/sleepsight/internal/testinfra"
)

// DSNEnvVar points tests at an existing, disposable Postgres database.
const DSNEnvVar = "SLEEPSIGHT_TEST_POSTGRES_DSN"

// openTestStore connects to dsn and empties both tables.
func openTestStore(t *testing.T, dsn string) *Store {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := New(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.pool.Exec(ctx, "TRUNCATE records, subjects"); err != nil {
		s.Close()
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func runSuite(t *testing.T, dsn string) {
	t.Helper()
	testinfra.RunStoreSuite(t, func(t *testing.T) testinfra.RecordSubjectStore {
		return openTestStore(t, dsn)
	})
}

func TestStoreSuite_ExternalDSN(t *testing.T) {
	dsn := os.Getenv(DSNEnvVar)
	if dsn == "" {
		t.Skipf("%s not set", DSNEnvVar)
	}
	runSuite(t, dsn)
}

func TestNew_InvalidDSN(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), "postgres://%zz", 1); err == nil {
		t.Error("New() with malformed dsn succeeded")
	}
}
