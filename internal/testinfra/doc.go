// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

// Package testinfra holds shared test infrastructure.
//
// # Store Suite
//
// RunStoreSuite is the behavioral contract of every record/subject backend
// (DuckDB, Postgres, Badger). Each backend's tests call it with a factory:
//
//	func TestStoreSuite(t *testing.T) {
//	    testinfra.RunStoreSuite(t, func(t *testing.T) testinfra.RecordSubjectStore {
//	        return setupTestDB(t)
//	    })
//	}
//
// # Containers
//
// Files built with the integration tag start real Postgres and MinIO servers
// through testcontainers-go:
//
//	go test -tags integration ./internal/pgstore/... ./internal/archive/...
//
// Tests call SkipIfNoDocker first so they pass on machines without Docker.
package testinfra
