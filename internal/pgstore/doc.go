// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

// Package pgstore is the Postgres record and subject store, selected with
// DATABASE_BACKEND=postgres. It uses a pgx connection pool, stores payloads
// as JSONB and enforces key uniqueness with primary keys.
package pgstore
