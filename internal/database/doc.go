// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

// Package database is the DuckDB record and subject store, the default
// backend for ingestion.
//
// Two tables hold all state:
//
//	records  (subject_id, record_date, category) PRIMARY KEY, payload as JSON text
//	subjects (external_id) PRIMARY KEY
//
// Inserts use ON CONFLICT DO NOTHING, so a second write of an existing key
// reports models.ErrDuplicateKey and leaves the first row as it was. Rows are
// never updated or deleted.
//
// Tests open ":memory:" databases:
//
//	db, err := database.New(&config.DatabaseConfig{Path: ":memory:"})
package database
