// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package database

import (
	"context"
	"fmt"
)

// schemaStatements create the store tables. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS subjects (
		external_id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL,
		age INTEGER NOT NULL DEFAULT 0,
		gender VARCHAR NOT NULL DEFAULT '',
		date_of_birth VARCHAR NOT NULL DEFAULT '',
		token VARCHAR NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS records (
		id UUID NOT NULL,
		subject_id VARCHAR NOT NULL,
		record_date DATE NOT NULL,
		category VARCHAR NOT NULL,
		payload VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (subject_id, record_date, category)
	)`,
}

// createTables applies schemaStatements in order.
func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
