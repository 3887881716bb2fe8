// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/sleepsight/internal/metrics"
	"github.com/tomtom215/sleepsight/internal/models"
)

// RecordExists reports whether a record with key is stored.
func (db *DB) RecordExists(ctx context.Context, key models.RecordKey) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	var exists bool
	err := db.conn.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM records
			WHERE subject_id = ? AND record_date = CAST(? AS DATE) AND category = ?
		)`, key.SubjectID, key.Date.String(), string(key.Category)).Scan(&exists)
	metrics.RecordStoreOperation(backendName, "record_exists", time.Since(start), err != nil)
	if err != nil {
		return false, fmt.Errorf("failed to check record %s: %w", key, err)
	}
	return exists, nil
}

// InsertRecord stores rec. It returns models.ErrDuplicateKey when a record
// with the same key exists; the stored row is left untouched.
func (db *DB) InsertRecord(ctx context.Context, rec *models.Record) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	payload, err := models.EncodePayload(rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload for %s: %w", rec.Key(), err)
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO records (id, subject_id, record_date, category, payload, created_at)
		VALUES (?, ?, CAST(? AS DATE), ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		rec.ID.String(), rec.SubjectID, rec.Date.String(), string(rec.Category), string(payload), rec.CreatedAt)
	if err != nil {
		if isConstraintViolation(err) {
			metrics.RecordStoreOperation(backendName, "insert_record", time.Since(start), false)
			return models.ErrDuplicateKey
		}
		metrics.RecordStoreOperation(backendName, "insert_record", time.Since(start), true)
		return fmt.Errorf("failed to insert record %s: %w", rec.Key(), err)
	}
	metrics.RecordStoreOperation(backendName, "insert_record", time.Since(start), false)

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrDuplicateKey
	}
	return nil
}

// GetRecord loads the record stored under key, or models.ErrNotFound.
func (db *DB) GetRecord(ctx context.Context, key models.RecordKey) (*models.Record, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	var (
		id        string
		date      time.Time
		payload   string
		createdAt time.Time
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT CAST(id AS VARCHAR), record_date, payload, created_at
		FROM records
		WHERE subject_id = ? AND record_date = CAST(? AS DATE) AND category = ?`,
		key.SubjectID, key.Date.String(), string(key.Category)).Scan(&id, &date, &payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordStoreOperation(backendName, "get_record", time.Since(start), false)
		return nil, models.ErrNotFound
	}
	metrics.RecordStoreOperation(backendName, "get_record", time.Since(start), err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", key, err)
	}

	return scanRecord(key, id, date, payload, createdAt)
}

// CountRecords returns the number of stored records for a subject and category.
func (db *DB) CountRecords(ctx context.Context, subjectID string, category models.Category) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE subject_id = ? AND category = ?`,
		subjectID, string(category)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

func scanRecord(key models.RecordKey, id string, date time.Time, payload string, createdAt time.Time) (*models.Record, error) {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid record id %q: %w", id, err)
	}
	p, err := models.DecodePayload(key.Category, []byte(payload))
	if err != nil {
		return nil, err
	}
	return &models.Record{
		ID:        parsedID,
		SubjectID: key.SubjectID,
		Date:      models.DateOf(date.UTC()),
		Category:  key.Category,
		Payload:   p,
		CreatedAt: createdAt.UTC(),
	}, nil
}
