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

	"github.com/tomtom215/sleepsight/internal/metrics"
	"github.com/tomtom215/sleepsight/internal/models"
)

// GetSubject loads a subject by external id, or models.ErrNotFound.
func (db *DB) GetSubject(ctx context.Context, externalID string) (*models.Subject, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	s := &models.Subject{ExternalID: externalID}
	err := db.conn.QueryRowContext(ctx, `
		SELECT name, age, gender, date_of_birth, token, created_at
		FROM subjects WHERE external_id = ?`, externalID).
		Scan(&s.Name, &s.Age, &s.Gender, &s.DateOfBirth, &s.Token, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordStoreOperation(backendName, "get_subject", time.Since(start), false)
		return nil, models.ErrNotFound
	}
	metrics.RecordStoreOperation(backendName, "get_subject", time.Since(start), err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get subject %s: %w", externalID, err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

// InsertSubject stores s, or returns models.ErrDuplicateKey if the external
// id is already enrolled.
func (db *DB) InsertSubject(ctx context.Context, s *models.Subject) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO subjects (external_id, name, age, gender, date_of_birth, token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		s.ExternalID, s.Name, s.Age, s.Gender, s.DateOfBirth, s.Token, s.CreatedAt)
	if err != nil {
		if isConstraintViolation(err) {
			metrics.RecordStoreOperation(backendName, "insert_subject", time.Since(start), false)
			return models.ErrDuplicateKey
		}
		metrics.RecordStoreOperation(backendName, "insert_subject", time.Since(start), true)
		return fmt.Errorf("failed to insert subject %s: %w", s.ExternalID, err)
	}
	metrics.RecordStoreOperation(backendName, "insert_subject", time.Since(start), false)

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrDuplicateKey
	}
	return nil
}
