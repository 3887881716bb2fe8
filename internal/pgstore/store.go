// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/metrics"
	"github.com/tomtom215/sleepsight/internal/models"
)

const (
	backendName = "postgres"

	// uniqueViolation is the SQLSTATE for a unique or primary key violation.
	uniqueViolation = "23505"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS subjects (
		external_id   TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		age           INTEGER NOT NULL DEFAULT 0,
		gender        TEXT NOT NULL DEFAULT '',
		date_of_birth TEXT NOT NULL DEFAULT '',
		token         TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS records (
		id          UUID NOT NULL,
		subject_id  TEXT NOT NULL,
		record_date DATE NOT NULL,
		category    TEXT NOT NULL,
		payload     JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (subject_id, record_date, category)
	)`,
}

// Store is the Postgres record and subject store.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to dsn, creates the schema and returns the store.
// maxConns <= 0 keeps the pgxpool default.
func New(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns) //nolint:gosec // bounded by config validation
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	s := &Store{pool: pool}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	logging.Info().Str("host", cfg.ConnConfig.Host).Int32("max_conns", cfg.MaxConns).Msg("Postgres store ready")
	return s, nil
}

// Ping checks that the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// RecordExists reports whether a record with key is stored.
func (s *Store) RecordExists(ctx context.Context, key models.RecordKey) (bool, error) {
	start := time.Now()
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM records
			WHERE subject_id = $1 AND record_date = $2::date AND category = $3
		)`, key.SubjectID, key.Date.String(), string(key.Category)).Scan(&exists)
	metrics.RecordStoreOperation(backendName, "record_exists", time.Since(start), err != nil)
	if err != nil {
		return false, fmt.Errorf("failed to check record %s: %w", key, err)
	}
	return exists, nil
}

// InsertRecord stores rec, or returns models.ErrDuplicateKey.
func (s *Store) InsertRecord(ctx context.Context, rec *models.Record) error {
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

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO records (id, subject_id, record_date, category, payload, created_at)
		VALUES ($1::uuid, $2, $3::date, $4, $5::jsonb, $6)
		ON CONFLICT (subject_id, record_date, category) DO NOTHING`,
		rec.ID.String(), rec.SubjectID, rec.Date.String(), string(rec.Category), string(payload), rec.CreatedAt)
	return s.insertResult("insert_record", start, tag, err, rec.Key().String())
}

// GetRecord loads the record stored under key, or models.ErrNotFound.
func (s *Store) GetRecord(ctx context.Context, key models.RecordKey) (*models.Record, error) {
	start := time.Now()
	var (
		id        string
		payload   string
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, payload::text, created_at
		FROM records
		WHERE subject_id = $1 AND record_date = $2::date AND category = $3`,
		key.SubjectID, key.Date.String(), string(key.Category)).Scan(&id, &payload, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordStoreOperation(backendName, "get_record", time.Since(start), false)
		return nil, models.ErrNotFound
	}
	metrics.RecordStoreOperation(backendName, "get_record", time.Since(start), err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", key, err)
	}

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
		Date:      key.Date,
		Category:  key.Category,
		Payload:   p,
		CreatedAt: createdAt.UTC(),
	}, nil
}

// GetSubject loads a subject by external id, or models.ErrNotFound.
func (s *Store) GetSubject(ctx context.Context, externalID string) (*models.Subject, error) {
	start := time.Now()
	sub := &models.Subject{ExternalID: externalID}
	err := s.pool.QueryRow(ctx, `
		SELECT name, age, gender, date_of_birth, token, created_at
		FROM subjects WHERE external_id = $1`, externalID).
		Scan(&sub.Name, &sub.Age, &sub.Gender, &sub.DateOfBirth, &sub.Token, &sub.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordStoreOperation(backendName, "get_subject", time.Since(start), false)
		return nil, models.ErrNotFound
	}
	metrics.RecordStoreOperation(backendName, "get_subject", time.Since(start), err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get subject %s: %w", externalID, err)
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	return sub, nil
}

// InsertSubject stores sub, or returns models.ErrDuplicateKey.
func (s *Store) InsertSubject(ctx context.Context, sub *models.Subject) error {
	start := time.Now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO subjects (external_id, name, age, gender, date_of_birth, token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_id) DO NOTHING`,
		sub.ExternalID, sub.Name, sub.Age, sub.Gender, sub.DateOfBirth, sub.Token, sub.CreatedAt)
	return s.insertResult("insert_subject", start, tag, err, sub.ExternalID)
}

// insertResult maps an INSERT ... ON CONFLICT DO NOTHING result to the store contract.
func (s *Store) insertResult(op string, start time.Time, tag pgconn.CommandTag, err error, what string) error {
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			metrics.RecordStoreOperation(backendName, op, time.Since(start), false)
			return models.ErrDuplicateKey
		}
		metrics.RecordStoreOperation(backendName, op, time.Since(start), true)
		return fmt.Errorf("%s %s: %w", op, what, err)
	}
	metrics.RecordStoreOperation(backendName, op, time.Since(start), false)
	if tag.RowsAffected() == 0 {
		return models.ErrDuplicateKey
	}
	return nil
}
