// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/metrics"
	"github.com/tomtom215/sleepsight/internal/models"
)

// Key prefixes
const (
	recordKeyPrefix  = "record:"
	subjectKeyPrefix = "subject:"
	credentialKey    = "credential:current"
)

const (
	backendName = "badger"

	// maxConflictRetries bounds retries of a transaction that lost an
	// optimistic conflict to a concurrent writer.
	maxConflictRetries = 3
)

// Store keeps records, subjects and the persisted credential in BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a Badger database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("create badger directory %s: %w", path, err)
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.ValueLogFileSize = 64 << 20
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	logging.Info().Str("path", path).Msg("Badger store ready")
	return &Store{db: db}, nil
}

// OpenInMemory opens a throwaway in-memory database.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return nil
}

// recordValue is the stored form of a Record.
type recordValue struct {
	ID        uuid.UUID       `json:"id"`
	SubjectID string          `json:"subject_id"`
	Date      string          `json:"date"`
	Category  models.Category `json:"category"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func recordKey(key models.RecordKey) []byte {
	return []byte(recordKeyPrefix + key.String())
}

// RecordExists reports whether a record with key is stored.
func (s *Store) RecordExists(_ context.Context, key models.RecordKey) (bool, error) {
	start := time.Now()
	var exists bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(recordKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	metrics.RecordStoreOperation(backendName, "record_exists", time.Since(start), err != nil)
	if err != nil {
		return false, fmt.Errorf("check record %s: %w", key, err)
	}
	return exists, nil
}

// InsertRecord stores rec, or returns models.ErrDuplicateKey.
func (s *Store) InsertRecord(ctx context.Context, rec *models.Record) error {
	payload, err := models.EncodePayload(rec.Payload)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", rec.Key(), err)
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(recordValue{
		ID:        rec.ID,
		SubjectID: rec.SubjectID,
		Date:      rec.Date.String(),
		Category:  rec.Category,
		Payload:   payload,
		CreatedAt: rec.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return s.insertOnce(ctx, "insert_record", recordKey(rec.Key()), data)
}

// GetRecord loads the record stored under key, or models.ErrNotFound.
func (s *Store) GetRecord(_ context.Context, key models.RecordKey) (*models.Record, error) {
	var v recordValue
	if err := s.get(recordKey(key), &v); err != nil {
		return nil, err
	}
	p, err := models.DecodePayload(v.Category, v.Payload)
	if err != nil {
		return nil, err
	}
	return &models.Record{
		ID:        v.ID,
		SubjectID: v.SubjectID,
		Date:      key.Date,
		Category:  v.Category,
		Payload:   p,
		CreatedAt: v.CreatedAt.UTC(),
	}, nil
}

// subjectValue is the stored form of a Subject. Token is excluded from the
// public JSON form of models.Subject, so it is carried explicitly.
type subjectValue struct {
	models.Subject
	Token string `json:"token"`
}

// GetSubject loads a subject by external id, or models.ErrNotFound.
func (s *Store) GetSubject(_ context.Context, externalID string) (*models.Subject, error) {
	start := time.Now()
	var v subjectValue
	err := s.get([]byte(subjectKeyPrefix+externalID), &v)
	metrics.RecordStoreOperation(backendName, "get_subject", time.Since(start), err != nil && !errors.Is(err, models.ErrNotFound))
	if err != nil {
		return nil, err
	}
	sub := v.Subject
	sub.Token = v.Token
	sub.CreatedAt = sub.CreatedAt.UTC()
	return &sub, nil
}

// InsertSubject stores sub, or returns models.ErrDuplicateKey.
func (s *Store) InsertSubject(ctx context.Context, sub *models.Subject) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(subjectValue{Subject: *sub, Token: sub.Token})
	if err != nil {
		return fmt.Errorf("marshal subject: %w", err)
	}
	return s.insertOnce(ctx, "insert_subject", []byte(subjectKeyPrefix+sub.ExternalID), data)
}

// insertOnce sets key to data unless key exists. A transaction that loses a
// conflict is retried and then sees the winner's write.
func (s *Store) insertOnce(ctx context.Context, op string, key, data []byte) error {
	start := time.Now()
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			_, getErr := txn.Get(key)
			if getErr == nil {
				return models.ErrDuplicateKey
			}
			if !errors.Is(getErr, badger.ErrKeyNotFound) {
				return getErr
			}
			return txn.Set(key, data)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}

	switch {
	case err == nil, errors.Is(err, models.ErrDuplicateKey):
		metrics.RecordStoreOperation(backendName, op, time.Since(start), false)
		return err
	default:
		metrics.RecordStoreOperation(backendName, op, time.Since(start), true)
		return fmt.Errorf("%s %s: %w", op, key, err)
	}
}

// get unmarshals the value at key into v, or returns models.ErrNotFound.
func (s *Store) get(key []byte, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}
