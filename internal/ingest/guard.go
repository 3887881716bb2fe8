// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package ingest

import (
	"context"
	"fmt"

	"github.com/tomtom215/sleepsight/internal/models"
)

// RecordStore persists records. InsertRecord must fail with
// models.ErrDuplicateKey, never overwrite, when the key exists.
type RecordStore interface {
	RecordExists(ctx context.Context, key models.RecordKey) (bool, error)
	InsertRecord(ctx context.Context, rec *models.Record) error
}

// SubjectStore persists subjects. GetSubject returns models.ErrNotFound for
// unknown ids; InsertSubject fails with models.ErrDuplicateKey on collision.
type SubjectStore interface {
	GetSubject(ctx context.Context, externalID string) (*models.Subject, error)
	InsertSubject(ctx context.Context, s *models.Subject) error
}

// Store is the full persistence port used by the Orchestrator.
type Store interface {
	RecordStore
	SubjectStore
}

// Guard is the duplicate check run before every fetch and again before
// every write.
type Guard struct {
	store RecordStore
}

// NewGuard creates a Guard over store.
func NewGuard(store RecordStore) *Guard {
	return &Guard{store: store}
}

// Exists reports whether a record for (subjectID, date, category) is stored.
func (g *Guard) Exists(ctx context.Context, subjectID string, date models.Date, category models.Category) (bool, error) {
	key := models.RecordKey{SubjectID: subjectID, Date: date, Category: category}
	ok, err := g.store.RecordExists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: check %s: %w", ErrStore, key, err)
	}
	return ok, nil
}
