// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package kvstore

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/sleepsight/internal/models"
)

// SaveCredential replaces the persisted credential. Token fields are stored
// as given; callers seal them first.
func (s *Store) SaveCredential(_ context.Context, c *models.Credential) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(credentialKey), data)
	})
}

// LoadCredential returns the persisted credential, or models.ErrNotFound.
func (s *Store) LoadCredential(_ context.Context) (*models.Credential, error) {
	var c models.Credential
	if err := s.get([]byte(credentialKey), &c); err != nil {
		return nil, err
	}
	return &c, nil
}
