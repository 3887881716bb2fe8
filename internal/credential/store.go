// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package credential

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/tomtom215/sleepsight/internal/metrics"
	"github.com/tomtom215/sleepsight/internal/models"
)

// ErrNoCredential is returned when no credential has ever been set.
var ErrNoCredential = errors.New("no credential available")

// Store holds the process-wide credential. Set replaces the value with a
// single pointer swap, so concurrent readers never observe a partial update.
type Store struct {
	current atomic.Pointer[models.Credential]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Current returns a copy of the live credential.
func (s *Store) Current() (models.Credential, error) {
	c := s.current.Load()
	if c == nil {
		return models.Credential{}, ErrNoCredential
	}
	return clone(c), nil
}

// Set replaces the live credential. Last write wins.
func (s *Store) Set(c models.Credential) {
	stored := clone(&c)
	s.current.Store(&stored)
	metrics.SetCredentialExpiry(stored.Expiry)
}

// SetSubjectID records the subject id on the live credential if it has none.
// It reports whether the credential changed.
func (s *Store) SetSubjectID(subjectID string) bool {
	for {
		old := s.current.Load()
		if old == nil || old.SubjectID != "" || subjectID == "" {
			return false
		}
		updated := clone(old)
		updated.SubjectID = subjectID
		if s.current.CompareAndSwap(old, &updated) {
			return true
		}
	}
}

// Expiry returns the expiry of the live credential. ok is false when no
// credential is set or its expiry is unknown.
func (s *Store) Expiry() (expiry time.Time, ok bool) {
	c := s.current.Load()
	if c == nil || c.Expiry.IsZero() {
		return time.Time{}, false
	}
	return c.Expiry, true
}

// Clear drops the live credential.
func (s *Store) Clear() {
	s.current.Store(nil)
	metrics.SetCredentialExpiry(time.Time{})
}

func clone(c *models.Credential) models.Credential {
	out := *c
	if c.Scopes != nil {
		out.Scopes = append([]string(nil), c.Scopes...)
	}
	return out
}
