// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package credential

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultStateTTL bounds how long an authorization request stays valid.
const DefaultStateTTL = 10 * time.Minute

var (
	// ErrInvalidState is returned for unknown, expired or replayed state values.
	ErrInvalidState = errors.New("invalid or expired oauth state")
)

// pendingAuth is what the callback needs to finish one authorization.
type pendingAuth struct {
	verifier  string
	expiresAt time.Time
}

// stateStore keeps pending authorizations in memory. Entries are single use.
type stateStore struct {
	mu      sync.Mutex
	pending map[string]pendingAuth
	ttl     time.Duration
	now     func() time.Time
}

func newStateStore(ttl time.Duration) *stateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &stateStore{
		pending: make(map[string]pendingAuth),
		ttl:     ttl,
		now:     time.Now,
	}
}

// put registers verifier under a fresh random state and returns the state.
func (s *stateStore) put(verifier string) (string, error) {
	state, err := randomState()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()
	s.pending[state] = pendingAuth{verifier: verifier, expiresAt: s.now().Add(s.ttl)}
	return state, nil
}

// take consumes state and returns its verifier.
func (s *stateStore) take(state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[state]
	if !ok {
		return "", ErrInvalidState
	}
	delete(s.pending, state)
	if s.now().After(p.expiresAt) {
		return "", ErrInvalidState
	}
	return p.verifier, nil
}

func (s *stateStore) cleanupLocked() {
	now := s.now()
	for k, p := range s.pending {
		if now.After(p.expiresAt) {
			delete(s.pending, k)
		}
	}
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
