// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package credential

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/metrics"
)

// Refresher keeps the live credential valid by refreshing it shortly before
// it expires.
type Refresher struct {
	manager  *Manager
	store    *Store
	interval time.Duration
	leeway   time.Duration
	now      func() time.Time
}

// NewRefresher checks the credential every interval and refreshes it once it
// is within leeway of expiry.
func NewRefresher(manager *Manager, store *Store, interval, leeway time.Duration) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Refresher{
		manager:  manager,
		store:    store,
		interval: interval,
		leeway:   leeway,
		now:      time.Now,
	}
}

// RunWithContext blocks until ctx is canceled.
func (r *Refresher) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.check(ctx)
		}
	}
}

// check refreshes the credential if needed. It reports whether a refresh
// was performed successfully.
func (r *Refresher) check(ctx context.Context) bool {
	cred, err := r.store.Current()
	if err != nil {
		return false
	}
	if !cred.ExpiresWithin(r.now(), r.leeway) {
		return false
	}
	if cred.RefreshToken == "" {
		metrics.RecordCredentialRefresh("skipped")
		logging.Warn().
			Time("expiry", cred.Expiry).
			Msg("Credential is about to expire and has no refresh token; reauthorization required")
		return false
	}

	refreshed, err := r.manager.Refresh(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false
		}
		logging.Error().Err(err).Time("expiry", cred.Expiry).Msg("Credential refresh failed")
		return false
	}
	logging.Info().
		Str("subject_id", refreshed.SubjectID).
		Time("expiry", refreshed.Expiry).
		Msg("Credential refreshed")
	return true
}
