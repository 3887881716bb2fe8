// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/sleepsight/internal/logging"
)

// DefaultGCInterval is how often the value log collector runs.
const DefaultGCInterval = 10 * time.Minute

// gcDiscardRatio is the minimum reclaimable fraction of a value log file.
const gcDiscardRatio = 0.5

// RunGC rewrites value log files until nothing more can be reclaimed.
func (s *Store) RunGC() error {
	for {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// GarbageCollector runs RunGC on an interval until its context ends.
type GarbageCollector struct {
	store    *Store
	name     string
	interval time.Duration
}

// NewGarbageCollector returns a collector for store. name labels logs.
func NewGarbageCollector(store *Store, name string, interval time.Duration) *GarbageCollector {
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	return &GarbageCollector{store: store, name: name, interval: interval}
}

// RunWithContext blocks until ctx is done.
func (g *GarbageCollector) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := g.store.RunGC(); err != nil {
				logging.Warn().Err(err).Str("store", g.name).Msg("Badger value log GC failed")
				continue
			}
			logging.Debug().Str("store", g.name).Dur("took", time.Since(start)).Msg("Badger value log GC complete")
		}
	}
}
