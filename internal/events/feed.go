// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package events

import "sync"

// DefaultFeedSize is the number of events a Feed keeps.
const DefaultFeedSize = 200

// Feed keeps the most recent event summaries in a fixed-size ring.
type Feed struct {
	mu    sync.RWMutex
	items []Summary
	next  int
	full  bool
}

// NewFeed returns a feed holding at most size summaries.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{items: make([]Summary, size)}
}

// Add appends s, evicting the oldest entry when full.
func (f *Feed) Add(s Summary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[f.next] = s
	f.next = (f.next + 1) % len(f.items)
	if f.next == 0 {
		f.full = true
	}
}

// Recent returns up to limit summaries, newest first. limit <= 0 returns all.
func (f *Feed) Recent(limit int) []Summary {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := f.next
	if f.full {
		n = len(f.items)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Summary, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (f.next - i + len(f.items)) % len(f.items)
		out = append(out, f.items[idx])
	}
	return out
}
