// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package api

import (
	"context"
	"time"

	"github.com/tomtom215/sleepsight/internal/events"
	"github.com/tomtom215/sleepsight/internal/fitbit"
	"github.com/tomtom215/sleepsight/internal/models"
)

// Ingester runs range and profile ingestion.
type Ingester interface {
	Ingest(ctx context.Context, category models.Category, subjectID string, begin, end models.Date) (*models.IngestionReport, error)
	IngestProfile(ctx context.Context) (*models.ProfileResult, error)
}

// Authorizer drives the OAuth authorization code flow.
type Authorizer interface {
	AuthorizationURL(ctx context.Context) (string, error)
	HandleCallback(ctx context.Context, state, code string) (models.Credential, error)
}

// CredentialSource exposes the live credential.
type CredentialSource interface {
	Current() (models.Credential, error)
}

// Pinger reports store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EventFeed lists recently consumed events.
type EventFeed interface {
	Recent(limit int) []events.Summary
}

// BreakerState reports the upstream circuit breaker state.
type BreakerState interface {
	State() string
}

// Dependencies are the collaborators of Handler. Authorizer, Store and Feed
// are optional; the endpoints that need them answer 503 when they are nil.
type Dependencies struct {
	Ingester    Ingester
	Authorizer  Authorizer
	Credentials CredentialSource
	Builder     *fitbit.Builder
	Store       Pinger
	Feed        EventFeed
	Breaker     BreakerState
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_auth.go: OAuth start and callback
//   - handlers_fitbit.go: profile, sleep, heart and request preview
//   - handlers_health.go: health endpoints
//   - handlers_events.go: recent event feed
type Handler struct {
	deps      Dependencies
	startTime time.Time
}

// NewHandler creates a new API handler.
func NewHandler(deps Dependencies) *Handler {
	if deps.Builder == nil {
		deps.Builder = fitbit.NewBuilder("")
	}
	return &Handler{
		deps:      deps,
		startTime: time.Now(),
	}
}
