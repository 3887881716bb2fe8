// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/sleepsight/internal/models"
)

// healthCheckTimeout bounds the store ping.
const healthCheckTimeout = 2 * time.Second

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status           string     `json:"status"` // healthy or degraded
	StoreConnected   bool       `json:"store_connected"`
	HasCredential    bool       `json:"has_credential"`
	CredentialExpiry *time.Time `json:"credential_expiry,omitempty"`
	CircuitBreaker   string     `json:"circuit_breaker,omitempty"`
	Uptime           float64    `json:"uptime_seconds"`
}

// Health reports store reachability and credential presence. A missing
// credential does not degrade health; a store that fails to ping does.
//
// Endpoint: GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	health := HealthStatus{
		Status:         "healthy",
		StoreConnected: h.storeReachable(r.Context()),
		Uptime:         time.Since(h.startTime).Seconds(),
	}
	if !health.StoreConnected {
		health.Status = "degraded"
	}
	if h.deps.Credentials != nil {
		if cred, err := h.deps.Credentials.Current(); err == nil {
			health.HasCredential = true
			if !cred.Expiry.IsZero() {
				expiry := cred.Expiry
				health.CredentialExpiry = &expiry
			}
		}
	}
	if h.deps.Breaker != nil {
		health.CircuitBreaker = h.deps.Breaker.State()
	}

	respondSuccess(w, health, start)
}

// HealthLive always answers 200 while the process serves HTTP.
//
// Endpoint: GET /api/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "alive"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady answers 503 until the store responds to a ping.
//
// Endpoint: GET /api/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.storeReachable(r.Context()) {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Store is not reachable", nil)
		return
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "ready"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

func (h *Handler) storeReachable(ctx context.Context) bool {
	if h.deps.Store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return h.deps.Store.Ping(ctx) == nil
}
