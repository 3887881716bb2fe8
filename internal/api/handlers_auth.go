// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/sleepsight/internal/credential"
	"github.com/tomtom215/sleepsight/internal/logging"
)

// profilePath is where a completed authorization lands.
const profilePath = "/api/fitbit/profile"

// FitbitAuthStart redirects the browser to the upstream consent page.
//
// Endpoint: GET /auth/fitbit
//
// The URL carries a single-use state and a PKCE S256 challenge.
func (h *Handler) FitbitAuthStart(w http.ResponseWriter, r *http.Request) {
	if h.deps.Authorizer == nil {
		respondError(w, http.StatusServiceUnavailable, "OAUTH_NOT_CONFIGURED", "OAuth client is not configured", nil)
		return
	}

	authURL, err := h.deps.Authorizer.AuthorizationURL(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start authorization", err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// FitbitAuthCallback completes the authorization and redirects to profile
// ingestion.
//
// Endpoint: GET /auth/fitbit/callback?code=&state=
func (h *Handler) FitbitAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.deps.Authorizer == nil {
		respondError(w, http.StatusServiceUnavailable, "OAUTH_NOT_CONFIGURED", "OAuth client is not configured", nil)
		return
	}

	q := r.URL.Query()
	if upstreamErr := q.Get("error"); upstreamErr != "" {
		logging.Ctx(r.Context()).Warn().
			Str("error", sanitizeLogValue(upstreamErr)).
			Msg("Authorization denied upstream")
		respondError(w, http.StatusBadRequest, "AUTHORIZATION_DENIED", "Authorization was denied", nil)
		return
	}

	_, err := h.deps.Authorizer.HandleCallback(r.Context(), q.Get("state"), q.Get("code"))
	switch {
	case err == nil:
		http.Redirect(w, r, profilePath, http.StatusFound)
	case errors.Is(err, credential.ErrInvalidState):
		respondError(w, http.StatusBadRequest, "INVALID_STATE", "Authorization state is invalid or expired", nil)
	case errors.Is(err, credential.ErrExchangeFailed):
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Token exchange failed", err)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to complete authorization", err)
	}
}
