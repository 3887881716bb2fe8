// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

// Package logging provides the zerolog-based structured logger used across Sleepsight.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Msg("Server starting")
//	logging.Err(err).Str("category", "heart").Msg("Day failed")
//	logging.Ctx(ctx).Debug().Str("date", d.String()).Msg("Duplicate skipped")
//
// # Context
//
// HTTP middleware and the ingestion orchestrator attach a correlation ID to the
// request context. Ctx adds it, and the request ID, to every entry.
//
// # slog Bridge
//
// Suture and watermill log through log/slog. NewSlogLogger routes those
// entries into the same zerolog output:
//
//	hook := (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook()
//
// # Secrets
//
// Access tokens, refresh tokens, OAuth codes and Authorization headers must
// go through SanitizeToken, SanitizeHeader or SanitizeURL before logging.
package logging
