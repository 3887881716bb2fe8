// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

// Package services adapts components to suture.Service: HTTPServerService
// for *http.Server and RunnerService for anything with
// RunWithContext(ctx) error.
package services
