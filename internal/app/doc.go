// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

// Package app wires the configured stores, credential, upstream client and
// ingestion orchestrator. Both the HTTP server and the CLI build on it.
package app
