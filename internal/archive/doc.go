// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

// Package archive keeps the raw upstream response of every stored record in
// an S3-compatible bucket (MinIO, S3, R2). It is enabled with
// ARCHIVE_ENABLED=true and is best effort: the orchestrator logs a failed
// write and still stores the record.
package archive
