// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

/*
Package models defines the data structures shared by every Sleepsight layer.

Key Components:

  - Date: calendar day used in upstream paths and store keys (ISO "2006-01-02")
  - Category: upstream data category ("sleep", "heart", "profile", ...)
  - Subject: enrolled participant, created once on first profile fetch
  - Record: one (subject, date, category) data point with a typed payload
  - Payload: tagged union of SleepPayload and HeartPayload
  - Credential: the single process-wide OAuth2 bearer credential
  - IngestionReport / DayOutcome: per-day results of a range ingestion

Record Keys:

A Record is identified by RecordKey{SubjectID, Date, Category}. Stores reject
a second insert for an existing key with ErrDuplicateKey; callers treat that as
a normal duplicate outcome rather than a failure.

Payloads:

Payloads are parsed and validated when fetched, not stored as opaque blobs.
DecodePayload restores the concrete variant from stored JSON:

	payload, err := models.DecodePayload(models.CategorySleep, data)
	sleep := payload.(*models.SleepPayload)

Thread Safety:

All types in this package are plain values. Callers that share them across
goroutines must not mutate them after publication.
*/
package models
