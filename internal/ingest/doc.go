// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

/*
Package ingest is the ingestion pipeline: duplicate guard, per-key locks,
range orchestration and profile enrollment.

# Day Processing

	requested day d
	  -> Guard(subject, d, category)          stored? duplicate, no fetch
	  -> credential                           cleared? no_credential, stop range
	  -> Fetch(category, d)                   transport/upstream error? failed
	  -> ParsePayload                         empty? no_data; malformed? failed
	  -> lock(subject, recordDate, category)
	  -> Guard(subject, recordDate, category) stored? duplicate
	  -> Archive (optional, best effort)
	  -> InsertRecord                         ErrDuplicateKey? duplicate
	  -> Publish (optional, best effort)      stored

Days run with bounded parallelism (Config.Concurrency). Each day's outcome
lands in the report at the index of its requested date, so the report is
ordered by date regardless of completion order.

Config.DayTimeout applies to each store step. The fetch runs on the range
context: days queue on the client's shared outbound limiter for as long as
the caller allows, and each HTTP exchange has the client's own timeout.

# Errors

Ingest returns an error only for ErrInvalidRequest, ErrNoCredential and
caller cancellation. When the credential is cleared mid-range the partial
report comes back with ErrNoCredential. Everything else is a per-day outcome.
*/
package ingest
