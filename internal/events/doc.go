// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

/*
Package events is the in-process event bus built on Watermill's GoChannel.

Topics:

	record.ingested   one per stored record (RecordIngested)
	subject.enrolled  one per newly enrolled subject (SubjectEnrolled)

Publishing is best effort and never affects the outcome of an ingestion.
The Consumer keeps a Feed of recent events, served at /api/events.
*/
package events
