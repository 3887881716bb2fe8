// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

// Package kvstore is the embedded BadgerDB store.
//
// It serves two roles: the persisted OAuth credential (always, at
// CREDENTIAL_STORE_PATH) and, with DATABASE_BACKEND=badger, the record and
// subject store. Keys:
//
//	record:<subject>/<YYYY-MM-DD>/<category>
//	subject:<external id>
//	credential:current
//
// Inserts read and write the key in one transaction; Badger's conflict
// detection makes the first committed writer win and the rest see
// models.ErrDuplicateKey.
package kvstore
