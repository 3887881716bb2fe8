// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

/*
Package fitbit talks to the upstream fitness-tracker API.

# Request Paths

Paths are relative to the per-user root (default
https://api.fitbit.com/1/user/-/):

	profile     profile.json
	devices     devices.json
	friends     friends.json
	sleep       sleep/date/2024-01-15.json
	heart       activities/heart/date/2024-01-15/1d/1min.json
	activities  activities/date/2024-01-15.json
	food        foods/log/date/2024-01-15.json

Every request carries "Authorization: Bearer <access token>".

# Resilience

Client applies an hourly token bucket shared by all callers and retries
HTTP 429 with exponential backoff. BreakerClient adds a circuit breaker
that ignores client errors, so an expired credential does not open it.

# Errors

	ErrInvalidRequest  request could not be built
	ErrTransport       network failure
	*UpstreamError     non-2xx status, matches ErrUpstream
	ErrParse           body does not match the category schema
	ErrCircuitOpen     breaker rejected the call
*/
package fitbit
