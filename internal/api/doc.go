// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

/*
Package api serves the operational HTTP surface on a Chi router.

Routes:

	GET  /auth/fitbit                    redirect to the upstream consent page
	GET  /auth/fitbit/callback           complete authorization, then redirect to profile
	GET  /api/fitbit/profile             enroll the credential's subject
	GET  /api/fitbit/{sleep,heart}       ingest [begin, end) from query or JSON body
	POST /api/fitbit/{sleep,heart}       ingest {"date":{"begin","end"}}
	GET  /api/fitbit/request/{category}  redacted request preview
	GET  /api/events                     recently consumed events
	GET  /api/health[/live|/ready]       health checks
	GET  /metrics                        Prometheus

Every JSON body uses the models.APIResponse envelope. Ingestion errors map
to 400 (invalid request), 401 (no credential) or 500.

Middleware order: request id with logging context, real IP, request
logging, panic recovery, CORS (go-chi/cors), then per-group rate limiting
(go-chi/httprate), security headers and Prometheus metrics.
*/
package api
