// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

/*
Package metrics holds the Prometheus collectors for Sleepsight.

Collectors are registered on the default registry through promauto and
exposed at /metrics:

	curl http://localhost:3000/metrics

# Available Metrics

Ingestion:
  - sleepsight_ingest_days_total{category,outcome}
  - sleepsight_ingest_failures_total{category,kind}
  - sleepsight_ingest_duration_seconds{category}
  - sleepsight_ingest_in_flight
  - sleepsight_subjects_enrolled_total{result}

Upstream:
  - sleepsight_upstream_requests_total{category,status}
  - sleepsight_upstream_request_duration_seconds{category}
  - sleepsight_upstream_rate_limited_total
  - sleepsight_circuit_breaker_state{name} (0=closed, 1=half-open, 2=open)
  - sleepsight_circuit_breaker_requests_total{name,result}
  - sleepsight_circuit_breaker_transitions_total{name,from,to}

Credential, storage and events:
  - sleepsight_credential_refresh_total{result}
  - sleepsight_credential_expiry_timestamp_seconds
  - sleepsight_store_operation_duration_seconds{backend,operation}
  - sleepsight_archive_writes_total{result}
  - sleepsight_events_published_total{topic}, sleepsight_events_consumed_total{topic}

# Example Queries

Failure ratio over the last hour:

	sum(rate(sleepsight_ingest_days_total{outcome="failed"}[1h]))
	  / sum(rate(sleepsight_ingest_days_total[1h]))

Minutes until the credential expires:

	(sleepsight_credential_expiry_timestamp_seconds - time()) / 60
*/
package metrics
