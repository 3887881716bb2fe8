// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

/*
Package config loads Sleepsight configuration with koanf.

# Configuration Sources

Layers, later overriding earlier:
  - Built-in defaults (defaultConfig)
  - YAML file from CONFIG_PATH, ./config.yaml or /etc/sleepsight/config.yaml
  - Environment variables listed in envMappings

# Example YAML

	fitbit:
	  client_id: 23ABCD
	  client_secret: 0123456789abcdef
	  redirect_url: https://sleepsight.example.org/auth/fitbit/callback
	credential:
	  encryption_key: change-me-to-a-32-character-secret!!
	database:
	  backend: postgres
	  postgres_dsn: postgres://sleepsight:secret@db:5432/sleepsight
	ingest:
	  concurrency: 4

# Environment Variables

	FITBIT_CLIENT_ID, FITBIT_CLIENT_SECRET, FITBIT_REDIRECT_URL, FITBIT_SCOPES
	FITBIT_API_BASE_URL, FITBIT_REQUESTS_PER_HOUR, FITBIT_MAX_RETRIES
	CREDENTIAL_PERSIST, CREDENTIAL_STORE_PATH, CREDENTIAL_ENCRYPTION_KEY
	DATABASE_BACKEND (duckdb|postgres|badger), DUCKDB_PATH, POSTGRES_DSN, BADGER_PATH
	ARCHIVE_ENABLED, ARCHIVE_ENDPOINT, ARCHIVE_BUCKET, ARCHIVE_ACCESS_KEY, ARCHIVE_SECRET_KEY
	INGEST_CONCURRENCY, INGEST_MAX_RANGE_DAYS, INGEST_DAY_TIMEOUT
	HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, ENVIRONMENT
	RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
	LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Durations use Go syntax ("90s", "15m"). FITBIT_SCOPES accepts a comma- or
space-separated list.
*/
package config
