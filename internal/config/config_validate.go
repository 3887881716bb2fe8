// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package config

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// minEncryptionKeyLength is the shortest accepted credential encryption key.
	minEncryptionKeyLength = 32

	// maxFitbitRetries bounds HTTP 429 retries per upstream call.
	maxFitbitRetries = 10
)

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if err := c.validateFitbit(); err != nil {
		return err
	}
	if err := c.validateCredential(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateFitbit() error {
	for name, raw := range map[string]string{
		"FITBIT_API_BASE_URL": c.Fitbit.APIBaseURL,
		"FITBIT_AUTH_URL":     c.Fitbit.AuthURL,
		"FITBIT_TOKEN_URL":    c.Fitbit.TokenURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if !strings.HasSuffix(c.Fitbit.APIBaseURL, "/") {
		return fmt.Errorf("FITBIT_API_BASE_URL must end with '/', got %q", c.Fitbit.APIBaseURL)
	}
	if c.Fitbit.RequestsPerHour < 1 {
		return fmt.Errorf("FITBIT_REQUESTS_PER_HOUR must be at least 1")
	}
	if c.Fitbit.Burst < 1 {
		return fmt.Errorf("FITBIT_BURST must be at least 1")
	}
	if c.Fitbit.MaxRetries < 0 || c.Fitbit.MaxRetries > maxFitbitRetries {
		return fmt.Errorf("FITBIT_MAX_RETRIES must be between 0 and %d, got %d", maxFitbitRetries, c.Fitbit.MaxRetries)
	}
	if c.Fitbit.RequestTimeout <= 0 {
		return fmt.Errorf("FITBIT_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// OAuthEnabled reports whether the authorization-code flow can run.
func (c *Config) OAuthEnabled() bool {
	return c.Fitbit.ClientID != "" && c.Fitbit.ClientSecret != ""
}

func (c *Config) validateCredential() error {
	if (c.Fitbit.ClientID == "") != (c.Fitbit.ClientSecret == "") {
		return fmt.Errorf("FITBIT_CLIENT_ID and FITBIT_CLIENT_SECRET must be set together")
	}
	if key := c.Credential.EncryptionKey; key != "" && len(key) < minEncryptionKeyLength {
		return fmt.Errorf("CREDENTIAL_ENCRYPTION_KEY must be at least %d characters", minEncryptionKeyLength)
	}
	if c.Credential.Persist && c.Credential.StorePath == "" {
		return fmt.Errorf("CREDENTIAL_STORE_PATH is required when CREDENTIAL_PERSIST=true")
	}
	if c.Credential.RefreshInterval <= 0 {
		return fmt.Errorf("CREDENTIAL_REFRESH_INTERVAL must be positive")
	}
	if c.Credential.RefreshLeeway < 0 {
		return fmt.Errorf("CREDENTIAL_REFRESH_LEEWAY cannot be negative")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Backend {
	case BackendDuckDB:
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required for the duckdb backend")
		}
	case BackendPostgres:
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	case BackendBadger:
		if c.Database.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required for the badger backend")
		}
		if c.Credential.Persist && c.Database.BadgerPath == c.Credential.StorePath {
			return fmt.Errorf("BADGER_PATH and CREDENTIAL_STORE_PATH must differ")
		}
	default:
		return fmt.Errorf("DATABASE_BACKEND must be one of %s, %s, %s; got %q",
			BackendDuckDB, BackendPostgres, BackendBadger, c.Database.Backend)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1")
	}
	return nil
}

func (c *Config) validateArchive() error {
	if !c.Archive.Enabled {
		return nil
	}
	if c.Archive.Endpoint == "" {
		return fmt.Errorf("ARCHIVE_ENDPOINT is required when ARCHIVE_ENABLED=true")
	}
	if strings.Contains(c.Archive.Endpoint, "://") {
		return fmt.Errorf("ARCHIVE_ENDPOINT must be host[:port] without a scheme, got %q", c.Archive.Endpoint)
	}
	if c.Archive.Bucket == "" {
		return fmt.Errorf("ARCHIVE_BUCKET is required when ARCHIVE_ENABLED=true")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.Concurrency < 1 {
		return fmt.Errorf("INGEST_CONCURRENCY must be at least 1")
	}
	if c.Ingest.MaxRangeDays < 1 {
		return fmt.Errorf("INGEST_MAX_RANGE_DAYS must be at least 1")
	}
	if c.Ingest.DayTimeout <= 0 {
		return fmt.Errorf("INGEST_DAY_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}
