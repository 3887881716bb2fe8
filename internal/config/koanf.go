// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/sleepsight/config.yaml",
	"/etc/sleepsight/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultScopes is the scope set requested during authorization.
var DefaultScopes = []string{"activity", "heartrate", "nutrition", "profile", "settings", "sleep", "social"}

// Default returns the built-in defaults without reading a file or the
// environment.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Fitbit: FitbitConfig{
			RedirectURL:     "http://localhost:3000/auth/fitbit/callback",
			Scopes:          append([]string(nil), DefaultScopes...),
			APIBaseURL:      "https://api.fitbit.com/1/user/-/",
			AuthURL:         "https://www.fitbit.com/oauth2/authorize",
			TokenURL:        "https://api.fitbit.com/oauth2/token",
			RequestTimeout:  30 * time.Second,
			RequestsPerHour: 150, // upstream per-user hourly quota
			Burst:           10,
			MaxRetries:      3,
			RetryBaseDelay:  time.Second,
		},
		Credential: CredentialConfig{
			Persist:         true,
			StorePath:       "/data/credential",
			RefreshInterval: 5 * time.Minute,
			RefreshLeeway:   15 * time.Minute,
		},
		Database: DatabaseConfig{
			Backend:    BackendDuckDB,
			Path:       "/data/sleepsight.duckdb",
			MaxMemory:  "1GB",
			BadgerPath: "/data/records",
			MaxConns:   10,
		},
		Archive: ArchiveConfig{
			Bucket: "sleepsight-raw",
			Prefix: "raw",
			UseSSL: true,
		},
		Ingest: IngestConfig{
			Concurrency:  4,
			MaxRangeDays: 366,
			DayTimeout:   60 * time.Second,
		},
		Server: ServerConfig{
			Port:        3000,
			Host:        "0.0.0.0",
			Timeout:     5 * time.Minute, // ranged ingestion runs inside the request
			Environment: "development",
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   30,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads defaults, then the YAML file (if any), then environment
// variables, and validates the result.
func LoadWithKoanf() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is LoadWithKoanf with an explicit YAML path. An empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths accept comma-separated strings from the environment.
var sliceConfigPaths = []string{
	"fitbit.scopes",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf keys.
// Variables not listed are ignored.
var envMappings = map[string]string{
	"fitbit_client_id":         "fitbit.client_id",
	"fitbit_client_secret":     "fitbit.client_secret",
	"fitbit_redirect_url":      "fitbit.redirect_url",
	"fitbit_scopes":            "fitbit.scopes",
	"fitbit_api_base_url":      "fitbit.api_base_url",
	"fitbit_auth_url":          "fitbit.auth_url",
	"fitbit_token_url":         "fitbit.token_url",
	"fitbit_request_timeout":   "fitbit.request_timeout",
	"fitbit_requests_per_hour": "fitbit.requests_per_hour",
	"fitbit_burst":             "fitbit.burst",
	"fitbit_max_retries":       "fitbit.max_retries",
	"fitbit_retry_base_delay":  "fitbit.retry_base_delay",

	"credential_persist":          "credential.persist",
	"credential_store_path":       "credential.store_path",
	"credential_encryption_key":   "credential.encryption_key",
	"credential_refresh_interval": "credential.refresh_interval",
	"credential_refresh_leeway":   "credential.refresh_leeway",

	"database_backend":  "database.backend",
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"postgres_dsn":      "database.postgres_dsn",
	"badger_path":       "database.badger_path",
	"db_max_conns":      "database.max_conns",

	"archive_enabled":    "archive.enabled",
	"archive_endpoint":   "archive.endpoint",
	"archive_bucket":     "archive.bucket",
	"archive_access_key": "archive.access_key",
	"archive_secret_key": "archive.secret_key",
	"archive_use_ssl":    "archive.use_ssl",
	"archive_prefix":     "archive.prefix",

	"ingest_concurrency":    "ingest.concurrency",
	"ingest_max_range_days": "ingest.max_range_days",
	"ingest_day_timeout":    "ingest.day_timeout",

	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns "" for unmapped variables so koanf skips them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
