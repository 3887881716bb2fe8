// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion Metrics
	IngestDaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsight_ingest_days_total",
			Help: "Days processed by range ingestion, by outcome",
		},
		[]string{"category", "outcome"}, // outcome: stored, duplicate, no_data, failed
	)

	IngestFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsight_ingest_failures_total",
			Help: "Failed days by error kind",
		},
		[]string{"category", "kind"},
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sleepsight_ingest_duration_seconds",
			Help:    "Wall time of a range ingestion call",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"category"},
	)

	IngestInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sleepsight_ingest_in_flight",
			Help: "Range ingestions currently running",
		},
	)

	SubjectsEnrolledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsight_subjects_enrolled_total",
			Help: "Profile ingestions by result",
		},
		[]string{"result"}, // enrolled, exists, failed
	)

	// Upstream API Metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsight_upstream_requests_total",
			Help: "Upstream API requests by category and HTTP status (0 = transport error)",
		},
		[]string{"category", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sleepsight_upstream_request_duration_seconds",
			Help:    "Upstream API request latency including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	UpstreamRateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sleepsight_upstream_rate_limited_total",
			Help: "HTTP 429 responses received from the upstream API",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sleepsight_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsight_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sleepsight_circuit_breaker_consecutive_failures",
			Help: "Current consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsight_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Credential Metrics
	CredentialRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsight_credential_refresh_total",
			Help: "Credential refresh attempts by result",
		},
		[]string{"result"}, // success, failure, skipped
	)

	CredentialExpiry = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sleepsight_credential_expiry_timestamp_seconds",
			Help: "Unix time at which the current credential expires (0 = unknown)",
		},
	)

	// Archive and Event Metrics
	ArchiveWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsight_archive_writes_total",
			Help: "Raw payload archive writes by result",
		},
		[]string{"result"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsight_events_published_total",
			Help: "Events published on the in-process bus",
		},
		[]string{"topic"},
	)

	EventsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsight_events_consumed_total",
			Help: "Events consumed from the in-process bus",
		},
		[]string{"topic"},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sleepsight_store_operation_duration_seconds",
			Help:    "Record/subject store operation latency",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"backend", "operation"},
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsight_store_errors_total",
			Help: "Record/subject store errors (duplicates excluded)",
		},
		[]string{"backend", "operation"},
	)

	// HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleepsight_api_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sleepsight_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.005, 0.05, 0.25, 1, 5, 30, 120, 300},
		},
		[]string{"method", "route"},
	)
)

// RecordDayOutcome counts one processed day. kind is empty unless outcome is "failed".
func RecordDayOutcome(category, outcome, kind string) {
	IngestDaysTotal.WithLabelValues(category, outcome).Inc()
	if kind != "" {
		IngestFailuresTotal.WithLabelValues(category, kind).Inc()
	}
}

// RecordIngestion observes the duration of a whole range ingestion.
func RecordIngestion(category string, duration time.Duration) {
	IngestDuration.WithLabelValues(category).Observe(duration.Seconds())
}

// RecordUpstreamRequest records an upstream call. statusCode 0 means no response.
func RecordUpstreamRequest(category string, statusCode int, duration time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(category, strconv.Itoa(statusCode)).Inc()
	UpstreamRequestDuration.WithLabelValues(category).Observe(duration.Seconds())
}

// RecordStoreOperation records a store call. Pass isErr=false for duplicate-key results.
func RecordStoreOperation(backend, operation string, duration time.Duration, isErr bool) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if isErr {
		StoreErrorsTotal.WithLabelValues(backend, operation).Inc()
	}
}

// RecordCredentialRefresh counts a refresh attempt.
func RecordCredentialRefresh(result string) {
	CredentialRefreshTotal.WithLabelValues(result).Inc()
}

// SetCredentialExpiry publishes the current credential expiry. A zero time clears it.
func SetCredentialExpiry(expiry time.Time) {
	if expiry.IsZero() {
		CredentialExpiry.Set(0)
		return
	}
	CredentialExpiry.Set(float64(expiry.Unix()))
}

// RecordAPIRequest records an HTTP request.
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
