// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

//go:build integration

package testinfra

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultMinIOImage is the MinIO image used by integration tests.
	DefaultMinIOImage = "minio/minio:latest"

	minioPort = "9000/tcp"

	// MinIOAccessKey and MinIOSecretKey are the root credentials of the test server.
	MinIOAccessKey = "sleepsight"
	MinIOSecretKey = "sleepsight-secret"
)

// MinIOContainer is a running MinIO server. Endpoint is host:port without a scheme.
type MinIOContainer struct {
	testcontainers.Container
	Endpoint string
}

// NewMinIOContainer starts a single-node MinIO server.
func NewMinIOContainer(ctx context.Context) (*MinIOContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        DefaultMinIOImage,
		ExposedPorts: []string{minioPort},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     MinIOAccessKey,
			"MINIO_ROOT_PASSWORD": MinIOSecretKey,
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").
			WithPort(minioPort).
			WithStartupTimeout(60 * time.Second),
	}

	container, addr, err := startContainer(ctx, req, minioPort)
	if err != nil {
		return nil, err
	}
	return &MinIOContainer{Container: container, Endpoint: addr}, nil
}
