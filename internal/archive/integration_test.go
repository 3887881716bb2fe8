// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

//go:build integration

package archive

import (
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tomtom215/sleepsight/internal/config"
	"github.com/tomtom215/sleepsight/internal/models"
	"github.com/tomtom215/sleepsight/internal/testinfra"
)

func TestArchive_MinIO(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	server, err := testinfra.NewMinIOContainer(ctx)
	if err != nil {
		t.Fatalf("start minio: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, server)

	cfg := config.ArchiveConfig{
		Enabled:   true,
		Endpoint:  server.Endpoint,
		Bucket:    "sleepsight-raw",
		AccessKey: testinfra.MinIOAccessKey,
		SecretKey: testinfra.MinIOSecretKey,
		Prefix:    "raw",
	}
	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := models.RecordKey{SubjectID: "ABC123", Date: models.MustParseDate("2023-01-01"), Category: models.CategorySleep}
	body := []byte(`{"sleep":[{"dateOfSleep":"2023-01-01"}]}`)
	if err := a.Archive(ctx, key, body); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
	})
	if err != nil {
		t.Fatal(err)
	}
	obj, err := client.GetObject(ctx, cfg.Bucket, a.ObjectKey(key), minio.GetObjectOptions{})
	if err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	defer obj.Close()
	got, err := io.ReadAll(obj)
	if err != nil {
		t.Fatalf("read object: %v", err)
	}
	if string(got) != string(body) {
		t.Errorf("archived body = %q, want %q", got, body)
	}

	// Reopening an existing bucket is not an error.
	if _, err := New(ctx, cfg); err != nil {
		t.Errorf("New() on existing bucket error = %v", err)
	}
}
