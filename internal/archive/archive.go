// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tomtom215/sleepsight/internal/config"
	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/metrics"
	"github.com/tomtom215/sleepsight/internal/models"
)

// storageTimeout bounds a single object write.
const storageTimeout = 10 * time.Second

// objectPutter is the subset of *minio.Client the archive writes through.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Archive writes raw upstream bodies to an S3-compatible bucket.
type Archive struct {
	client objectPutter
	bucket string
	prefix string
}

// New connects to cfg.Endpoint and creates the bucket if it is missing.
func New(ctx context.Context, cfg config.ArchiveConfig) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init archive client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check archive bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create archive bucket %s: %w", cfg.Bucket, err)
		}
		logging.Info().Str("bucket", cfg.Bucket).Msg("Created archive bucket")
	}

	return newArchive(client, cfg.Bucket, cfg.Prefix), nil
}

func newArchive(client objectPutter, bucket, prefix string) *Archive {
	return &Archive{client: client, bucket: bucket, prefix: prefix}
}

// ObjectKey returns where the body for key is written:
// <prefix>/<category>/<subject>/<date>.json.
func (a *Archive) ObjectKey(key models.RecordKey) string {
	return path.Join(a.prefix, string(key.Category), key.SubjectID, key.Date.String()+".json")
}

// Archive writes body under key. A later write of the same key replaces the
// object, so retried days converge on the stored record's body.
func (a *Archive) Archive(ctx context.Context, key models.RecordKey, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	sum := sha256.Sum256(body)
	reader := bytes.NewReader(body)
	_, err := a.client.PutObject(ctx, a.bucket, a.ObjectKey(key), reader, int64(reader.Len()),
		minio.PutObjectOptions{
			ContentType: "application/json",
			UserMetadata: map[string]string{
				"sha256":  hex.EncodeToString(sum[:]),
				"subject": key.SubjectID,
			},
		})
	if err != nil {
		metrics.ArchiveWritesTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("archive %s: %w", key, err)
	}
	metrics.ArchiveWritesTotal.WithLabelValues("success").Inc()
	return nil
}
