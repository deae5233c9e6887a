package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// MinIODocumentStore keeps the ledger document as a single object. A PutObject
// replaces the object as a whole, so readers never observe a partial document.
type MinIODocumentStore struct {
	client *minio.Client
	bucket string
	region string
	object string
	logger zerolog.Logger

	ensureMu      sync.Mutex
	bucketEnsured bool
}

func NewMinIODocumentStore(endpoint, accessKey, secretKey, bucket, region, object string, useSSL bool, logger zerolog.Logger) (*MinIODocumentStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	logger.Info().
		Str("endpoint", endpoint).
		Str("bucket", bucket).
		Str("object", object).
		Bool("ssl", useSSL).
		Msg("Using MinIO ledger store")

	return &MinIODocumentStore{
		client: client,
		bucket: bucket,
		region: region,
		object: object,
		logger: logger,
	}, nil
}

func (s *MinIODocumentStore) Describe() string {
	return fmt.Sprintf("minio object %s/%s", s.bucket, s.object)
}

func (s *MinIODocumentStore) ensureBucket(ctx context.Context) error {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()
	if s.bucketEnsured {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
		s.logger.Info().Str("bucket", s.bucket).Msg("Created new bucket")
	}

	s.bucketEnsured = true
	return nil
}

func (s *MinIODocumentStore) Load(ctx context.Context) ([]byte, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}

	_, err := s.client.StatObject(ctx, s.bucket, s.object, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to stat ledger object: %w", err)
	}

	object, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger object: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger object: %w", err)
	}

	return data, nil
}

func (s *MinIODocumentStore) Save(ctx context.Context, document []byte) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}

	putCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	info, err := s.client.PutObject(putCtx, s.bucket, s.object, bytes.NewReader(document), int64(len(document)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put ledger object: %w", err)
	}

	s.logger.Debug().
		Str("bucket", s.bucket).
		Str("object", s.object).
		Str("etag", info.ETag).
		Int("bytes", len(document)).
		Msg("Ledger document saved to MinIO")

	return nil
}
