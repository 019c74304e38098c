// Package storage stores uploaded media in an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/config"
	"geoevents.io/geoevents/internal/pkg/logger"
)

// publicReadPolicy lets anonymous clients GET objects so event pages can
// embed the uploaded videos directly.
const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Action":["s3:GetObject"],"Effect":"Allow","Principal":{"AWS":["*"]},"Resource":["arn:aws:s3:::%s/*"]}]}`

// ObjectStore writes objects to a MinIO or S3 bucket.
type ObjectStore struct {
	client         *minio.Client
	bucket         string
	region         string
	publicEndpoint string
}

// NewObjectStore creates a client for cfg. It does not contact the server.
func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &ObjectStore{
		client:         client,
		bucket:         cfg.Bucket,
		region:         cfg.Region,
		publicEndpoint: publicEndpoint(cfg),
	}, nil
}

// publicEndpoint returns the scheme-qualified base used in object URLs.
func publicEndpoint(cfg config.StorageConfig) string {
	ep := strings.TrimSpace(cfg.PublicEndpoint)
	if ep == "" {
		ep = cfg.Endpoint
	}
	ep = strings.TrimSuffix(strings.Trim(ep, `"'`), "/")
	if strings.Contains(ep, "://") {
		return ep
	}
	if cfg.UseSSL || cfg.PublicEndpoint != "" {
		return "https://" + ep
	}
	return "http://" + ep
}

// EnsureBucket creates the bucket with a public-read policy when missing.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	if err := s.client.SetBucketPolicy(ctx, s.bucket, fmt.Sprintf(publicReadPolicy, s.bucket)); err != nil {
		logger.Warn("failed to set bucket policy", zap.String("bucket", s.bucket), zap.Error(err))
	}
	logger.Info("Bucket created", zap.String("bucket", s.bucket))
	return nil
}

// Put uploads data under key and returns its public URL.
func (s *ObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete removes the object key.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL for key.
func (s *ObjectStore) URL(key string) string {
	return s.publicEndpoint + "/" + s.bucket + "/" + strings.TrimPrefix(key, "/")
}

// KeyFromURL extracts the object key from a URL produced by URL. It returns
// "" when the URL does not point into the bucket.
func (s *ObjectStore) KeyFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	p := strings.TrimPrefix(u.Path, "/")
	prefix := s.bucket + "/"
	if !strings.HasPrefix(p, prefix) {
		return ""
	}
	return strings.TrimPrefix(p, prefix)
}

// Ping checks the bucket is reachable.
func (s *ObjectStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("storage health check: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}
