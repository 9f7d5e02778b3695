// Package storage provides attachment store implementations for receipt vouchers.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/erp/receivables/internal/application/reconciliation"
	infraconfig "github.com/erp/receivables/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ reconciliation.AttachmentStore = (*S3AttachmentStore)(nil)

// DefaultPresignExpiration bounds preview links when the config leaves it unset
const DefaultPresignExpiration = 15 * time.Minute

var errKeyRequired = errors.New("attachment key is required")

// S3AttachmentStore keeps vouchers in any S3-compatible bucket (AWS S3, MinIO, RustFS).
type S3AttachmentStore struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	presignExpiration time.Duration
	logger            *zap.Logger
	now               func() time.Time
}

// S3Option configures an S3AttachmentStore
type S3Option func(*S3AttachmentStore)

// WithLogger sets the store logger
func WithLogger(logger *zap.Logger) S3Option {
	return func(s *S3AttachmentStore) {
		s.logger = logger
	}
}

// WithPresignExpiration overrides the preview link lifetime
func WithPresignExpiration(d time.Duration) S3Option {
	return func(s *S3AttachmentStore) {
		s.presignExpiration = d
	}
}

// NewS3AttachmentStore builds a store from configuration
func NewS3AttachmentStore(cfg *infraconfig.StorageConfig, opts ...S3Option) (*S3AttachmentStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	store := &S3AttachmentStore{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		presignExpiration: cfg.PresignExpiration,
		logger:            zap.NewNop(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.presignExpiration <= 0 {
		store.presignExpiration = DefaultPresignExpiration
	}

	return store, nil
}

func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if useSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("invalid storage endpoint: %w", err)
	}
	return endpoint, nil
}

// EnsureBucket creates the bucket if it doesn't exist. Called once at startup.
func (s *S3AttachmentStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating attachment bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Upload writes a voucher
func (s *S3AttachmentStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errKeyRequired
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload attachment: %w", err)
	}

	s.logger.Debug("Attachment uploaded",
		zap.String("key", key),
		zap.Int("size", len(data)),
	)
	return nil
}

// PresignPreview signs a GET for the voucher
func (s *S3AttachmentStore) PresignPreview(ctx context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errKeyRequired
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiration))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign preview URL: %w", err)
	}
	return req.URL, s.now().Add(s.presignExpiration), nil
}

// Exists reports whether key is present in the bucket
func (s *S3AttachmentStore) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errKeyRequired
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
			return false, nil
		}
		// Some S3-compatible services only report the code in the message
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey") {
			return false, nil
		}
		return false, fmt.Errorf("failed to check attachment: %w", err)
	}
	return true, nil
}

// Bucket returns the bucket name
func (s *S3AttachmentStore) Bucket() string {
	return s.bucket
}
