// Package storage archives uploaded row files to object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	tradeapp "github.com/matreq/backend/internal/application/trade"
	infraconfig "github.com/matreq/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const defaultContentType = "application/octet-stream"

// Ensure S3UploadArchive implements UploadArchive
var _ tradeapp.UploadArchive = (*S3UploadArchive)(nil)

// objectAPI is the subset of the S3 client used by the archive
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3UploadArchive stores uploaded files in any S3-compatible bucket
// (AWS S3, MinIO, RustFS)
type S3UploadArchive struct {
	client    objectAPI
	bucket    string
	keyPrefix string
	logger    *zap.Logger
	now       func() time.Time
}

// S3UploadArchiveOption is a functional option for configuring S3UploadArchive
type S3UploadArchiveOption func(*S3UploadArchive)

// WithLogger sets a custom logger for S3UploadArchive
func WithLogger(logger *zap.Logger) S3UploadArchiveOption {
	return func(s *S3UploadArchive) {
		s.logger = logger
	}
}

// WithClock overrides the clock used for the date segment of object keys
func WithClock(now func() time.Time) S3UploadArchiveOption {
	return func(s *S3UploadArchive) {
		s.now = now
	}
}

// NewS3UploadArchive creates an S3UploadArchive from configuration
func NewS3UploadArchive(cfg *infraconfig.StorageConfig, opts ...S3UploadArchiveOption) (*S3UploadArchive, error) {
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

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	return newS3UploadArchive(client, cfg.Bucket, cfg.KeyPrefix, opts...), nil
}

func newS3UploadArchive(client objectAPI, bucket, keyPrefix string, opts ...S3UploadArchiveOption) *S3UploadArchive {
	archive := &S3UploadArchive{
		client:    client,
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(archive)
	}
	return archive
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3UploadArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating upload archive bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Archive stores one uploaded file and returns its object key
func (s *S3UploadArchive) Archive(ctx context.Context, input tradeapp.ArchiveInput) (string, error) {
	key := s.ObjectKey(input.Environment, input.User, input.Filename)

	contentType := input.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(input.Content),
		ContentLength: aws.Int64(int64(len(input.Content))),
		ContentType:   aws.String(contentType),
		Metadata: map[string]string{
			"environment":       input.Environment,
			"sap-user":          input.User,
			"original-filename": url.QueryEscape(input.Filename),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive upload: %w", err)
	}

	s.logger.Debug("Upload archived",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("size", len(input.Content)),
	)
	return key, nil
}

// ObjectKey builds uploads/<env>/<user>/<date>/<uuid>-<name> under the
// configured prefix
func (s *S3UploadArchive) ObjectKey(environment, user, filename string) string {
	key := path.Join(
		"uploads",
		keySegment(environment),
		keySegment(user),
		s.now().UTC().Format("2006-01-02"),
		uuid.NewString()+"-"+sanitizeFilename(filename),
	)
	if s.keyPrefix != "" {
		key = s.keyPrefix + "/" + key
	}
	return key
}

// Bucket returns the bucket name
func (s *S3UploadArchive) Bucket() string {
	return s.bucket
}

func keySegment(v string) string {
	if strings.TrimSpace(v) == "" {
		return "_"
	}
	return sanitizeFilename(v)
}

// sanitizeFilename keeps the base name and replaces characters that are
// unsafe in object keys
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "upload"
	}
	return out
}
