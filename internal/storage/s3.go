// Package storage provides S3-compatible object storage for user uploads.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"kolboard/internal/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// AvatarCacheControl is applied to every avatar object.
const AvatarCacheControl = "max-age=3600"

// Config describes an S3-compatible bucket.
type Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicURL    string
	UsePathStyle bool
}

// PutOptions carries per-object metadata.
type PutOptions struct {
	ContentType  string
	CacheControl string
}

// ObjectStore uploads objects to one bucket and builds their public URLs.
type ObjectStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewObjectStore creates an ObjectStore. An empty endpoint targets AWS S3.
func NewObjectStore(ctx context.Context, cfg Config) (*ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		if cfg.AccessKey == "" || cfg.SecretKey == "" {
			return nil, errors.New("storage access key and secret key must be set together")
		}
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint != "" {
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		switch {
		case endpoint != "":
			publicURL = endpoint
		default:
			publicURL = fmt.Sprintf("https://s3.%s.amazonaws.com", region)
		}
	}

	return &ObjectStore{client: client, bucket: cfg.Bucket, publicURL: publicURL}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	observability.Logger.InfoContext(ctx, "creating storage bucket", slog.String("bucket", s.bucket))
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

// Put uploads data under key, overwriting any existing object, and returns its public URL.
func (s *ObjectStore) Put(ctx context.Context, key string, data []byte, opts PutOptions) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return s.PublicURL(key), nil
}

// Delete removes an object. Missing objects are not an error.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// PublicURL returns the URL under which key is served.
func (s *ObjectStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key)
}

// KeyFromURL reverses PublicURL. ok is false for URLs outside this bucket.
func (s *ObjectStore) KeyFromURL(u string) (key string, ok bool) {
	prefix := fmt.Sprintf("%s/%s/", s.publicURL, s.bucket)
	if !strings.HasPrefix(u, prefix) {
		return "", false
	}
	return strings.TrimPrefix(u, prefix), true
}

// Bucket returns the bucket name.
func (s *ObjectStore) Bucket() string {
	return s.bucket
}

// AvatarKey returns the object key for an avatar upload: avatars/{userId}-{unixMillis}.jpg.
func AvatarKey(userID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("avatars/%s-%d.jpg", userID, at.UnixMilli())
}
