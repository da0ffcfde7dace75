package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"memoria/internal/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures an S3 or S3-compatible (R2, MinIO) bucket.
type S3Config struct {
	Endpoint        string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
	// UsePathStyle addresses the bucket in the path instead of the host.
	UsePathStyle bool
}

// S3Storage stores objects in a bucket and serves them from PublicURL.
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3Storage(_ context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 storage requires a bucket")
	}
	if cfg.PublicURL == "" {
		return nil, errors.New("s3 storage requires a public URL")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := s3.Options{
		Region:       region,
		UsePathStyle: cfg.UsePathStyle || cfg.Endpoint != "",
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	return &S3Storage{
		client:    s3.New(opts),
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
	}, nil
}

func (s *S3Storage) Name() string { return "s3" }

func (s *S3Storage) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	ctx, span := observability.StorageSpan(ctx, s.Name(), "put")
	defer span.End()

	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.URL(key), nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	ctx, span := observability.StorageSpan(ctx, s.Name(), "delete")
	defer span.End()

	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) URL(key string) string {
	return joinURL(s.publicURL, key)
}
