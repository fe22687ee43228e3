// Package storage uploads proof images to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/danuwirya/homechore/internal/apperr"
)

const maxUploadSize = 5 * 1024 * 1024 // 5MB

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	DefaultBucket string
	PublicBaseURL string
}

// Uploader validates and stores proof images.
type Uploader struct {
	cfg    Config
	client s3Client
}

func NewUploader(cfg Config) *Uploader {
	if cfg.DefaultBucket == "" {
		cfg.DefaultBucket = "task-proofs"
	}
	return &Uploader{cfg: cfg, client: newS3Client(cfg)}
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Result reports where an upload landed.
type Result struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Upload validates the file and writes it to the bucket. Validation happens
// before any storage call so a rejected file never leaves an orphaned
// object. The object key is <userID>-<unix ms>.<ext>.
func (u *Uploader) Upload(ctx context.Context, userID, bucket, filename, contentType string, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no file provided: %w", apperr.ErrValidation)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("file must be an image: %w", apperr.ErrValidation)
	}
	if len(data) > maxUploadSize {
		return nil, fmt.Errorf("file size must be less than 5MB: %w", apperr.ErrValidation)
	}

	if bucket == "" {
		bucket = u.cfg.DefaultBucket
	}

	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "jpg"
	}
	key := fmt.Sprintf("%s-%d.%s", userID, time.Now().UnixMilli(), ext)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", apperr.ErrUpstream)
	}

	return &Result{Path: key, URL: u.publicURL(bucket, key)}, nil
}

func (u *Uploader) publicURL(bucket, key string) string {
	base := strings.TrimSuffix(u.cfg.PublicBaseURL, "/")
	if base == "" {
		base = strings.TrimSuffix(u.cfg.Endpoint, "/")
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, key)
}
