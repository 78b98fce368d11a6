package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/frahmantamala/vendor-portal/internal"
)

type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	cfg       internal.StorageConfig
	logger    *slog.Logger
}

// NewS3Store loads credentials from the default AWS chain (env, shared config, instance role).
func NewS3Store(ctx context.Context, cfg internal.StorageConfig, logger *slog.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	logger.Info("object store configured",
		"bucket", cfg.Bucket,
		"region", cfg.Region,
		"endpoint", cfg.Endpoint)

	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		cfg:       cfg,
		logger:    logger,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ACL:           types.ObjectCannedACLPrivate,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error("failed to upload object", "bucket", s.cfg.Bucket, "key", key, "error", err)
		return fmt.Errorf("put object %s: %w", key, err)
	}
	s.logger.Debug("object uploaded", "key", key, "size", size)
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	s.logger.Debug("object deleted", "key", key)
	return nil
}

func (s *S3Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.cfg.PresignTTL
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3Store) ObjectURL(key string) string {
	return objectURL(s.cfg, key)
}

func objectURL(cfg internal.StorageConfig, key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if cfg.Endpoint != "" {
		base := strings.TrimRight(cfg.Endpoint, "/")
		if cfg.UsePathStyle {
			return fmt.Sprintf("%s/%s/%s", base, cfg.Bucket, escaped)
		}
		if u, err := url.Parse(base); err == nil && u.Host != "" {
			return fmt.Sprintf("%s://%s.%s/%s", u.Scheme, cfg.Bucket, u.Host, escaped)
		}
		return fmt.Sprintf("%s/%s/%s", base, cfg.Bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, cfg.Region, escaped)
}
