// Package storage keeps trial document blobs in an S3-compatible bucket.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the blob side of trial documents; metadata lives in trial_document.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	// Delete removes key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited download URL for key.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	// ObjectURL is the stable, unsigned location stored alongside the metadata row.
	ObjectURL(key string) string
}
