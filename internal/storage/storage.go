package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the object operations uploads rely on.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns the public reference for a stored key.
	URL(key string) string
}
