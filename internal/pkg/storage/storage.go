// Package storage stores whole objects in a single bucket.
//
// Drivers adapt S3, MinIO and Google Cloud Storage to one narrow Bucket
// interface. Missing objects are always reported as ErrNotFound regardless
// of the provider's own error shape.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when the object key does not exist.
	ErrNotFound = errors.New("storage: object not found")
	// ErrEmptyKey is returned for a blank object key.
	ErrEmptyKey = errors.New("storage: key is required")
	// ErrBucketRequired is returned when a driver is built without a bucket name.
	ErrBucketRequired = errors.New("storage: bucket is required")
	// ErrObjectTooLarge is returned when an object exceeds MaxObjectSize.
	ErrObjectTooLarge = errors.New("storage: object too large")
)

// MaxObjectSize caps how much Get will read into memory.
const MaxObjectSize = 32 << 20

// Bucket stores and retrieves objects under string keys.
type Bucket interface {
	io.Closer

	// Put replaces the object at key.
	Put(ctx context.Context, key string, data []byte, contentType string) (ObjectInfo, error)
	// Get reads the whole object.
	Get(ctx context.Context, key string) ([]byte, ObjectInfo, error)
	// Stat returns object metadata without reading its contents.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns objects whose key starts with prefix, up to limit when limit > 0.
	List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error)
}

// ObjectInfo describes object metadata.
type ObjectInfo struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
	UpdatedAt   time.Time
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxObjectSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxObjectSize {
		return nil, ErrObjectTooLarge
	}
	return data, nil
}
