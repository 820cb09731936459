package storage

import (
	"context"
	"errors"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSAdapter implements Bucket using Google Cloud Storage.
type GCSAdapter struct {
	client *gcs.Client
	bucket string
}

// GCSOptions configures GCS client initialization.
type GCSOptions struct {
	// Client provides an existing GCS client. Application default
	// credentials are used when nil.
	Client *gcs.Client
}

// NewGCS constructs a GCS adapter bound to bucket.
func NewGCS(ctx context.Context, bucket string, opts GCSOptions) (*GCSAdapter, error) {
	client := opts.Client
	if client == nil {
		created, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		client = created
	}
	return &GCSAdapter{client: client, bucket: bucket}, nil
}

// Put implements Bucket.
func (g *GCSAdapter) Put(ctx context.Context, key string, data []byte, contentType string) (ObjectInfo, error) {
	if key == "" {
		return ObjectInfo{}, ErrEmptyKey
	}

	writer := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := writer.Write(data); err != nil {
		//nolint:errcheck // the write error is the one worth reporting
		writer.Close()
		return ObjectInfo{}, err
	}
	if err := writer.Close(); err != nil {
		return ObjectInfo{}, err
	}

	if attrs := writer.Attrs(); attrs != nil {
		return gcsAttrsToInfo(attrs), nil
	}
	return ObjectInfo{Key: key, Size: int64(len(data)), ContentType: contentType}, nil
}

// Get implements Bucket.
func (g *GCSAdapter) Get(ctx context.Context, key string) ([]byte, ObjectInfo, error) {
	if key == "" {
		return nil, ObjectInfo{}, ErrEmptyKey
	}

	reader, err := g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, ObjectInfo{}, gcsMapError(err)
	}
	defer reader.Close()

	data, err := readAll(reader)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	return data, ObjectInfo{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: reader.Attrs.ContentType,
		UpdatedAt:   reader.Attrs.LastModified,
	}, nil
}

// Stat implements Bucket.
func (g *GCSAdapter) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if key == "" {
		return ObjectInfo{}, ErrEmptyKey
	}

	attrs, err := g.client.Bucket(g.bucket).Object(key).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, gcsMapError(err)
	}
	return gcsAttrsToInfo(attrs), nil
}

// Delete implements Bucket.
func (g *GCSAdapter) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	err := gcsMapError(g.client.Bucket(g.bucket).Object(key).Delete(ctx))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// List implements Bucket.
func (g *GCSAdapter) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	it := g.client.Bucket(g.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	objects := make([]ObjectInfo, 0)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		objects = append(objects, gcsAttrsToInfo(attrs))
		if limit > 0 && len(objects) >= limit {
			break
		}
	}
	return objects, nil
}

// Close closes the GCS client.
func (g *GCSAdapter) Close() error {
	return g.client.Close()
}

func gcsMapError(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return ErrNotFound
	}
	return err
}

func gcsAttrsToInfo(attrs *gcs.ObjectAttrs) ObjectInfo {
	return ObjectInfo{
		Key:         attrs.Name,
		Size:        attrs.Size,
		ETag:        attrs.Etag,
		ContentType: attrs.ContentType,
		UpdatedAt:   attrs.Updated,
	}
}
