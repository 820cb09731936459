package storage

import (
	"bytes"
	"context"
	"errors"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOAdapter implements Bucket using MinIO.
type MinIOAdapter struct {
	client *minio.Client
	bucket string
}

// MinIOOptions configures MinIO client initialization.
type MinIOOptions struct {
	// Endpoint is the MinIO server address.
	Endpoint string
	// AccessKey is the access key ID.
	AccessKey string
	// SecretKey is the secret access key.
	SecretKey string
	// SessionToken is the optional session token.
	SessionToken string
	// Region is the MinIO region.
	Region string
	// UseSSL toggles TLS for MinIO connections.
	UseSSL bool
}

// NewMinIO constructs a MinIO adapter bound to bucket.
func NewMinIO(bucket string, opts MinIOOptions) (*MinIOAdapter, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}
	return NewMinIOWithClient(client, bucket), nil
}

// NewMinIOWithClient wraps an existing MinIO client.
func NewMinIOWithClient(client *minio.Client, bucket string) *MinIOAdapter {
	return &MinIOAdapter{client: client, bucket: bucket}
}

// Put implements Bucket.
func (m *MinIOAdapter) Put(ctx context.Context, key string, data []byte, contentType string) (ObjectInfo, error) {
	if key == "" {
		return ObjectInfo{}, ErrEmptyKey
	}

	info, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{
		Key:         key,
		Size:        info.Size,
		ETag:        info.ETag,
		ContentType: contentType,
		UpdatedAt:   info.LastModified,
	}, nil
}

// Get implements Bucket.
func (m *MinIOAdapter) Get(ctx context.Context, key string) ([]byte, ObjectInfo, error) {
	if key == "" {
		return nil, ObjectInfo{}, ErrEmptyKey
	}

	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, minioMapError(err)
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		return nil, ObjectInfo{}, minioMapError(err)
	}
	data, err := readAll(obj)
	if err != nil {
		return nil, ObjectInfo{}, minioMapError(err)
	}
	return data, minioStatToInfo(key, stat), nil
}

// Stat implements Bucket.
func (m *MinIOAdapter) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if key == "" {
		return ObjectInfo{}, ErrEmptyKey
	}

	stat, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, minioMapError(err)
	}
	return minioStatToInfo(key, stat), nil
}

// Delete implements Bucket.
func (m *MinIOAdapter) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	err := minioMapError(m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// List implements Bucket.
func (m *MinIOAdapter) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	// cancelling stops the listing goroutine when returning early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := make([]ObjectInfo, 0)
	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, object.Err
		}
		objects = append(objects, ObjectInfo{
			Key:       object.Key,
			Size:      object.Size,
			ETag:      object.ETag,
			UpdatedAt: object.LastModified,
		})
		if limit > 0 && len(objects) >= limit {
			break
		}
	}
	return objects, nil
}

// Close releases MinIO adapter resources.
func (m *MinIOAdapter) Close() error {
	return nil
}

func minioMapError(err error) error {
	if err == nil {
		return nil
	}

	if code := minio.ToErrorResponse(err).Code; code == "NoSuchKey" || code == "NotFound" {
		return ErrNotFound
	}
	return err
}

func minioStatToInfo(key string, stat minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Key:         key,
		Size:        stat.Size,
		ETag:        stat.ETag,
		ContentType: stat.ContentType,
		UpdatedAt:   stat.LastModified,
	}
}
