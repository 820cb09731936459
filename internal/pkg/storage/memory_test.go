package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/bankvault/internal/pkg/clock"
)

func TestMemory_PutGet(t *testing.T) {
	// Arrange
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	bucket := NewMemory(clock.NewFrozen(now))
	payload := []byte(`{"users":[]}`)

	// Act
	put, err := bucket.Put(ctx, "snapshots/users.json", payload, "application/json")
	require.NoError(t, err)
	payload[0] = 'x'
	got, info, err := bucket.Get(ctx, "snapshots/users.json")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, `{"users":[]}`, string(got))
	assert.Equal(t, put, info)
	assert.Equal(t, int64(12), info.Size)
	assert.Equal(t, "application/json", info.ContentType)
	assert.Equal(t, now, info.UpdatedAt)
	assert.NotEmpty(t, info.ETag)
}

func TestMemory_NotFound(t *testing.T) {
	ctx := context.Background()
	bucket := NewMemory(nil)

	_, _, err := bucket.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = bucket.Stat(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, bucket.Delete(ctx, "missing"))
}

func TestMemory_EmptyKey(t *testing.T) {
	ctx := context.Background()
	bucket := NewMemory(nil)

	_, err := bucket.Put(ctx, "", nil, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, _, err = bucket.Get(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, err = bucket.Stat(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, bucket.Delete(ctx, ""), ErrEmptyKey)
}

func TestMemory_DeleteAndList(t *testing.T) {
	// Arrange
	ctx := context.Background()
	bucket := NewMemory(nil)
	for _, key := range []string{"backups/1/3.json", "backups/1/1.json", "backups/2/1.json", "backups/1/2.json"} {
		_, err := bucket.Put(ctx, key, []byte("{}"), "application/json")
		require.NoError(t, err)
	}

	// Act
	require.NoError(t, bucket.Delete(ctx, "backups/1/2.json"))
	all, err := bucket.List(ctx, "backups/1/", 0)
	require.NoError(t, err)
	limited, err := bucket.List(ctx, "backups/", 2)
	require.NoError(t, err)

	// Assert
	keys := make([]string, 0, len(all))
	for _, o := range all {
		keys = append(keys, o.Key)
	}
	assert.Equal(t, []string{"backups/1/1.json", "backups/1/3.json"}, keys)
	assert.Len(t, limited, 2)
	assert.Equal(t, "backups/1/1.json", limited[0].Key)
}

func TestMemory_TooLarge(t *testing.T) {
	_, err := NewMemory(nil).Put(context.Background(), "big", make([]byte, MaxObjectSize+1), "")
	assert.True(t, errors.Is(err, ErrObjectTooLarge))
}

func TestNewFromDriver(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		opts    FactoryOptions
		wantErr error
	}{
		{name: "Memory", driver: " Memory "},
		{name: "Unknown", driver: "ftp", opts: FactoryOptions{Bucket: "b"}, wantErr: ErrUnknownDriver},
		{name: "S3WithoutBucket", driver: DriverS3, wantErr: ErrBucketRequired},
		{name: "MinIOWithoutBucket", driver: DriverMinIO, wantErr: ErrBucketRequired},
		{name: "MinIO", driver: DriverMinIO, opts: FactoryOptions{
			Bucket: "vault",
			MinIO:  MinIOOptions{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			b, err := NewFromDriver(context.Background(), tt.driver, tt.opts)

			// Assert
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, b)
			assert.NoError(t, b.Close())
		})
	}
}

func TestReadAll_Limit(t *testing.T) {
	// Arrange
	data := make([]byte, MaxObjectSize)

	// Act
	got, err := readAll(bytesReader(data))

	// Assert
	require.NoError(t, err)
	assert.Len(t, got, MaxObjectSize)

	_, err = readAll(bytesReader(append(data, 0)))
	assert.ErrorIs(t, err, ErrObjectTooLarge)
}
