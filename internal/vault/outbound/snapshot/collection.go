package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/shandysiswandi/bankvault/internal/pkg/storage"
)

const (
	lockTimeout   = 10 * time.Second
	lockRetry     = 50 * time.Millisecond
	snapshotPerms = 0o600
)

var errLockTimeout = errors.New("snapshot: timed out acquiring lock")

// Collection stores the serialized user collection as one blob.
type Collection interface {
	// Lock grants exclusive access until the returned func is called.
	Lock(ctx context.Context) (unlock func(), err error)
	// Load returns nil data when nothing was saved yet.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// File keeps the collection in a local file guarded by an advisory lock
// file, so several processes may share it.
type File struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return &File{path: path, lock: flock.New(path + ".lock")}, nil
}

func (f *File) Lock(ctx context.Context) (func(), error) {
	f.mu.Lock()

	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := f.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		f.mu.Unlock()
		return nil, fmt.Errorf("snapshot: acquire lock: %w", err)
	}
	if !locked {
		f.mu.Unlock()
		return nil, errLockTimeout
	}

	return func() {
		_ = f.lock.Unlock()
		f.mu.Unlock()
	}, nil
}

func (f *File) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Save writes through a temp file and rename so a crash never leaves a
// truncated snapshot behind.
func (f *File) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), snapshotPerms); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), f.path)
}

// Object keeps the collection as one object in a bucket. Buckets offer no
// cross-process lock, so only one process may write a given key.
type Object struct {
	bucket storage.Bucket
	key    string
	mu     sync.Mutex
}

func NewObject(bucket storage.Bucket, key string) *Object {
	return &Object{bucket: bucket, key: key}
}

func (o *Object) Lock(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	return o.mu.Unlock, nil
}

func (o *Object) Load(ctx context.Context) ([]byte, error) {
	data, _, err := o.bucket.Get(ctx, o.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return data, err
}

func (o *Object) Save(ctx context.Context, data []byte) error {
	_, err := o.bucket.Put(ctx, o.key, data, "application/json")
	return err
}
