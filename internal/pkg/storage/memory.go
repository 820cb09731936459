package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"sync"

	"github.com/shandysiswandi/bankvault/internal/pkg/clock"
)

type memoryObject struct {
	data []byte
	info ObjectInfo
}

// Memory is an in-process Bucket used for local runs and tests.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	clock   clock.Clocker
}

// NewMemory returns an empty bucket. A nil clock uses the system clock.
func NewMemory(clk clock.Clocker) *Memory {
	if clk == nil {
		clk = clock.New()
	}
	return &Memory{objects: make(map[string]memoryObject), clock: clk}
}

// Put implements Bucket.
func (m *Memory) Put(_ context.Context, key string, data []byte, contentType string) (ObjectInfo, error) {
	if key == "" {
		return ObjectInfo{}, ErrEmptyKey
	}
	if len(data) > MaxObjectSize {
		return ObjectInfo{}, ErrObjectTooLarge
	}

	sum := sha256.Sum256(data)
	info := ObjectInfo{
		Key:         key,
		Size:        int64(len(data)),
		ETag:        hex.EncodeToString(sum[:16]),
		ContentType: contentType,
		UpdatedAt:   m.clock.Now(),
	}

	m.mu.Lock()
	m.objects[key] = memoryObject{data: slices.Clone(data), info: info}
	m.mu.Unlock()

	return info, nil
}

// Get implements Bucket.
func (m *Memory) Get(_ context.Context, key string) ([]byte, ObjectInfo, error) {
	if key == "" {
		return nil, ObjectInfo{}, ErrEmptyKey
	}

	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ObjectInfo{}, ErrNotFound
	}
	return slices.Clone(obj.data), obj.info, nil
}

// Stat implements Bucket.
func (m *Memory) Stat(_ context.Context, key string) (ObjectInfo, error) {
	if key == "" {
		return ObjectInfo{}, ErrEmptyKey
	}

	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return ObjectInfo{}, ErrNotFound
	}
	return obj.info, nil
}

// Delete implements Bucket.
func (m *Memory) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// List implements Bucket. Results are ordered by key.
func (m *Memory) List(_ context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	m.mu.RLock()
	objects := make([]ObjectInfo, 0, len(m.objects))
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, obj.info)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(objects, func(a, b ObjectInfo) int { return strings.Compare(a.Key, b.Key) })
	if limit > 0 && len(objects) > limit {
		objects = objects[:limit]
	}
	return objects, nil
}

// Close implements io.Closer.
func (*Memory) Close() error {
	return nil
}
