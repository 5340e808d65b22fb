package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryStore is an in-memory ObjectStore for tests and local development
// without a storage endpoint.
type MemoryStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte

	// FailPresign makes PresignGet fail for the listed keys. Tests use it to
	// exercise per-item failure handling in the feed assembler.
	FailPresign map[string]bool
}

// NewMemoryStore returns an empty in-memory store labeled with a bucket name.
func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{
		bucket:      bucket,
		objects:     make(map[string][]byte),
		FailPresign: make(map[string]bool),
	}
}

// NewMemoryBuckets returns in-memory stores for all three image buckets.
func NewMemoryBuckets() *Buckets {
	return &Buckets{
		ProfileImages: NewMemoryStore("profile-images"),
		RoomImages:    NewMemoryStore("room-images"),
		ContentImages: NewMemoryStore("content-images"),
	}
}

// Put stores the object bytes in memory.
func (m *MemoryStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read object body: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

// PresignGet returns a deterministic fake URL for a stored object.
func (m *MemoryStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailPresign[key] {
		return "", fmt.Errorf("presign get: simulated failure for %s", key)
	}
	return fmt.Sprintf("https://storage.local/%s/%s?signed=1", m.bucket, key), nil
}

// Delete removes the object if present.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Has reports whether an object exists. Test helper.
func (m *MemoryStore) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

// Object returns a stored object's bytes. Test helper.
func (m *MemoryStore) Object(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, ok
}
