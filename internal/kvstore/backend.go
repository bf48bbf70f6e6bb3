package kvstore

import (
	"context"
	"sync"
)

// Backend is the durable medium behind a Store.
// Get returns (nil, nil) when the slot has never been written.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// MemoryBackend keeps slots in process memory. It is the default for tests and
// for APP_ENV=development without a configured medium.
type MemoryBackend struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemoryBackend builds an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{slots: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.slots[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slots[key] = append([]byte(nil), value...)
	return nil
}
