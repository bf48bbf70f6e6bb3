// Package kvstore is the persistence primitive of FinTrack: named slots holding
// JSON documents, mirrored in memory and written through to a durable Backend.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Store mirrors slots in memory and writes every change through to its backend.
// Writes replace the whole slot; the last writer wins.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	mirror  map[string][]byte
}

// New wraps backend with an in-memory mirror.
func New(backend Backend) *Store {
	return &Store{backend: backend, mirror: make(map[string][]byte)}
}

// NewMemory is shorthand for a Store over a fresh MemoryBackend.
func NewMemory() *Store {
	return New(NewMemoryBackend())
}

// Get returns the raw slot, consulting the backend on first use.
// A nil slice means the slot is absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	raw, ok := s.mirror[key]
	s.mu.RUnlock()
	if ok {
		return raw, nil
	}

	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A Set that landed during the backend read is newer than raw.
	if cur, ok := s.mirror[key]; ok {
		return cur, nil
	}
	if raw == nil {
		return nil, nil
	}
	s.mirror[key] = raw
	return raw, nil
}

// Set writes raw to the backend, then to the mirror.
func (s *Store) Set(ctx context.Context, key string, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	s.mirror[key] = raw
	return nil
}

// Read decodes the slot into a T, or returns def when the slot is absent.
func Read[T any](ctx context.Context, s *Store, key string, def T) (T, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return def, err
	}
	if raw == nil {
		return def, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return def, fmt.Errorf("decode slot %s: %w", key, err)
	}
	return v, nil
}

// Write encodes v as JSON and stores it in the slot.
func Write[T any](ctx context.Context, s *Store, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
