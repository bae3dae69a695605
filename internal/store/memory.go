package store

import (
	"context"
	"sync"
)

// MemoryBackend is a concurrency-safe in-memory Backend keyed like the persistent ones.
// It is used when persistence is disabled and as a fake in tests.
type MemoryBackend struct {
	mu sync.RWMutex

	// key: storage key, value: saved list
	data map[string][]string
	key  string
}

// NewMemoryBackend creates an empty MemoryBackend storing under key.
func NewMemoryBackend(key string, initial ...string) *MemoryBackend {
	b := &MemoryBackend{
		data: make(map[string][]string),
		key:  key,
	}
	if len(initial) > 0 {
		b.data[key] = append([]string(nil), initial...)
	}
	return b
}

// Load returns a copy of the saved list, or nil if nothing was saved.
func (b *MemoryBackend) Load(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	saved, ok := b.data[b.key]
	if !ok {
		return nil, nil
	}
	return append([]string(nil), saved...), nil
}

// Save overwrites the list.
func (b *MemoryBackend) Save(_ context.Context, labels []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data[b.key] = append([]string(nil), labels...)
	return nil
}
