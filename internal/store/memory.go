package store

import (
	"sync"
)

// MemoryBackend keeps the serialized config in memory. It counts writes so
// callers can check that read-only paths never persist.
type MemoryBackend struct {
	mu     sync.RWMutex
	data   []byte
	stored bool
	writes int
}

// NewMemoryBackend creates a backend, optionally pre-seeded with a config.
func NewMemoryBackend(initial []byte) *MemoryBackend {
	b := &MemoryBackend{}
	if initial != nil {
		b.data = append([]byte(nil), initial...)
		b.stored = true
	}
	return b
}

func (b *MemoryBackend) Read() ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.stored {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b.data...), nil
}

func (b *MemoryBackend) Write(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append([]byte(nil), data...)
	b.stored = true
	b.writes++
	return nil
}

// Writes returns how many times Write has been called.
func (b *MemoryBackend) Writes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writes
}
