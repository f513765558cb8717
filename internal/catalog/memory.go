package catalog

import (
	"context"
	"sync"
)

// MemoryLookup is an in-process Lookup for tests and for the CLI when
// DATABASE_URL is not set.
type MemoryLookup struct {
	mu     sync.RWMutex
	tracks map[uint64]Track
}

func NewMemoryLookup() *MemoryLookup {
	return &MemoryLookup{tracks: make(map[uint64]Track)}
}

func (m *MemoryLookup) Put(t Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks[t.ID] = t
}

func (m *MemoryLookup) GetTrack(ctx context.Context, id uint64) (Track, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tracks[id]
	return t, ok, nil
}
