package blockstore

import (
	"context"
	"sync"

	"github.com/vietddude/ordindexer/internal/core/domain"
)

// MemoryStore is an in-memory compacted block store used when no Redis URL is
// configured, and by tests.
type MemoryStore struct {
	mu     sync.RWMutex
	blocks map[uint64]*domain.CompactedBlock
}

// NewMemoryStore allocates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blocks: make(map[uint64]*domain.CompactedBlock)}
}

// StoreCompacted records the summaries. Tolerates an empty set.
func (s *MemoryStore) StoreCompacted(_ context.Context, blocks []*domain.CompactedBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range blocks {
		s.blocks[b.Index] = b
	}
	return nil
}

// GetCompacted reads one compacted block back, nil when absent.
func (s *MemoryStore) GetCompacted(_ context.Context, height uint64) (*domain.CompactedBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blocks[height], nil
}

// Len returns the stored block count.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}
