package cache

import (
	"encoding/hex"
	"sync"

	"github.com/vietddude/ordindexer/internal/core/domain"
)

const shardCount = 32

// Key is the deliberately coarse L2 composite: a height bucket and the first
// eight bytes of the transaction hash. Bounding key cardinality this way
// tolerates soft collisions by contract; consumers treat a hit as a shortcut,
// never as a source of truth.
type Key struct {
	HeightBucket uint32
	ShortHash    [8]byte
}

// NewKey derives the coarse key for a transaction seen at a given height.
func NewKey(height uint64, txHash string) Key {
	k := Key{HeightBucket: uint32(height)}
	raw, err := hex.DecodeString(txHash)
	if err != nil || len(raw) < 8 {
		copy(k.ShortHash[:], txHash)
		return k
	}
	copy(k.ShortHash[:], raw[:8])
	return k
}

// fnv-1a over the composite key; cheap and well distributed for
// transaction-derived input.
func (k Key) hash() uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	h = (h ^ uint64(k.HeightBucket)) * prime64
	for _, b := range k.ShortHash {
		h = (h ^ uint64(b)) * prime64
	}
	return h
}

type shard struct {
	mu      sync.RWMutex
	entries map[Key]*domain.LazyBlockTransaction
}

// L2 is the cross-batch transaction cache, shared between the sequential
// worker and the inner parallel traversal stage. Sharded with per-shard
// locking so both can read and write concurrently without external
// coordination. The only eviction is a total Clear, scheduled by the worker
// purely on cumulative processed-block count.
type L2 struct {
	hint   int
	shards [shardCount]*shard
}

// NewL2 allocates the cache with a capacity hint spread across shards.
func NewL2(capacityHint int) *L2 {
	c := &L2{hint: capacityHint}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[Key]*domain.LazyBlockTransaction, capacityHint/shardCount)}
	}
	return c
}

func (c *L2) shardFor(k Key) *shard {
	return c.shards[k.hash()%shardCount]
}

// Get returns the lazily materialized transaction for k, if cached.
func (c *L2) Get(k Key) (*domain.LazyBlockTransaction, bool) {
	s := c.shardFor(k)
	s.mu.RLock()
	tx, ok := s.entries[k]
	s.mu.RUnlock()
	return tx, ok
}

// Put caches a materialized transaction. Entries are only ever added between
// scheduled clears; there is no per-entry eviction.
func (c *L2) Put(k Key, tx *domain.LazyBlockTransaction) {
	s := c.shardFor(k)
	s.mu.Lock()
	s.entries[k] = tx
	s.mu.Unlock()
}

// Len returns the total entry count across shards.
func (c *L2) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Clear drops every entry. Clearing is total, not selective.
func (c *L2) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[Key]*domain.LazyBlockTransaction, c.hint/shardCount)
		s.mu.Unlock()
	}
}
