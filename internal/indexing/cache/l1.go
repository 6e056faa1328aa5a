package cache

import "github.com/vietddude/ordindexer/internal/core/domain"

// L1Key addresses one traversal exactly: (transaction hash, input index).
type L1Key struct {
	TxHash     string
	InputIndex int
}

// L1 memoizes traversal results for the duration of a single batch. It is
// built fresh per ProcessBlocks invocation and discarded at batch end, so no
// duplicate traversal work happens within a batch. Owned by the worker; the
// parallel stage hands results back through channels, never through L1.
type L1 struct {
	entries map[L1Key]*domain.TraversalResult
}

// NewL1 allocates an empty per-batch cache.
func NewL1() *L1 {
	return &L1{entries: make(map[L1Key]*domain.TraversalResult)}
}

// Get returns the memoized traversal for (txHash, inputIndex), if any.
func (c *L1) Get(txHash string, inputIndex int) (*domain.TraversalResult, bool) {
	r, ok := c.entries[L1Key{TxHash: txHash, InputIndex: inputIndex}]
	return r, ok
}

// Put records a traversal result.
func (c *L1) Put(txHash string, inputIndex int, r *domain.TraversalResult) {
	c.entries[L1Key{TxHash: txHash, InputIndex: inputIndex}] = r
}

// Len returns the number of memoized traversals.
func (c *L1) Len() int {
	return len(c.entries)
}
