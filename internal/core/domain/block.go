package domain

// BlockIdentifier pins a block to a position in the canonical chain.
type BlockIdentifier struct {
	Index uint64
	Hash  string
}

// Block is a fully materialized Bitcoin block handed to the post-processor.
// It is exclusively owned by the worker while a batch is in flight; the
// augmentation steps mutate transaction metadata in place.
type Block struct {
	BlockIdentifier       BlockIdentifier
	ParentBlockIdentifier BlockIdentifier
	Timestamp             uint64
	Transactions          []*Transaction
}

// Height is a convenience accessor for the block's chain position.
func (b *Block) Height() uint64 {
	return b.BlockIdentifier.Index
}
