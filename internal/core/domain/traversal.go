package domain

// TraversalResult is the outcome of tracing one input's satoshi provenance.
// Valid only within the batch that produced it: correctness can depend on
// sibling transactions processed in the same batch. Never persisted.
type TraversalResult struct {
	TransactionIdentifier TransactionIdentifier
	InputIndex            int
	Ordinal               uint64
	SatPoint              string
	Hops                  int
	Resolved              bool
}

// LazyBlockTransaction is the L2 cache value: transaction fields materialized
// once and reused across batches until the next scheduled cache clear. A hit
// is a performance shortcut, not a source of truth; the coarse L2 key space
// tolerates soft collisions.
type LazyBlockTransaction struct {
	TxHash  string
	Inputs  []LazyTxIn
	Outputs []uint64
}

// LazyTxIn is the input slice of a lazily materialized transaction.
type LazyTxIn struct {
	PreviousTxHash      string
	PreviousOutputIndex uint32
	PreviousTxHeight    uint64
	Value               uint64
}

// Materialize strips a full transaction down to the fields ordinal traversal
// needs.
func Materialize(tx *Transaction) *LazyBlockTransaction {
	lazy := &LazyBlockTransaction{
		TxHash:  tx.TransactionIdentifier.Hash,
		Inputs:  make([]LazyTxIn, len(tx.Inputs)),
		Outputs: make([]uint64, len(tx.Outputs)),
	}
	for i, in := range tx.Inputs {
		lazy.Inputs[i] = LazyTxIn{
			PreviousTxHash:      in.PreviousTxHash,
			PreviousOutputIndex: in.PreviousOutputIndex,
			PreviousTxHeight:    in.PreviousTxHeight,
			Value:               in.Value,
		}
	}
	for i, out := range tx.Outputs {
		lazy.Outputs[i] = out.Value
	}
	return lazy
}
