package protocol

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/ordindexer/internal/core/domain"
	"github.com/vietddude/ordindexer/internal/indexing/cache"
	"github.com/vietddude/ordindexer/internal/infra/storage/postgres"
)

const maxTraversalHops = 256

// Config controls the protocol computation.
type Config struct {
	Concurrency  int  `yaml:"concurrency"`
	LogInternals bool `yaml:"log_internals"`
}

// Engine is the reference ordinal protocol implementation: envelope
// detection, satoshi provenance traversal and the two augmentation steps.
// The pipeline depends on it through an interface, so drivers can substitute
// their own.
type Engine struct {
	cfg       Config
	log       *slog.Logger
	internals *slog.Logger
}

// NewEngine builds the engine. Internal protocol logging is silenced unless
// the config enables it.
func NewEngine(cfg Config, log *slog.Logger) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	internals := slog.New(slog.DiscardHandler)
	if cfg.LogInternals {
		internals = log
	}
	return &Engine{cfg: cfg, log: log, internals: internals}
}

// batchEntry locates a transaction within the in-flight batch.
type batchEntry struct {
	height uint64
	tx     *domain.Transaction
}

type traversalTask struct {
	txHash     string
	inputIndex int
}

// ComputeRelevantTransactions decides whether the block carries any ordinal
// activity and, when it does, runs the provenance traversals. Reveal inputs
// are traced by a bounded parallel stage that fully joins before returning;
// the L2 cache is the only resource that stage shares with the worker.
// Results land in L1 afterwards, written by the calling goroutine.
func (e *Engine) ComputeRelevantTransactions(
	ctx context.Context,
	block *domain.Block,
	lookahead []*domain.Block,
	l1 *cache.L1,
	l2 *cache.L2,
	dbTx *sqlx.Tx,
) (bool, error) {
	var tasks []traversalTask
	var outpoints []string

	for _, tx := range block.Transactions {
		envs := envelopesIn(witnessesOf(tx))
		for _, env := range envs {
			tasks = append(tasks, traversalTask{
				txHash:     tx.TransactionIdentifier.Hash,
				inputIndex: env.InputIndex,
			})
		}
		if tx.IsCoinbase() {
			continue
		}
		for _, in := range tx.Inputs {
			outpoints = append(outpoints, domain.NewOutPoint(in.PreviousTxHash, in.PreviousOutputIndex))
		}
	}

	transferHit := false
	if len(outpoints) > 0 {
		located, err := postgres.InscriptionsAtOutPoints(ctx, dbTx, outpoints)
		if err != nil {
			return false, fmt.Errorf("failed to probe spent outpoints: %w", err)
		}
		transferHit = len(located) > 0
	}

	if len(tasks) == 0 && !transferHit {
		return false, nil
	}

	e.internals.Info("computing ordinal data",
		"height", block.Height(),
		"reveal_candidates", len(tasks),
		"transfer_candidates", transferHit,
	)

	if len(tasks) > 0 {
		index := buildBatchIndex(block, lookahead)

		pending := make([]int, 0, len(tasks))
		for i, t := range tasks {
			if _, ok := l1.Get(t.txHash, t.inputIndex); !ok {
				pending = append(pending, i)
			}
		}

		results := make([]*domain.TraversalResult, len(tasks))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.Concurrency)
		for _, i := range pending {
			task := tasks[i]
			slot := i
			g.Go(func() error {
				results[slot] = e.traverse(gctx, block.Height(), task, l2, index)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return true, err
		}

		for i, t := range tasks {
			if results[i] != nil {
				l1.Put(t.txHash, t.inputIndex, results[i])
			}
		}
	}

	return true, nil
}

// buildBatchIndex maps every transaction of the current block and the
// batch look-ahead by hash, so cross-block traversal within one batch
// resolves without touching storage.
func buildBatchIndex(block *domain.Block, lookahead []*domain.Block) map[string]batchEntry {
	index := make(map[string]batchEntry)
	for _, tx := range block.Transactions {
		index[tx.TransactionIdentifier.Hash] = batchEntry{height: block.Height(), tx: tx}
	}
	for _, b := range lookahead {
		for _, tx := range b.Transactions {
			index[tx.TransactionIdentifier.Hash] = batchEntry{height: b.Height(), tx: tx}
		}
	}
	return index
}

// resolve finds a lazily materialized transaction by (height, hash), first
// in the batch index, then in L2. Batch hits are pushed into L2 for reuse by
// later batches. The L2 key space is coarse, so a hit is verified against the
// full hash before it is trusted.
func resolve(hash string, height uint64, l2 *cache.L2, index map[string]batchEntry) *domain.LazyBlockTransaction {
	if entry, ok := index[hash]; ok {
		lazy := domain.Materialize(entry.tx)
		l2.Put(cache.NewKey(entry.height, hash), lazy)
		return lazy
	}
	if lazy, ok := l2.Get(cache.NewKey(height, hash)); ok && lazy.TxHash == hash {
		return lazy
	}
	return nil
}

// traverse walks one reveal input back through its spending chain until it
// reaches a coinbase, pinning the inscribed satoshi to an absolute ordinal.
// A chain that leaves the reachable set resolves best-effort and is marked
// unresolved.
func (e *Engine) traverse(
	ctx context.Context,
	height uint64,
	task traversalTask,
	l2 *cache.L2,
	index map[string]batchEntry,
) *domain.TraversalResult {
	result := &domain.TraversalResult{
		TransactionIdentifier: domain.TransactionIdentifier{Hash: task.txHash},
		InputIndex:            task.inputIndex,
		SatPoint:              domain.NewSatPoint(task.txHash, 0, 0),
	}

	start := resolve(task.txHash, height, l2, index)
	if start == nil || task.inputIndex >= len(start.Inputs) {
		return result
	}

	// Trace the first satoshi of the reveal input.
	in := start.Inputs[task.inputIndex]
	curHash := in.PreviousTxHash
	curHeight := in.PreviousTxHeight
	curVout := in.PreviousOutputIndex
	var offset uint64

	for hops := 0; hops < maxTraversalHops; hops++ {
		select {
		case <-ctx.Done():
			return result
		default:
		}
		result.Hops = hops + 1

		tx := resolve(curHash, curHeight, l2, index)
		if tx == nil {
			result.Ordinal = firstOrdinalOfHeight(curHeight) + offset
			return result
		}

		// Position of the traced satoshi in the output sat stream.
		var pos uint64
		for i := uint32(0); i < curVout && int(i) < len(tx.Outputs); i++ {
			pos += tx.Outputs[i]
		}
		pos += offset

		if isLazyCoinbase(tx) {
			result.Ordinal = firstOrdinalOfHeight(curHeight) + pos
			result.Resolved = true
			return result
		}

		// Map the output position back onto the contributing input.
		var cum uint64
		matched := false
		for _, prev := range tx.Inputs {
			if pos < cum+prev.Value {
				offset = pos - cum
				curHash = prev.PreviousTxHash
				curHeight = prev.PreviousTxHeight
				curVout = prev.PreviousOutputIndex
				matched = true
				break
			}
			cum += prev.Value
		}
		if !matched {
			// Satoshi paid from fees; its provenance belongs to the miner.
			result.Ordinal = firstOrdinalOfHeight(curHeight) + pos
			return result
		}
	}
	return result
}

func isLazyCoinbase(tx *domain.LazyBlockTransaction) bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PreviousTxHash == domain.CoinbasePrevTxHash
}

func witnessesOf(tx *domain.Transaction) [][][]byte {
	witnesses := make([][][]byte, len(tx.Inputs))
	for i, in := range tx.Inputs {
		witnesses[i] = in.Witness
	}
	return witnesses
}

// RevealedInscriptions lists the reveal operations attached to a block's
// transactions, in transaction order.
func RevealedInscriptions(block *domain.Block) []*domain.InscriptionRevealed {
	var revealed []*domain.InscriptionRevealed
	for _, tx := range block.Transactions {
		for _, op := range tx.Metadata.OrdinalOperations {
			if op.Reveal != nil {
				revealed = append(revealed, op.Reveal)
			}
		}
	}
	return revealed
}
