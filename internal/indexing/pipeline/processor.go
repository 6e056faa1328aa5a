package pipeline

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/ordindexer/internal/core/cursor"
	"github.com/vietddude/ordindexer/internal/core/domain"
	"github.com/vietddude/ordindexer/internal/indexing/cache"
	"github.com/vietddude/ordindexer/internal/indexing/metrics"
	"github.com/vietddude/ordindexer/internal/indexing/protocol"
	"github.com/vietddude/ordindexer/internal/infra/storage/postgres"
)

// processor applies the protocol computation and writes the results, one DB
// transaction per block. Owned by the worker goroutine; only the L2 cache it
// holds is ever shared with the engine's inner parallel stage.
type processor struct {
	db      *sqlx.DB
	seq     *cursor.SequenceCursor
	cacheL2 *cache.L2
	engine  Engine
	sink    chan<- *domain.Block
	log     *slog.Logger
}

func newProcessor(db *sqlx.DB, seq *cursor.SequenceCursor, cacheL2 *cache.L2, engine Engine, sink chan<- *domain.Block, log *slog.Logger) *processor {
	return &processor{
		db:      db,
		seq:     seq,
		cacheL2: cacheL2,
		engine:  engine,
		sink:    sink,
		log:     log,
	}
}

// processBatch handles one ProcessBlocks batch, strictly in delivered order,
// one block at a time. Every block is forwarded and appended to the return
// set regardless of its persistence outcome.
func (p *processor) processBatch(ctx context.Context, blocks []*domain.Block) []*domain.Block {
	cacheL1 := cache.NewL1()
	processed := make([]*domain.Block, 0, len(blocks))

	for len(blocks) > 0 {
		block := blocks[0]
		blocks = blocks[1:]
		height := block.Height()

		dbTx, err := p.db.BeginTxx(ctx, nil)
		if err != nil {
			p.log.Error("Failed to open block transaction", "height", height, "error", err)
			p.forward(block)
			processed = append(processed, block)
			continue
		}

		// Captured before any mutation: a height already carrying ordinal
		// activity must never be overwritten, whatever we compute below. A
		// failed check leaves the idempotency state unknown, so the block is
		// discarded without augmentation rather than risked against it.
		anyExistingActivity, err := postgres.ActivityExistsAtHeight(ctx, dbTx, height)
		if err != nil {
			p.log.Error("Failed to check existing activity, dropping updates for block", "height", height, "error", err)
			_ = dbTx.Rollback()
			p.seq.Reset()
			metrics.BlockRollbacks.Inc()
			p.forward(block)
			processed = append(processed, block)
			metrics.BlocksProcessed.Inc()
			continue
		}

		relevant, procErr := p.processBlock(ctx, block, blocks, cacheL1, dbTx)
		if procErr != nil {
			// Best effort: the block proceeds partially augmented or not at all.
			p.log.Error("Inscription computation failed", "height", height, "error", procErr)
		}

		revealed := protocol.RevealedInscriptions(block)
		p.log.Info("Block processed",
			"height", height,
			"revealed", len(revealed),
			"numbers", revealNumbers(revealed),
		)

		switch {
		case anyExistingActivity:
			p.log.Warn("Dropping updates for block, activities present in database", "height", height)
			_ = dbTx.Rollback()
			p.seq.Reset()
			metrics.BlockRollbacks.Inc()
		case !relevant:
			// Nothing was written; release the transaction without a commit.
			_ = dbTx.Rollback()
		default:
			if err := dbTx.Commit(); err != nil {
				p.log.Error("Unable to commit block updates", "height", height, "error", err)
				p.seq.Reset()
				metrics.CommitFailures.Inc()
			} else {
				metrics.BlockCommits.Inc()
				metrics.InscriptionsRevealed.Add(float64(len(revealed)))
				metrics.TransfersTracked.Add(float64(transferCount(block)))
			}
		}

		p.forward(block)
		processed = append(processed, block)
		metrics.BlocksProcessed.Inc()
	}
	return processed
}

// processBlock runs the protocol computation and, when the block is
// relevant, both augmentation steps inside the open transaction. The
// returned bool reports relevance even when an augmentation step failed.
func (p *processor) processBlock(
	ctx context.Context,
	block *domain.Block,
	lookahead []*domain.Block,
	cacheL1 *cache.L1,
	dbTx *sqlx.Tx,
) (bool, error) {
	relevant, err := p.engine.ComputeRelevantTransactions(ctx, block, lookahead, cacheL1, p.cacheL2, dbTx)
	if err != nil {
		return relevant, err
	}
	if !relevant {
		return false, nil
	}

	if err := p.engine.AugmentInscriptions(ctx, block, p.seq, cacheL1, dbTx); err != nil {
		return true, err
	}
	if err := p.engine.AugmentTransfers(ctx, block, dbTx, true); err != nil {
		return true, err
	}
	return true, nil
}

// forward offers the block downstream without ever blocking; a full or
// absent receiver is ignored.
func (p *processor) forward(block *domain.Block) {
	if p.sink == nil {
		return
	}
	select {
	case p.sink <- block:
	default:
	}
}

func revealNumbers(revealed []*domain.InscriptionRevealed) string {
	if len(revealed) == 0 {
		return ""
	}
	numbers := make([]string, len(revealed))
	for i, r := range revealed {
		numbers[i] = strconv.FormatInt(r.Number, 10)
	}
	return strings.Join(numbers, ", ")
}

func transferCount(block *domain.Block) int {
	n := 0
	for _, tx := range block.Transactions {
		for _, op := range tx.Metadata.OrdinalOperations {
			if op.Transfer != nil {
				n++
			}
		}
	}
	return n
}
