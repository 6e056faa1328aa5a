package protocol

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/ordindexer/internal/core/cursor"
	"github.com/vietddude/ordindexer/internal/core/domain"
	"github.com/vietddude/ordindexer/internal/indexing/cache"
	"github.com/vietddude/ordindexer/internal/infra/storage/postgres"
)

// AugmentInscriptions attaches reveal data to the block and writes the rows,
// advancing the sequence cursor one inscription at a time inside the open
// block transaction. Strictly serial; numbering depends on transaction and
// input order.
func (e *Engine) AugmentInscriptions(
	ctx context.Context,
	block *domain.Block,
	cur *cursor.SequenceCursor,
	l1 *cache.L1,
	dbTx *sqlx.Tx,
) error {
	height := block.Height()

	for _, tx := range block.Transactions {
		txHash := tx.TransactionIdentifier.Hash
		envs := envelopesIn(witnessesOf(tx))

		for i, env := range envs {
			number, err := cur.PickNext(ctx)
			if err != nil {
				return fmt.Errorf("failed to pick next inscription number: %w", err)
			}

			reveal := &domain.InscriptionRevealed{
				InscriptionID: domain.NewInscriptionID(txHash, i),
				Number:        number,
				ContentType:   env.ContentType,
				ContentLength: env.ContentLength,
				InputIndex:    env.InputIndex,
				SatPoint:      domain.NewSatPoint(txHash, 0, 0),
			}
			if traversal, ok := l1.Get(txHash, env.InputIndex); ok {
				reveal.Ordinal = traversal.Ordinal
				reveal.SatPoint = traversal.SatPoint
			}

			if err := postgres.InsertInscription(ctx, dbTx, height, txHash, reveal); err != nil {
				return err
			}
			if err := cur.Increment(ctx); err != nil {
				return err
			}

			tx.Metadata.OrdinalOperations = append(tx.Metadata.OrdinalOperations, domain.OrdinalOperation{Reveal: reveal})
			e.internals.Info("inscription revealed",
				"number", number,
				"inscription_id", reveal.InscriptionID,
				"ordinal", reveal.Ordinal,
			)
		}
	}
	return nil
}

// AugmentTransfers attaches transfer data for previously inscribed satoshis
// spent by the block, writing rows inside the open block transaction. When
// updateLocations is set the inscriptions' current locations move to their
// post-transfer satpoints.
func (e *Engine) AugmentTransfers(
	ctx context.Context,
	block *domain.Block,
	dbTx *sqlx.Tx,
	updateLocations bool,
) error {
	height := block.Height()

	var outpoints []string
	for _, tx := range block.Transactions {
		if tx.IsCoinbase() {
			continue
		}
		for _, in := range tx.Inputs {
			outpoints = append(outpoints, domain.NewOutPoint(in.PreviousTxHash, in.PreviousOutputIndex))
		}
	}

	located, err := postgres.InscriptionsAtOutPoints(ctx, dbTx, outpoints)
	if err != nil {
		return fmt.Errorf("failed to locate inscribed outpoints: %w", err)
	}
	if len(located) == 0 {
		return nil
	}

	for _, tx := range block.Transactions {
		if tx.IsCoinbase() {
			continue
		}
		txHash := tx.TransactionIdentifier.Hash

		var offsetBefore uint64
		for _, in := range tx.Inputs {
			outpoint := domain.NewOutPoint(in.PreviousTxHash, in.PreviousOutputIndex)
			for _, loc := range located[outpoint] {
				transfer := &domain.InscriptionTransferred{
					InscriptionID:        loc.InscriptionID,
					Number:               loc.Number,
					Ordinal:              loc.Ordinal,
					SatPointPreTransfer:  loc.SatPoint,
					SatPointPostTransfer: domain.NewSatPoint(txHash, 0, offsetBefore),
				}
				if err := postgres.InsertTransfer(ctx, dbTx, height, txHash, transfer, updateLocations); err != nil {
					return err
				}

				tx.Metadata.OrdinalOperations = append(tx.Metadata.OrdinalOperations, domain.OrdinalOperation{Transfer: transfer})
				e.internals.Info("inscription transferred",
					"inscription_id", transfer.InscriptionID,
					"from", transfer.SatPointPreTransfer,
					"to", transfer.SatPointPostTransfer,
				)
			}
			offsetBefore += in.Value
		}
	}
	return nil
}
