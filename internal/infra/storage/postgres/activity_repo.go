package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/ordindexer/internal/core/domain"
)

// ActivityExistsAtHeight reports whether any ordinal activity (reveal or
// transfer) is already recorded at the given height. Queried inside the open
// block transaction, before any mutation, so the commit decision can protect
// reprocessed heights.
func ActivityExistsAtHeight(ctx context.Context, tx *sqlx.Tx, height uint64) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM inscriptions WHERE block_height = $1)
		    OR EXISTS (SELECT 1 FROM inscription_transfers WHERE block_height = $1)
	`

	var exists bool
	if err := tx.GetContext(ctx, &exists, query, height); err != nil {
		return false, fmt.Errorf("failed to check ordinal activity at height %d: %w", height, err)
	}
	return exists, nil
}

// InsertInscription writes a newly revealed inscription inside the open block
// transaction.
func InsertInscription(ctx context.Context, tx *sqlx.Tx, height uint64, txHash string, reveal *domain.InscriptionRevealed) error {
	query := `
		INSERT INTO inscriptions
			(inscription_id, number, ordinal, content_type, content_length, block_height, tx_hash, input_index, outpoint, satpoint)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	outpoint := domain.NewOutPoint(txHash, 0)
	_, err := tx.ExecContext(ctx, query,
		reveal.InscriptionID,
		reveal.Number,
		reveal.Ordinal,
		reveal.ContentType,
		reveal.ContentLength,
		height,
		txHash,
		reveal.InputIndex,
		outpoint,
		reveal.SatPoint,
	)
	if err != nil {
		return fmt.Errorf("failed to insert inscription %s: %w", reveal.InscriptionID, err)
	}
	return nil
}

// InsertTransfer appends a transfer row inside the open block transaction and,
// when updateLocation is set, moves the inscription's current location to the
// post-transfer satpoint.
func InsertTransfer(ctx context.Context, tx *sqlx.Tx, height uint64, txHash string, transfer *domain.InscriptionTransferred, updateLocation bool) error {
	query := `
		INSERT INTO inscription_transfers
			(inscription_id, block_height, tx_hash, satpoint_pre_transfer, satpoint_post_transfer)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := tx.ExecContext(ctx, query,
		transfer.InscriptionID,
		height,
		txHash,
		transfer.SatPointPreTransfer,
		transfer.SatPointPostTransfer,
	); err != nil {
		return fmt.Errorf("failed to insert transfer for %s: %w", transfer.InscriptionID, err)
	}

	if updateLocation {
		update := `UPDATE inscriptions SET outpoint = $1, satpoint = $2 WHERE inscription_id = $3`
		outpoint := satPointOutPoint(transfer.SatPointPostTransfer)
		if _, err := tx.ExecContext(ctx, update, outpoint, transfer.SatPointPostTransfer, transfer.InscriptionID); err != nil {
			return fmt.Errorf("failed to update location for %s: %w", transfer.InscriptionID, err)
		}
	}
	return nil
}

// InscriptionLocation is one inscription currently sitting on an outpoint
// spent by the block under processing.
type InscriptionLocation struct {
	InscriptionID string `db:"inscription_id"`
	Number        int64  `db:"number"`
	Ordinal       uint64 `db:"ordinal"`
	SatPoint      string `db:"satpoint"`
}

// InscriptionsAtOutPoints returns the inscriptions located on any of the
// given outpoints, keyed by outpoint. Used by transfer tracking to find
// previously inscribed satoshis the block moves.
func InscriptionsAtOutPoints(ctx context.Context, tx *sqlx.Tx, outpoints []string) (map[string][]InscriptionLocation, error) {
	located := make(map[string][]InscriptionLocation)
	if len(outpoints) == 0 {
		return located, nil
	}

	query, args, err := sqlx.In(
		`SELECT inscription_id, number, ordinal, outpoint, satpoint FROM inscriptions WHERE outpoint IN (?)`,
		outpoints,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build outpoint query: %w", err)
	}
	query = tx.Rebind(query)

	rows, err := tx.QueryxContext(ctx, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return located, nil
		}
		return nil, fmt.Errorf("failed to query inscriptions at outpoints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row struct {
			InscriptionLocation
			OutPoint string `db:"outpoint"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		located[row.OutPoint] = append(located[row.OutPoint], row.InscriptionLocation)
	}
	return located, rows.Err()
}

// satPointOutPoint drops the offset component of a satpoint.
func satPointOutPoint(satpoint string) string {
	for i := len(satpoint) - 1; i >= 0; i-- {
		if satpoint[i] == ':' {
			return satpoint[:i]
		}
	}
	return satpoint
}
