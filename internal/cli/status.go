package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/ordindexer/internal/core/config"
	"github.com/vietddude/ordindexer/internal/core/domain"
	"github.com/vietddude/ordindexer/internal/infra/blockstore"
	"github.com/vietddude/ordindexer/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current indexing status",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	var inscriptions, transfers int64
	var maxNumber sql.NullInt64
	if err := db.GetContext(ctx, &inscriptions, "SELECT COUNT(*) FROM inscriptions"); err != nil {
		slog.Error("Failed to query inscriptions", "error", err)
		os.Exit(1)
	}
	if err := db.GetContext(ctx, &transfers, "SELECT COUNT(*) FROM inscription_transfers"); err != nil {
		slog.Error("Failed to query transfers", "error", err)
		os.Exit(1)
	}
	if err := db.GetContext(ctx, &maxNumber, "SELECT MAX(number) FROM inscriptions"); err != nil {
		slog.Error("Failed to query latest inscription number", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "INSCRIPTIONS\tTRANSFERS\tLATEST NUMBER\tBLOCK STORE TIP")

	tip := "n/a"
	if cfg.BlockStore.URL != "" {
		store, err := blockstore.NewRedisStore(cfg.BlockStore)
		if err == nil {
			tip = describeTip(ctx, store)
			_ = store.Close()
		}
	}

	latest := "-"
	if maxNumber.Valid {
		latest = fmt.Sprintf("%d", maxNumber.Int64)
	}
	_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", inscriptions, transfers, latest, tip)
	_ = w.Flush()
}

// compactedStore is the subset of the block store the status command reads.
type compactedStore interface {
	Tip(ctx context.Context) (uint64, bool, error)
	GetCompacted(ctx context.Context, height uint64) (*domain.CompactedBlock, error)
}

// describeTip renders the block store tip alongside its header hash, "-"
// when the store is empty.
func describeTip(ctx context.Context, store compactedStore) string {
	height, ok, err := store.Tip(ctx)
	if err != nil || !ok {
		return "-"
	}
	blk, err := store.GetCompacted(ctx, height)
	if err != nil || blk == nil {
		return fmt.Sprintf("%d", height)
	}
	return fmt.Sprintf("%d (%s)", height, blk.Hash)
}
