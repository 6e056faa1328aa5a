package control

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/ordindexer/internal/core/config"
	"github.com/vietddude/ordindexer/internal/indexing/pipeline"
	"github.com/vietddude/ordindexer/internal/indexing/protocol"
	"github.com/vietddude/ordindexer/internal/infra/blockstore"
	"github.com/vietddude/ordindexer/internal/infra/storage/postgres"
)

// Indexer is the main application struct that manages the inscription
// indexer lifecycle: database handles, the compacted block store, the
// protocol engine and the processing runloop.
type Indexer struct {
	cfg        *config.AppConfig
	db         *sqlx.DB
	roDB       *sql.DB
	redisStore *blockstore.RedisStore
	controller *pipeline.Controller
	metricsSrv *http.Server
	log        *slog.Logger
}

// NewIndexer creates an Indexer with all dependencies initialized: it opens
// both database handles, runs migrations, connects the block store and
// spawns the runloop (which then waits for Start).
func NewIndexer(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (*Indexer, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database url is required")
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to init db: %w", err)
	}

	if err := postgres.Migrate(db.DB, cfg.Migrations); err != nil {
		_ = db.Close()
		return nil, err
	}

	roDB, err := postgres.OpenReadOnly(ctx, cfg.Database)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init read-only db: %w", err)
	}

	// Redis when configured, in-memory otherwise.
	var blocks pipeline.BlockStore
	var redisStore *blockstore.RedisStore
	if cfg.BlockStore.URL != "" {
		redisStore, err = blockstore.NewRedisStore(cfg.BlockStore)
		if err != nil {
			_ = db.Close()
			_ = roDB.Close()
			return nil, fmt.Errorf("failed to init block store: %w", err)
		}
		blocks = redisStore
		log.Info("Using Redis block store")
	} else {
		blocks = blockstore.NewMemoryStore()
		log.Info("Using in-memory block store")
	}

	engine := protocol.NewEngine(cfg.Protocol, log)

	controller := pipeline.StartProcessor(ctx, cfg.Pipeline, pipeline.Deps{
		DB:         db,
		ReadOnlyDB: roDB,
		Blocks:     blocks,
		Engine:     engine,
		Log:        log,
	})

	return &Indexer{
		cfg:        cfg,
		db:         db,
		roDB:       roDB,
		redisStore: redisStore,
		controller: controller,
		log:        log,
	}, nil
}

// Controller exposes the runloop handle to the driver.
func (ix *Indexer) Controller() *pipeline.Controller {
	return ix.controller
}

// Start releases the runloop barrier and brings up the metrics endpoint and
// the connection pool collector.
func (ix *Indexer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	ix.metricsSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", ix.cfg.Server.Port),
		Handler: mux,
	}
	go func() {
		if err := ix.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ix.log.Error("Metrics server failed", "error", err)
		}
	}()

	postgres.StartMetricsCollector(ctx, ix.db)

	ix.controller.Start()
	ix.log.Info("Inscription indexer started", "metrics_port", ix.cfg.Server.Port)
	return nil
}

// Stop terminates the runloop, waits for it to drain, then closes every
// handle.
func (ix *Indexer) Stop(ctx context.Context) error {
	ix.log.Info("Stopping inscription indexer...")

	ix.controller.Terminate()
	select {
	case <-ix.controller.Done():
	case <-time.After(30 * time.Second):
		ix.log.Warn("Timed out waiting for runloop to exit")
	}

	if ix.metricsSrv != nil {
		if err := ix.metricsSrv.Shutdown(ctx); err != nil {
			ix.log.Warn("Failed to shut down metrics server", "error", err)
		}
	}

	if ix.redisStore != nil {
		if err := ix.redisStore.Close(); err != nil {
			ix.log.Warn("Failed to close block store", "error", err)
		}
	}
	if err := ix.roDB.Close(); err != nil {
		ix.log.Warn("Failed to close read-only db", "error", err)
	}
	if err := ix.db.Close(); err != nil {
		ix.log.Warn("Failed to close db", "error", err)
	}
	return nil
}
