package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BlocksProcessed tracks blocks run through the post-processor
	BlocksProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ordindexer_blocks_processed_total",
			Help: "Total number of blocks processed",
		},
	)

	// InscriptionsRevealed tracks committed inscription reveals
	InscriptionsRevealed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ordindexer_inscriptions_revealed_total",
			Help: "Total number of inscriptions revealed and committed",
		},
	)

	// TransfersTracked tracks committed inscription transfers
	TransfersTracked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ordindexer_inscription_transfers_total",
			Help: "Total number of inscription transfers committed",
		},
	)

	// BlockCommits tracks committed per-block transactions
	BlockCommits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ordindexer_block_commits_total",
			Help: "Total number of committed block transactions",
		},
	)

	// BlockRollbacks tracks rollbacks forced by the idempotency check
	BlockRollbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ordindexer_block_rollbacks_total",
			Help: "Total number of block transactions rolled back due to existing activity",
		},
	)

	// CommitFailures tracks commits that errored; the block is still forwarded
	CommitFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ordindexer_block_commit_failures_total",
			Help: "Total number of failed block transaction commits",
		},
	)

	// CacheL2Entries tracks the current L2 cache population
	CacheL2Entries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ordindexer_cache_l2_entries",
			Help: "Current number of entries in the L2 transaction cache",
		},
	)

	// CacheL2Clears tracks scheduled full clears of the L2 cache
	CacheL2Clears = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ordindexer_cache_l2_clears_total",
			Help: "Total number of scheduled L2 cache clears",
		},
	)

	// EmptyQueueEvents tracks idle notifications emitted to the driver
	EmptyQueueEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ordindexer_empty_queue_events_total",
			Help: "Total number of EmptyQueue events emitted",
		},
	)

	// CompactedBlocksStored tracks compacted block writes to the block store
	CompactedBlocksStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ordindexer_compacted_blocks_stored_total",
			Help: "Total number of compacted blocks written to the block store",
		},
	)

	// DBConnectionPoolUsage tracks relational pool utilization percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ordindexer_db_connection_pool_usage",
			Help: "Connection pool usage percentage of the relational store",
		},
	)
)
