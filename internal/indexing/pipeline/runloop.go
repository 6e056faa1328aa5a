package pipeline

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vietddude/ordindexer/internal/core/cursor"
	"github.com/vietddude/ordindexer/internal/core/domain"
	"github.com/vietddude/ordindexer/internal/indexing/cache"
	"github.com/vietddude/ordindexer/internal/indexing/metrics"
)

const commandQueueDepth = 2

// Config tunes the runloop. Zero values fall back to the documented
// defaults: 1s poll interval, idle event every 10 empty cycles, L2 clear
// past 100 cumulative blocks, capacity hint 1024.
type Config struct {
	PollInterval        time.Duration `yaml:"poll_interval"`
	IdleThreshold       int           `yaml:"idle_threshold"`
	CacheClearThreshold int           `yaml:"cache_clear_threshold"`
	CacheCapacityHint   int           `yaml:"cache_capacity_hint"`
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.IdleThreshold <= 0 {
		c.IdleThreshold = 10
	}
	if c.CacheClearThreshold <= 0 {
		c.CacheClearThreshold = 100
	}
	if c.CacheCapacityHint <= 0 {
		c.CacheCapacityHint = 1024
	}
}

// BlockStore persists compacted block summaries. Must tolerate an empty set;
// called exactly once per ProcessBlocks command.
type BlockStore interface {
	StoreCompacted(ctx context.Context, blocks []*domain.CompactedBlock) error
}

// Engine is the ordinal protocol collaborator. protocol.Engine is the
// default implementation.
type Engine interface {
	ComputeRelevantTransactions(ctx context.Context, block *domain.Block, lookahead []*domain.Block, l1 *cache.L1, l2 *cache.L2, dbTx *sqlx.Tx) (bool, error)
	AugmentInscriptions(ctx context.Context, block *domain.Block, cur *cursor.SequenceCursor, l1 *cache.L1, dbTx *sqlx.Tx) error
	AugmentTransfers(ctx context.Context, block *domain.Block, dbTx *sqlx.Tx, updateLocations bool) error
}

// Deps are the resources the worker owns for its lifetime. DB and ReadOnlyDB
// are exclusively the worker's; Sink is an optional downstream receiver fed
// by non-blocking sends. CacheL2 is allocated from the capacity hint when
// nil; injecting one lets callers observe the scheduled clears.
type Deps struct {
	DB         *sqlx.DB
	ReadOnlyDB *sql.DB
	Blocks     BlockStore
	Engine     Engine
	Sink       chan<- *domain.Block
	CacheL2    *cache.L2
	Log        *slog.Logger
}

type runloop struct {
	cfg      Config
	deps     Deps
	commands chan Command
	events   chan Event
	queue    *eventQueue
	done     chan struct{}
	log      *slog.Logger
}

// StartProcessor spawns the inscription indexing runloop and returns its
// controller. The worker waits for the Start command before polling; ctx is
// used for storage operations, not for cancellation. The loop terminates
// only through Terminate or a closed command channel.
func StartProcessor(ctx context.Context, cfg Config, deps Deps) *Controller {
	cfg.applyDefaults()

	r := &runloop{
		cfg:      cfg,
		deps:     deps,
		commands: make(chan Command, commandQueueDepth),
		events:   make(chan Event),
		queue:    newEventQueue(),
		done:     make(chan struct{}),
		log:      deps.Log.With("run_id", uuid.New().String()),
	}
	go r.queue.pump(r.events)
	go r.run(ctx)

	return &Controller{commands: r.commands, events: r.events, done: r.done}
}

func (r *runloop) run(ctx context.Context) {
	defer close(r.done)
	defer r.queue.close()

	cacheL2 := r.deps.CacheL2
	if cacheL2 == nil {
		cacheL2 = cache.NewL2(r.cfg.CacheCapacityHint)
	}
	seq := cursor.NewSequenceCursor(r.deps.ReadOnlyDB)
	proc := newProcessor(r.deps.DB, seq, cacheL2, r.deps.Engine, r.deps.Sink, r.log)

	if !r.awaitStart() {
		return
	}
	r.log.Info("Start inscription indexing runloop")

	emptyCycles := 0
	processedSinceClear := 0

	for {
		select {
		case cmd, ok := <-r.commands:
			if !ok {
				r.log.Error("Command channel closed, terminating runloop")
				return
			}
			switch cmd.Type {
			case CommandStart:
				continue
			case CommandTerminate:
				r.log.Info("Terminating inscription indexing runloop")
				return
			case CommandProcessBlocks:
				emptyCycles = 0

				// The block store always reflects canonical chain continuity,
				// whether or not inscription processing runs.
				if err := r.deps.Blocks.StoreCompacted(ctx, cmd.Compacted); err != nil {
					r.log.Error("Failed to store compacted blocks", "error", err)
				} else {
					metrics.CompactedBlocksStored.Add(float64(len(cmd.Compacted)))
				}

				if len(cmd.Blocks) == 0 {
					continue
				}

				r.log.Info("Processing blocks", "count", len(cmd.Blocks))
				processed := proc.processBatch(ctx, cmd.Blocks)

				processedSinceClear += len(processed)
				if processedSinceClear > r.cfg.CacheClearThreshold {
					r.log.Info("Clearing cache L2", "entries", cacheL2.Len())
					cacheL2.Clear()
					metrics.CacheL2Clears.Inc()
					processedSinceClear = 0
				}
				metrics.CacheL2Entries.Set(float64(cacheL2.Len()))
			}
		default:
			emptyCycles++
			if emptyCycles == r.cfg.IdleThreshold {
				emptyCycles = 0
				r.emit(Event{Type: EventEmptyQueue})
				metrics.EmptyQueueEvents.Inc()
			}
			time.Sleep(r.cfg.PollInterval)
		}
	}
}

// awaitStart blocks on the readiness barrier. Returns false when the worker
// should exit instead of entering the loop.
func (r *runloop) awaitStart() bool {
	for {
		cmd, ok := <-r.commands
		if !ok {
			return false
		}
		switch cmd.Type {
		case CommandStart:
			return true
		case CommandTerminate:
			return false
		default:
			r.log.Warn("Dropping command received before Start")
		}
	}
}

// emit never blocks the worker; events queue until the driver drains them.
func (r *runloop) emit(ev Event) {
	r.queue.push(ev)
}

// eventQueue decouples the worker from the event receiver: pushes never
// block and nothing is dropped, a dedicated pump goroutine delivers queued
// events in order. Closed by the worker on exit; the outbound channel closes
// once the queue is drained.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Event
	closed bool
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *eventQueue) push(ev Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *eventQueue) pump(out chan<- Event) {
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.items) == 0 {
			q.mu.Unlock()
			close(out)
			return
		}
		ev := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()
		out <- ev
	}
}
