package pipeline

import "github.com/vietddude/ordindexer/internal/core/domain"

// CommandType tags the inbound control variants.
type CommandType int

const (
	// CommandStart is the readiness barrier consumed once before the loop
	// begins; observed again mid-loop it is a no-op.
	CommandStart CommandType = iota
	// CommandProcessBlocks hands the worker a compacted-block set and a
	// full-block set.
	CommandProcessBlocks
	// CommandTerminate ends the loop at the next poll boundary.
	CommandTerminate
)

// Command is the inbound control message.
type Command struct {
	Type      CommandType
	Compacted []*domain.CompactedBlock
	Blocks    []*domain.Block
}

// EventType tags the outbound status variants.
type EventType int

const (
	// EventEmptyQueue signals ten consecutive empty poll cycles.
	EventEmptyQueue EventType = iota
)

// Event is the outbound status message.
type Event struct {
	Type EventType
}

// Controller is the driver's handle on a running worker: a bounded command
// sender, an event receiver, and a done channel for join semantics.
type Controller struct {
	commands chan Command
	events   chan Event
	done     chan struct{}
}

// Start releases the readiness barrier. Blocks if the command queue is full.
func (c *Controller) Start() {
	c.commands <- Command{Type: CommandStart}
}

// ProcessBlocks submits one batch. The command channel is bounded at
// capacity 2 on purpose: a driver that queues further ahead blocks here,
// which is the backpressure contract.
func (c *Controller) ProcessBlocks(compacted []*domain.CompactedBlock, blocks []*domain.Block) {
	c.commands <- Command{Type: CommandProcessBlocks, Compacted: compacted, Blocks: blocks}
}

// Terminate asks the worker to exit at the next poll boundary. There is no
// mid-batch cancellation; an in-flight transaction always reaches commit or
// rollback first.
func (c *Controller) Terminate() {
	c.commands <- Command{Type: CommandTerminate}
}

// Events exposes the outbound event stream.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Done is closed when the worker goroutine has exited.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}
