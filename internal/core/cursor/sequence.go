package cursor

import (
	"context"
	"database/sql"
	"fmt"
)

// SequenceCursor assigns inscription sequence numbers. It is backed by a
// dedicated read-only relational handle used to re-derive the next number
// from durable state, so a process restart resumes correctly without
// re-scanning. Exactly one owner advances it, strictly serially; it is not
// safe for concurrent mutation.
//
// Advancement is logical until the surrounding DB transaction commits: the
// owner must call Reset after a rollback or commit failure so the next pick
// re-derives from durable state and a discarded advance never persists.
type SequenceCursor struct {
	db     *sql.DB
	next   int64
	primed bool
}

// NewSequenceCursor wraps the read-only bootstrap handle. The position is
// derived lazily on first pick.
func NewSequenceCursor(db *sql.DB) *SequenceCursor {
	return &SequenceCursor{db: db}
}

// PickNext returns the next sequence number to assign. The first call after
// construction or Reset reads MAX(number) from durable state.
func (c *SequenceCursor) PickNext(ctx context.Context) (int64, error) {
	if !c.primed {
		if err := c.prime(ctx); err != nil {
			return 0, err
		}
	}
	return c.next, nil
}

// Increment advances the cursor past a number just assigned to a reveal. The
// caller writes the reveal inside the same open DB transaction.
func (c *SequenceCursor) Increment(ctx context.Context) error {
	if !c.primed {
		if err := c.prime(ctx); err != nil {
			return err
		}
	}
	c.next++
	return nil
}

// Reset drops the in-memory position so the next pick re-derives it from
// durable state. Called after a rollback or a failed commit.
func (c *SequenceCursor) Reset() {
	c.primed = false
}

func (c *SequenceCursor) prime(ctx context.Context) error {
	var max sql.NullInt64
	row := c.db.QueryRowContext(ctx, `SELECT MAX(number) FROM inscriptions`)
	if err := row.Scan(&max); err != nil {
		return fmt.Errorf("failed to derive sequence cursor: %w", err)
	}
	if max.Valid {
		c.next = max.Int64 + 1
	} else {
		c.next = 0
	}
	c.primed = true
	return nil
}
