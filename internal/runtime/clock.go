package runtime

import "sync/atomic"

// Clock is the monotonic revision counter of a session. Every program
// install is stamped with a strictly increasing seq number, which is
// how stale compiles are recognized and discarded.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// although the session's single-writer design means only one goroutine
// typically calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used when resuming a session from a persisted trace.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
