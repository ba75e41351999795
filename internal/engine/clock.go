package engine

import "sync/atomic"

// Clock is a monotonic logical counter.
//
// The engine uses one clock for rule insertion order and another for retry
// priorities; the reference world uses one to stamp applied effects. Values
// are strictly increasing, so ordering never depends on wall time and a
// replayed simulation produces the same sequence.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
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
