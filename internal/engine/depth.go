package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxDepth is the nested dispatch ceiling.
const DefaultMaxDepth = 10

// DepthGuard counts nested dispatches on one engine and enforces a ceiling.
//
// Every entry into dispatch (an external or re-entrant raise, a polled rule
// firing, a link being followed) calls Enter and, on success, a matching
// Leave. An action whose side effect re-raises its own event, directly or
// through a link cycle, therefore stops after maxDepth nested executions
// instead of exhausting the call stack.
type DepthGuard struct {
	maxDepth int
	current  int
	dropped  int
}

// NewDepthGuard creates a guard with the given ceiling.
func NewDepthGuard(maxDepth int) *DepthGuard {
	return &DepthGuard{maxDepth: maxDepth}
}

// Enter increments the depth. It returns DepthExceededError, and leaves the
// depth unchanged, when the ceiling would be exceeded.
func (g *DepthGuard) Enter() error {
	if g.current >= g.maxDepth {
		g.dropped++
		return &DepthExceededError{Depth: g.current + 1, Limit: g.maxDepth}
	}
	g.current++
	return nil
}

// Leave decrements the depth after a successful Enter.
func (g *DepthGuard) Leave() {
	if g.current > 0 {
		g.current--
	}
}

// Current returns the current nesting depth.
func (g *DepthGuard) Current() int {
	return g.current
}

// MaxDepth returns the ceiling.
func (g *DepthGuard) MaxDepth() int {
	return g.maxDepth
}

// Dropped returns how many entries were refused.
func (g *DepthGuard) Dropped() int {
	return g.dropped
}

// DepthExceededError is returned when a dispatch would nest past the ceiling.
// The triggering event is dropped, not queued.
type DepthExceededError struct {
	Depth int
	Limit int
}

// Error implements the error interface.
func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("nested dispatch depth %d exceeds limit %d", e.Depth, e.Limit)
}

// IsDepthExceededError returns true if the error is a DepthExceededError.
func IsDepthExceededError(err error) bool {
	var de *DepthExceededError
	return errors.As(err, &de)
}
