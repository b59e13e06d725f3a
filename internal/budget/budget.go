// Package budget implements the process-wide wall-clock deadline that bounds
// a harvest run. Every phase entry point receives the budget and polls it
// cooperatively; an in-flight fetch is allowed to complete.
package budget

import (
	"context"
	"time"
)

// Budget is a fixed wall-clock deadline. The zero value is unusable; build
// one with New or At.
type Budget struct {
	deadline time.Time
}

// New returns a budget expiring d from now.
func New(d time.Duration) Budget {
	return Budget{deadline: time.Now().Add(d)}
}

// At returns a budget with an explicit deadline, primarily for tests.
func At(deadline time.Time) Budget {
	return Budget{deadline: deadline}
}

// Deadline reports the absolute expiry time.
func (b Budget) Deadline() time.Time {
	return b.deadline
}

// Expired reports whether the deadline has passed.
func (b Budget) Expired() bool {
	return !time.Now().Before(b.deadline)
}

// Remaining returns the time left, clamped at zero.
func (b Budget) Remaining() time.Duration {
	r := time.Until(b.deadline)
	if r < 0 {
		return 0
	}
	return r
}

// Context derives a context that is canceled at the budget deadline, so
// individual network calls inherit the run bound on top of their own timeouts.
func (b Budget) Context(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithDeadline(parent, b.deadline)
}
