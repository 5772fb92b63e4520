package testutil

import (
	"sync"
	"time"
)

// ManualClock is a controllable wall clock for budget tests.
//
// Now returns the current instant and then advances it by Step, so a
// pipeline that polls the clock sees time pass deterministically.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewManualClock creates a clock starting at a fixed instant that advances
// by step on every Now call. A zero step freezes time until Advance.
func NewManualClock(step time.Duration) *ManualClock {
	return &ManualClock{
		now:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		step: step,
	}
}

// Now returns the current instant and advances by the step.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
