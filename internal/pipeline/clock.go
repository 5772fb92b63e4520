package pipeline

import "time"

// Clock supplies wall time to the budget.
//
// The pipeline reads the clock only at its checkpoints, so a test clock
// that advances a fixed step per call makes budget exhaustion reproducible.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now returns the current wall time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
