package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// Budget tracks elapsed wall time for one pipeline invocation and reports
// when it passes the configured limit.
//
// Budgets are cooperative: the pipeline consults Check between partitions,
// never in the middle of one, so a partition that has started validating
// always completes.
type Budget struct {
	limit time.Duration
	clock Clock
	start time.Time
}

// NewBudget starts a budget of limit measured on clock. A zero limit never
// expires.
func NewBudget(limit time.Duration, clock Clock) *Budget {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Budget{limit: limit, clock: clock, start: clock.Now()}
}

// Elapsed returns the time since the budget started.
func (b *Budget) Elapsed() time.Duration {
	return b.clock.Now().Sub(b.start)
}

// Limit returns the configured limit.
func (b *Budget) Limit() time.Duration {
	return b.limit
}

// Check returns a *BudgetExceededError naming checkpoint when the elapsed
// time exceeds the limit.
func (b *Budget) Check(checkpoint string) error {
	if b.limit <= 0 {
		return nil
	}
	elapsed := b.Elapsed()
	if elapsed <= b.limit {
		return nil
	}
	return &BudgetExceededError{
		Checkpoint: checkpoint,
		Elapsed:    elapsed,
		Limit:      b.limit,
	}
}

// BudgetExceededError is returned by Budget.Check. It ends the search
// early; the pipeline records it as a termination reason and still returns
// everything gathered before the checkpoint.
type BudgetExceededError struct {
	Checkpoint string
	Elapsed    time.Duration
	Limit      time.Duration
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("time budget exceeded at %s: %s > %s", e.Checkpoint, e.Elapsed, e.Limit)
}

// IsBudgetExceeded reports whether err wraps a *BudgetExceededError.
func IsBudgetExceeded(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}
