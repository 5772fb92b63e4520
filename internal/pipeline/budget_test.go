package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqdecomp/internal/testutil"
)

func TestBudget_ZeroNeverExpires(t *testing.T) {
	clock := testutil.NewManualClock(time.Hour)
	b := NewBudget(0, clock)
	assert.NoError(t, b.Check("anywhere"))
}

func TestBudget_Exceeded(t *testing.T) {
	clock := testutil.NewManualClock(0)
	b := NewBudget(time.Second, clock)

	require.NoError(t, b.Check("early"))

	clock.Advance(2 * time.Second)
	err := b.Check("late")
	require.Error(t, err)

	var be *BudgetExceededError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "late", be.Checkpoint)
	assert.Equal(t, 2*time.Second, be.Elapsed)
	assert.Equal(t, time.Second, be.Limit)
	assert.Contains(t, err.Error(), "time budget exceeded at late")
	assert.True(t, IsBudgetExceeded(fmt.Errorf("stage: %w", err)))
	assert.False(t, IsBudgetExceeded(fmt.Errorf("other")))
}

func TestBudget_ExactLimitIsNotExceeded(t *testing.T) {
	clock := testutil.NewManualClock(0)
	b := NewBudget(time.Second, clock)
	clock.Advance(time.Second)
	assert.NoError(t, b.Check("edge"))
	assert.Equal(t, time.Second, b.Elapsed())
}
