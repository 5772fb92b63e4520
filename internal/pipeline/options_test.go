package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		field  string
	}{
		{"defaults", func(*Options) {}, ""},
		{"negative tuple limit", func(o *Options) { o.TupleLimit = -1 }, "tuple_limit"},
		{"negative max partitions", func(o *Options) { o.MaxPartitions = -5 }, "max_partitions"},
		{"negative budget", func(o *Options) { o.TimeBudget = -time.Second }, "time_budget"},
		{"negative diameter cap", func(o *Options) { o.DiameterCap = -2 }, "diameter_cap"},
		{"negative workers", func(o *Options) { o.Workers = -1 }, "workers"},
		{"unknown mode", func(o *Options) { o.Mode = "fast" }, "mode"},
		{"unknown plan", func(o *Options) { o.Plan = "best" }, "plan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			err := opts.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.True(t, IsConfigError(fmt.Errorf("wrapped: %w", err)))
		})
	}
}

func TestOptions_TupleCap(t *testing.T) {
	opts := DefaultOptions()
	opts.TupleLimit = 7
	assert.Equal(t, 1, opts.tupleCap(), "validate mode keeps one tuple")

	opts.Mode = ModeEnumerate
	assert.Equal(t, 7, opts.tupleCap())

	opts.TupleLimit = 0
	assert.Equal(t, 0, opts.tupleCap())

	opts.SingleTuplePerPartition = true
	assert.Equal(t, 1, opts.tupleCap())
}

func TestParsePlanMode(t *testing.T) {
	p, err := ParsePlanMode("single-edge")
	require.NoError(t, err)
	assert.Equal(t, PlanSingleEdge, p)

	_, err = ParsePlanMode("SINGLE")
	assert.True(t, IsConfigError(err))
}

func TestOptions_Sequential(t *testing.T) {
	opts := DefaultOptions()
	assert.True(t, opts.sequential())

	opts.Workers = 4
	assert.False(t, opts.sequential())

	opts.Plan = PlanRandom
	assert.True(t, opts.sequential())
}
