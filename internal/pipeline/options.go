package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// Mode selects how many decomposition tuples a valid partition yields.
type Mode string

const (
	// ModeValidate proves a partition valid with a single tuple.
	ModeValidate Mode = "validate"
	// ModeEnumerate collects tuples up to the tuple limit.
	ModeEnumerate Mode = "enumerate"
)

// PlanMode selects which partitions are materialized.
type PlanMode string

const (
	// PlanAll validates every filtered partition.
	PlanAll PlanMode = "all"
	// PlanFirst stops at the first valid partition in generation order.
	PlanFirst PlanMode = "first"
	// PlanSingleEdge uses only the partition with one component per edge.
	PlanSingleEdge PlanMode = "single-edge"
	// PlanRandom visits partitions in a seeded shuffled order and stops at
	// the first valid one.
	PlanRandom PlanMode = "random"
)

// DefaultMaxPartitions caps partition generation when no limit is given.
const DefaultMaxPartitions = 10000

// Options configures one Decompose call.
type Options struct {
	Mode Mode `json:"mode" yaml:"mode"`
	// MaxPartitions caps generated partitions; 0 is unbounded.
	MaxPartitions int `json:"max_partitions" yaml:"max_partitions"`
	// TimeBudget bounds wall time; 0 is unbounded.
	TimeBudget time.Duration `json:"time_budget" yaml:"time_budget"`
	// TupleLimit caps tuples per partition in enumerate mode; 0 is unbounded.
	TupleLimit              int      `json:"tuple_limit" yaml:"tuple_limit"`
	SingleTuplePerPartition bool     `json:"single_tuple_per_partition" yaml:"single_tuple_per_partition"`
	Plan                    PlanMode `json:"plan" yaml:"plan"`
	// DiameterCap drops rules with a larger diameter; 0 is unbounded.
	DiameterCap int `json:"diameter_cap" yaml:"diameter_cap"`
	// Workers > 1 validates partitions concurrently under PlanAll and
	// PlanSingleEdge.
	Workers int   `json:"workers" yaml:"workers"`
	Seed    int64 `json:"seed" yaml:"seed"`
}

// DefaultOptions returns validate mode over all partitions.
func DefaultOptions() Options {
	return Options{
		Mode:          ModeValidate,
		MaxPartitions: DefaultMaxPartitions,
		Plan:          PlanAll,
		Workers:       1,
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeValidate, ModeEnumerate:
		return m, nil
	}
	return "", &ConfigError{Field: "mode", Message: fmt.Sprintf("unknown mode %q (want validate or enumerate)", s)}
}

// ParsePlanMode parses a plan mode name.
func ParsePlanMode(s string) (PlanMode, error) {
	switch p := PlanMode(s); p {
	case PlanAll, PlanFirst, PlanSingleEdge, PlanRandom:
		return p, nil
	}
	return "", &ConfigError{Field: "plan", Message: fmt.Sprintf("unknown plan mode %q (want all, first, single-edge or random)", s)}
}

// Validate rejects inconsistent options before any search starts.
func (o Options) Validate() error {
	if _, err := ParseMode(string(o.Mode)); err != nil {
		return err
	}
	if _, err := ParsePlanMode(string(o.Plan)); err != nil {
		return err
	}
	checks := []struct {
		field string
		value int64
	}{
		{"max_partitions", int64(o.MaxPartitions)},
		{"time_budget", int64(o.TimeBudget)},
		{"tuple_limit", int64(o.TupleLimit)},
		{"diameter_cap", int64(o.DiameterCap)},
		{"workers", int64(o.Workers)},
	}
	for _, c := range checks {
		if c.value < 0 {
			return &ConfigError{Field: c.field, Message: fmt.Sprintf("must not be negative, got %d", c.value)}
		}
	}
	return nil
}

// tupleCap returns how many tuples to collect per valid partition; 0 means
// no cap.
func (o Options) tupleCap() int {
	if o.SingleTuplePerPartition || o.Mode == ModeValidate {
		return 1
	}
	return o.TupleLimit
}

// sequential reports whether partitions must be validated one by one.
func (o Options) sequential() bool {
	return o.Workers <= 1 || o.Plan == PlanFirst || o.Plan == PlanRandom
}

// ConfigError reports a rejected configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsConfigError reports whether err wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
