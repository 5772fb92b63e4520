package pipeline

import (
	"time"

	"github.com/roach88/cqdecomp/internal/engine"
	"github.com/roach88/cqdecomp/internal/ir"
	"github.com/roach88/cqdecomp/internal/partition"
)

// TerminationReason explains why a run stopped before covering every
// partition. The empty reason means the run completed.
type TerminationReason string

const (
	TerminationTimeBudget     TerminationReason = "time_budget_exceeded"
	TerminationPartitionLimit TerminationReason = "partition_limit_reached"
	TerminationCancelled      TerminationReason = "cancelled"
)

// Counts summarizes the partition funnel.
type Counts struct {
	Total    int `json:"total"`
	Filtered int `json:"filtered"`
	Valid    int `json:"valid"`
}

// Tuple assigns one rule to each component of a partition, in component
// order.
type Tuple []engine.Rule

// PartitionEvaluation records the synthesis outcome for one filtered
// partition.
type PartitionEvaluation struct {
	Index      int                     `json:"index"`
	Partition  ir.Partition            `json:"partition"`
	Valid      bool                    `json:"valid"`
	Components []engine.ComponentRules `json:"components"`
	RuleCounts []int                   `json:"rule_counts"`
	Tuples     []Tuple                 `json:"tuples,omitempty"`
	// Diagnostics lists the components left without rules.
	Diagnostics []ir.Diagnostic `json:"diagnostics,omitempty"`
	// MaxDiameter is the largest diameter among the partition's final rules.
	MaxDiameter int `json:"max_diameter"`
}

// Result is the read-only outcome of Decompose.
type Result struct {
	Query         string        `json:"query"`
	Edges         []ir.Edge     `json:"edges"`
	FreeVariables []ir.VertexID `json:"free_variables"`
	VertexCount   int           `json:"vertex_count"`
	Options       Options       `json:"options"`

	Counts             Counts                `json:"counts"`
	Partitions         []ir.Partition        `json:"partitions"`
	FilteredPartitions []partition.Filtered  `json:"filtered_partitions"`
	ValidPartitions    []ir.Partition        `json:"valid_partitions"`
	Evaluations        []PartitionEvaluation `json:"evaluations"`

	// Catalogue holds every final component rule of the valid partitions,
	// first occurrence per component key.
	Catalogue []engine.Rule `json:"catalogue"`
	// GlobalCatalogue holds the whole-query rules after orientation.
	GlobalCatalogue []engine.Rule `json:"global_catalogue"`
	// FinalExpression is the first global rule, if the query has one.
	FinalExpression *engine.Rule `json:"final_expression,omitempty"`

	Diagnostics       []ir.Diagnostic   `json:"diagnostics"`
	Elapsed           time.Duration     `json:"elapsed"`
	TerminationReason TerminationReason `json:"termination_reason,omitempty"`
	Cache             engine.CacheStats `json:"cache"`
}

// HasValidPartition reports whether at least one partition validated.
func (r *Result) HasValidPartition() bool {
	return r.Counts.Valid > 0
}

func (r *Result) terminate(reason TerminationReason) {
	if r.TerminationReason == "" {
		r.TerminationReason = reason
	}
}
