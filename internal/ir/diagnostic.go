package ir

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// DiagnosticReason classifies why a partition or component was rejected.
type DiagnosticReason string

const (
	// ReasonFreeVariableAbsent: a free variable occurs in no component.
	ReasonFreeVariableAbsent DiagnosticReason = "FREE_VARIABLE_ABSENT"
	// ReasonExcessJoinNodes: a component needs more join nodes than the algebra allows.
	ReasonExcessJoinNodes DiagnosticReason = "EXCESS_JOIN_NODES"
	// ReasonComponentRulesMissing: synthesis produced no rule for the component.
	ReasonComponentRulesMissing DiagnosticReason = "COMPONENT_RULES_MISSING"
	// ReasonComponentEndpointsInvalid: no rule respects the join-node roles.
	ReasonComponentEndpointsInvalid DiagnosticReason = "COMPONENT_ENDPOINTS_INVALID"
	// ReasonComponentOrientationEmpty: orientation filtering left nothing.
	ReasonComponentOrientationEmpty DiagnosticReason = "COMPONENT_ORIENTATION_EMPTY"
)

// Diagnostic records a structural rejection. PartitionIndex and
// ComponentIndex are 1-based; ComponentIndex is 0 for partition-level
// findings.
type Diagnostic struct {
	PartitionIndex int               `json:"partition_index"`
	ComponentIndex int               `json:"component_index,omitempty"`
	Reason         DiagnosticReason  `json:"reason"`
	Message        string            `json:"message"`
	Attributes     map[string]string `json:"attributes,omitempty"`
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "partition %d", d.PartitionIndex)
	if d.ComponentIndex > 0 {
		fmt.Fprintf(&b, " component %d", d.ComponentIndex)
	}
	fmt.Fprintf(&b, ": %s: %s", d.Reason, d.Message)
	for _, k := range slices.Sorted(maps.Keys(d.Attributes)) {
		fmt.Fprintf(&b, " %s=%s", k, d.Attributes[k])
	}
	return b.String()
}

// JoinVertices renders a vertex list for diagnostic attributes.
func JoinVertices(vs []VertexID) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = string(v)
	}
	return strings.Join(parts, ",")
}
