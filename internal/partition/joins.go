package partition

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/cqdecomp/internal/ir"
)

// MaxJoinNodes is the most join nodes a component may expose. Concatenation
// shares one vertex and intersection shares both endpoints, so no expression
// can attach to its neighbours through more than two vertices.
const MaxJoinNodes = 2

// JoinAnalysis describes which vertices of a partition must stay visible.
type JoinAnalysis struct {
	// Global lists vertices shared by several components plus the free
	// variables, in order of first appearance across components.
	Global []ir.VertexID `json:"global"`
	// Components holds the join nodes of each component, in the
	// component's vertex order.
	Components [][]ir.VertexID `json:"components"`
}

// AnalyzeJoins computes join nodes for every component of p:
// joinNodes(c) = vertices(c) ∩ (free ∪ vertices of every other component).
func AnalyzeJoins(p ir.Partition, free []ir.VertexID) JoinAnalysis {
	multiplicity := p.Multiplicity()
	isFree := make(map[ir.VertexID]bool, len(free))
	for _, v := range free {
		isFree[v] = true
	}

	a := JoinAnalysis{Components: make([][]ir.VertexID, len(p.Components))}
	seen := make(map[ir.VertexID]bool)
	for i, c := range p.Components {
		joins := []ir.VertexID{}
		for _, v := range c.Vertices {
			if !isFree[v] && multiplicity[v] < 2 {
				continue
			}
			joins = append(joins, v)
			if !seen[v] {
				seen[v] = true
				a.Global = append(a.Global, v)
			}
		}
		a.Components[i] = joins
	}
	return a
}

// Filtered is a partition that passed the join-node filter.
type Filtered struct {
	// Index is the 1-based position in the generated partition list.
	Index     int          `json:"index"`
	Partition ir.Partition `json:"partition"`
	Joins     JoinAnalysis `json:"joins"`
}

// Filter keeps partitions whose components each need at most MaxJoinNodes
// join nodes. Multi-component partitions that lose a free variable are also
// rejected. Every rejection produces a diagnostic.
func Filter(partitions []ir.Partition, free []ir.VertexID, edges []ir.Edge, logger *slog.Logger) ([]Filtered, []ir.Diagnostic) {
	if logger == nil {
		logger = slog.Default()
	}

	var kept []Filtered
	var diags []ir.Diagnostic
	for i, p := range partitions {
		index := i + 1
		if d, ok := checkFreeVariables(index, p, free); !ok {
			diags = append(diags, d)
			continue
		}

		joins := AnalyzeJoins(p, free)
		if d, ok := checkJoinCounts(index, p, joins, edges); !ok {
			diags = append(diags, d)
			continue
		}
		kept = append(kept, Filtered{Index: index, Partition: p, Joins: joins})
	}

	logger.Debug("partitions filtered",
		"generated", len(partitions),
		"kept", len(kept),
		"rejected", len(diags),
	)
	return kept, diags
}

func checkFreeVariables(index int, p ir.Partition, free []ir.VertexID) (ir.Diagnostic, bool) {
	if p.Size() < 2 {
		return ir.Diagnostic{}, true
	}
	multiplicity := p.Multiplicity()
	for _, v := range free {
		if multiplicity[v] == 0 {
			return ir.Diagnostic{
				PartitionIndex: index,
				Reason:         ir.ReasonFreeVariableAbsent,
				Message:        fmt.Sprintf("free variable %s occurs in no component", v),
				Attributes:     map[string]string{"variable": string(v)},
			}, false
		}
	}
	return ir.Diagnostic{}, true
}

func checkJoinCounts(index int, p ir.Partition, joins JoinAnalysis, edges []ir.Edge) (ir.Diagnostic, bool) {
	for ci, nodes := range joins.Components {
		if len(nodes) <= MaxJoinNodes {
			continue
		}
		return ir.Diagnostic{
			PartitionIndex: index,
			ComponentIndex: ci + 1,
			Reason:         ir.ReasonExcessJoinNodes,
			Message:        fmt.Sprintf("component needs %d join nodes, at most %d allowed", len(nodes), MaxJoinNodes),
			Attributes: map[string]string{
				"signature":  p.Components[ci].Signature(edges),
				"join_nodes": ir.JoinVertices(nodes),
			},
		}, false
	}
	return ir.Diagnostic{}, true
}

// LocalJoinNodes returns the members of requested that are vertices of c,
// in c's vertex order.
func LocalJoinNodes(c ir.Component, requested []ir.VertexID) []ir.VertexID {
	out := []ir.VertexID{}
	for _, v := range c.Vertices {
		if slices.Contains(requested, v) {
			out = append(out, v)
		}
	}
	return out
}
