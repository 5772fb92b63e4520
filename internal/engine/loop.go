package engine

import (
	"fmt"

	"github.com/roach88/cqdecomp/internal/cpq"
	"github.com/roach88/cqdecomp/internal/ir"
)

// loopRules tries every vertex of subset as the anchor of a backtracking
// walk. A walk succeeds when it crosses every edge of subset; the result is a
// loop rule at the anchor.
func (s *Synthesizer) loopRules(subset ir.EdgeSet) []Rule {
	adj := ir.Adjacency(s.edges, subset)

	var out []Rule
	for _, a := range ir.Vertices(s.edges, subset) {
		var visited ir.EdgeSet
		body := s.backtrack(a, adj, &visited)
		if visited != subset {
			continue
		}
		out = append(out, Rule{
			Expr:       body,
			Edges:      subset,
			Source:     a,
			Target:     a,
			Derivation: fmt.Sprintf("loop backtrack at %s", a),
		})
	}
	return out
}

// backtrack walks every unvisited edge at v: out across the edge, the loop
// at the far end, and back again, anchored with id. Sibling segments are
// concatenated in edge order. A vertex with nothing left to walk yields id.
func (s *Synthesizer) backtrack(v ir.VertexID, adj map[ir.VertexID][]int, visited *ir.EdgeSet) cpq.Expr {
	var segments []cpq.Expr
	for _, o := range adj[v] {
		if visited.Has(o) {
			continue
		}
		*visited = visited.With(o)

		e := ir.EdgeAt(s.edges, o)
		if e.IsSelfLoop() {
			segments = append(segments, cpq.Anchor(cpq.Fwd(e.Label)))
			continue
		}

		step := cpq.Fwd(e.Label)
		if e.Source != v {
			step = cpq.Inv(e.Label)
		}
		nested := s.backtrack(e.Other(v), adj, visited)

		parts := []cpq.Expr{step}
		if _, isID := nested.(cpq.Identity); !isID {
			parts = append(parts, nested)
		}
		parts = append(parts, step.Flip())
		segments = append(segments, cpq.Anchor(cpq.Seq(parts...)))
	}

	if len(segments) == 0 {
		return cpq.ID
	}
	return cpq.Seq(segments...)
}
