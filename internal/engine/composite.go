package engine

import (
	"fmt"

	"github.com/roach88/cqdecomp/internal/cpq"
	"github.com/roach88/cqdecomp/internal/ir"
)

// compositeRules combines the rules of every two-way split of subset.
// Splits are enumerated by bitmask over the subset's ascending ordinals,
// from 1 to 2^k-2; the complement is the other half. Splits with a
// disconnected half are skipped since no expression covers a disconnected
// edge set.
func (s *Synthesizer) compositeRules(subset ir.EdgeSet, local []ir.VertexID) []Rule {
	ordinals := subset.Ordinals()
	last := uint64(1)<<uint(len(ordinals)) - 1

	var out []Rule
	for mask := uint64(1); mask < last; mask++ {
		var left ir.EdgeSet
		for i, o := range ordinals {
			if mask&(1<<uint(i)) != 0 {
				left = left.With(o)
			}
		}
		right := subset.Minus(left)
		if !ir.IsConnected(s.edges, left) || !ir.IsConnected(s.edges, right) {
			continue
		}

		lrules := s.Rules(left, local)
		if len(lrules) == 0 {
			continue
		}
		rrules := s.Rules(right, local)
		for _, a := range lrules {
			for _, b := range rrules {
				out = append(out, combine(a, b, subset)...)
			}
		}
	}
	return out
}

// combine emits the concatenation when a ends where b starts and the
// intersection when both share endpoints.
func combine(a, b Rule, subset ir.EdgeSet) []Rule {
	var out []Rule
	if a.Target == b.Source {
		out = append(out, Rule{
			Expr:       cpq.Concat{Left: a.Expr, Right: b.Expr},
			Edges:      subset,
			Source:     a.Source,
			Target:     b.Target,
			Derivation: fmt.Sprintf("concat(%s, %s)", a.Edges, b.Edges),
		})
	}
	if a.Source == b.Source && a.Target == b.Target {
		out = append(out, Rule{
			Expr:       cpq.Intersect{Operands: []cpq.Expr{a.Expr, b.Expr}},
			Edges:      subset,
			Source:     a.Source,
			Target:     a.Target,
			Derivation: fmt.Sprintf("intersect(%s, %s)", a.Edges, b.Edges),
		})
	}
	return out
}
