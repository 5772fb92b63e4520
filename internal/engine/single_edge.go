package engine

import (
	"fmt"

	"github.com/roach88/cqdecomp/internal/cpq"
	"github.com/roach88/cqdecomp/internal/ir"
)

// singleEdgeRules lists the base rules for one edge (u, label, v):
// forward u->v, inverse v->u, and the backtracking loops at u and at v.
// A self-loop only has the forward rule; anchoring turns it into a loop.
func singleEdgeRules(e ir.Edge) []Rule {
	set := ir.SingleEdge(e.Ordinal)
	fwd, inv := cpq.Fwd(e.Label), cpq.Inv(e.Label)

	rules := []Rule{{
		Expr:       fwd,
		Edges:      set,
		Source:     e.Source,
		Target:     e.Target,
		Derivation: fmt.Sprintf("edge %d forward", e.Ordinal),
	}}
	if e.IsSelfLoop() {
		return rules
	}

	return append(rules,
		Rule{
			Expr:       inv,
			Edges:      set,
			Source:     e.Target,
			Target:     e.Source,
			Derivation: fmt.Sprintf("edge %d inverse", e.Ordinal),
		},
		Rule{
			Expr:       cpq.Anchor(cpq.Seq(fwd, inv)),
			Edges:      set,
			Source:     e.Source,
			Target:     e.Source,
			Derivation: fmt.Sprintf("edge %d backtrack at %s", e.Ordinal, e.Source),
		},
		Rule{
			Expr:       cpq.Anchor(cpq.Seq(inv, fwd)),
			Edges:      set,
			Source:     e.Target,
			Target:     e.Target,
			Derivation: fmt.Sprintf("edge %d backtrack at %s", e.Ordinal, e.Target),
		},
	)
}
