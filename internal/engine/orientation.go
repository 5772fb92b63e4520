package engine

import (
	"strings"

	"github.com/roach88/cqdecomp/internal/ir"
)

// RespectsJoinRoles reports whether r's endpoints are compatible with how
// component c attaches to the rest of the partition:
//   - a component on a single vertex must be a loop there
//   - without join nodes any endpoints are fine
//   - one join node j: a single edge must touch j with an endpoint, a larger
//     component must be a loop at j
//   - two join nodes must be exactly the two endpoints, in either order
func RespectsJoinRoles(r Rule, c ir.Component, joins []ir.VertexID) bool {
	if len(c.Vertices) == 1 {
		v := c.Vertices[0]
		return r.Source == v && r.Target == v
	}

	switch len(joins) {
	case 0:
		return true
	case 1:
		j := joins[0]
		if c.Size() == 1 {
			return r.Source == j || r.Target == j
		}
		return r.Source == j && r.Target == j
	case 2:
		a, b := joins[0], joins[1]
		return (r.Source == a && r.Target == b) || (r.Source == b && r.Target == a)
	default:
		return false
	}
}

// EnforceJoinRoles reports whether join-role filtering applies to a
// component: it has join nodes and either shares the partition with other
// components or has more than one edge.
func EnforceJoinRoles(joins []ir.VertexID, totalComponents, edgeCount int) bool {
	return len(joins) > 0 && (totalComponents > 1 || edgeCount > 1)
}

// PreferredOrientation orders a pair of join nodes: free variables before
// bound ones, then declaration order, then lexicographic. ok is false unless
// there are exactly two join nodes.
func PreferredOrientation(q *ir.Query, joins []ir.VertexID) (source, target ir.VertexID, ok bool) {
	if len(joins) != 2 {
		return "", "", false
	}
	source, target = joins[0], joins[1]
	if compareVariables(q, target, source) < 0 {
		source, target = target, source
	}
	return source, target, true
}

func compareVariables(q *ir.Query, x, y ir.VertexID) int {
	if fx, fy := q.IsFree(x), q.IsFree(y); fx != fy {
		if fx {
			return -1
		}
		return 1
	}
	ix, iy := q.DeclarationIndex(x), q.DeclarationIndex(y)
	if ix != iy {
		// Undeclared variables sort last.
		switch {
		case ix < 0:
			return 1
		case iy < 0:
			return -1
		case ix < iy:
			return -1
		default:
			return 1
		}
	}
	return strings.Compare(string(x), string(y))
}

// OrientRules keeps the rules running source->target, followed by those
// running target->source. If neither exists the input is returned unchanged.
func OrientRules(rules []Rule, source, target ir.VertexID) []Rule {
	var exact, reversed []Rule
	for _, r := range rules {
		switch {
		case r.Source == source && r.Target == target:
			exact = append(exact, r)
		case r.Source == target && r.Target == source:
			reversed = append(reversed, r)
		}
	}
	if len(exact)+len(reversed) == 0 {
		return rules
	}
	return append(exact, reversed...)
}
