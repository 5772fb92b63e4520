package cpq

import (
	"slices"
	"strings"
)

// Canonicalize rewrites e into a normal form in which syntactic variants of
// the same term coincide:
//   - nested concatenations flatten into one right-nested chain
//   - nested intersections flatten into one operand list
//   - intersection operands are sorted by their canonical key and duplicates
//     removed; a single remaining operand replaces the intersection
//
// Canonicalize is idempotent and works on the tree directly.
func Canonicalize(e Expr) Expr {
	switch n := e.(type) {
	case Concat:
		var parts []Expr
		for _, part := range concatParts(n, nil) {
			// A deduplicated intersection can collapse into a chain.
			parts = concatParts(Canonicalize(part), parts)
		}
		return Seq(parts...)
	case Intersect:
		var ops []Expr
		for _, op := range n.Operands {
			c := Canonicalize(op)
			if inner, ok := c.(Intersect); ok {
				ops = append(ops, inner.Operands...)
				continue
			}
			ops = append(ops, c)
		}
		keyed := make([]keyedExpr, len(ops))
		for i, op := range ops {
			keyed[i] = keyedExpr{key: op.String(), expr: op}
		}
		slices.SortStableFunc(keyed, func(a, b keyedExpr) int {
			return strings.Compare(a.key, b.key)
		})
		keyed = slices.CompactFunc(keyed, func(a, b keyedExpr) bool {
			return a.key == b.key
		})
		out := make([]Expr, len(keyed))
		for i, k := range keyed {
			out[i] = k.expr
		}
		return And(out...)
	default:
		return e
	}
}

// Key returns the printed canonical form of e. Expressions with equal keys
// are equal up to the rewrites performed by Canonicalize.
func Key(e Expr) string {
	return Canonicalize(e).String()
}

type keyedExpr struct {
	key  string
	expr Expr
}

func concatParts(e Expr, acc []Expr) []Expr {
	if c, ok := e.(Concat); ok {
		acc = concatParts(c.Left, acc)
		return concatParts(c.Right, acc)
	}
	return append(acc, e)
}
