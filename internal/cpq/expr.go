package cpq

import (
	"slices"

	"github.com/roach88/cqdecomp/internal/ir"
)

// Expr is a CPQ expression node.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	exprNode()
	String() string
}

// Label matches one edge with the given predicate. Inverse traverses the
// edge from target to source.
type Label struct {
	Predicate ir.Predicate
	Inverse   bool
}

func (Label) exprNode() {}

// Identity matches pairs whose source and target coincide.
type Identity struct{}

func (Identity) exprNode() {}

// Concat composes Left then Right; Left's target is Right's source.
type Concat struct {
	Left  Expr
	Right Expr
}

func (Concat) exprNode() {}

// Intersect requires every operand to hold between the same endpoints.
// Well-formed intersections have at least two operands.
type Intersect struct {
	Operands []Expr
}

func (Intersect) exprNode() {}

// ID is the identity expression.
var ID Expr = Identity{}

// Fwd returns the forward label for p.
func Fwd(p ir.Predicate) Label {
	return Label{Predicate: p}
}

// Inv returns the inverse label for p.
func Inv(p ir.Predicate) Label {
	return Label{Predicate: p, Inverse: true}
}

// Flip returns the label traversed in the opposite direction.
func (l Label) Flip() Label {
	return Label{Predicate: l.Predicate, Inverse: !l.Inverse}
}

// Seq concatenates parts left to right as a right-nested chain:
// Seq(a, b, c) is (a ◦ (b ◦ c)). A single part is returned unchanged.
// Panics on an empty argument list.
func Seq(parts ...Expr) Expr {
	if len(parts) == 0 {
		panic("cpq: Seq requires at least one expression")
	}
	out := parts[len(parts)-1]
	for i := len(parts) - 2; i >= 0; i-- {
		out = Concat{Left: parts[i], Right: out}
	}
	return out
}

// And intersects operands. A single operand is returned unchanged.
// Panics on an empty argument list.
func And(operands ...Expr) Expr {
	switch len(operands) {
	case 0:
		panic("cpq: And requires at least one expression")
	case 1:
		return operands[0]
	}
	return Intersect{Operands: slices.Clone(operands)}
}

// Anchor intersects e with identity, forcing source and target together.
func Anchor(e Expr) Expr {
	return Intersect{Operands: []Expr{e, ID}}
}

// Equal reports structural equality.
func Equal(a, b Expr) bool {
	switch x := a.(type) {
	case Label:
		y, ok := b.(Label)
		return ok && x == y
	case Identity:
		_, ok := b.(Identity)
		return ok
	case Concat:
		y, ok := b.(Concat)
		return ok && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case Intersect:
		y, ok := b.(Intersect)
		return ok && slices.EqualFunc(x.Operands, y.Operands, Equal)
	default:
		return a == nil && b == nil
	}
}

// Diameter is the longest path length the expression denotes: labels count
// 1, identity 0, concatenation adds and intersection takes the maximum.
func Diameter(e Expr) int {
	switch n := e.(type) {
	case Label:
		return 1
	case Identity:
		return 0
	case Concat:
		return Diameter(n.Left) + Diameter(n.Right)
	case Intersect:
		d := 0
		for _, op := range n.Operands {
			d = max(d, Diameter(op))
		}
		return d
	default:
		return 0
	}
}

// Reverse returns the expression matching the same pairs with source and
// target swapped.
func Reverse(e Expr) Expr {
	switch n := e.(type) {
	case Label:
		return n.Flip()
	case Identity:
		return n
	case Concat:
		return Concat{Left: Reverse(n.Right), Right: Reverse(n.Left)}
	case Intersect:
		ops := make([]Expr, len(n.Operands))
		for i, op := range n.Operands {
			ops[i] = Reverse(op)
		}
		return Intersect{Operands: ops}
	default:
		return e
	}
}

// Labels lists the predicates used by e in left-to-right order.
func Labels(e Expr) []ir.Predicate {
	var out []ir.Predicate
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case Label:
			out = append(out, n.Predicate)
		case Concat:
			walk(n.Left)
			walk(n.Right)
		case Intersect:
			for _, op := range n.Operands {
				walk(op)
			}
		}
	}
	walk(e)
	return out
}
