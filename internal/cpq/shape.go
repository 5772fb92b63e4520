package cpq

import "github.com/roach88/cqdecomp/internal/ir"

// ShapeEdge is one labeled edge of an expanded expression, between dense
// vertex numbers.
type ShapeEdge struct {
	Source int
	Target int
	Label  ir.Predicate
}

// Shape is the query graph an expression denotes. Vertices are numbered
// densely in order of first appearance: the source is always 0.
type Shape struct {
	Source   int
	Target   int
	Vertices int
	Edges    []ShapeEdge
}

// IsLoop reports whether the expression forces its source and target to be
// the same vertex.
func (s Shape) IsLoop() bool {
	return s.Source == s.Target
}

// Expand builds the query graph of e. Every label contributes one edge
// between fresh vertices (inverse labels flip the direction), concatenation
// identifies the left target with the right source, intersection identifies
// all operand sources and all operand targets, and identity identifies its
// own source and target. Identical edges produced by repeated traversal of
// the same atom collapse into one.
func Expand(e Expr) Shape {
	x := &expander{}
	src, tgt := x.fresh(), x.fresh()
	x.expand(e, src, tgt)
	return x.shape(src, tgt)
}

// IsLoop reports whether e forces source and target together.
func IsLoop(e Expr) bool {
	return Expand(e).IsLoop()
}

type rawEdge struct {
	src, tgt int
	label    ir.Predicate
}

type expander struct {
	parent []int
	edges  []rawEdge
}

func (x *expander) fresh() int {
	x.parent = append(x.parent, len(x.parent))
	return len(x.parent) - 1
}

func (x *expander) find(v int) int {
	for x.parent[v] != v {
		x.parent[v] = x.parent[x.parent[v]]
		v = x.parent[v]
	}
	return v
}

func (x *expander) union(a, b int) {
	ra, rb := x.find(a), x.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	x.parent[rb] = ra
}

func (x *expander) expand(e Expr, src, tgt int) {
	switch n := e.(type) {
	case Label:
		if n.Inverse {
			x.edges = append(x.edges, rawEdge{src: tgt, tgt: src, label: n.Predicate})
		} else {
			x.edges = append(x.edges, rawEdge{src: src, tgt: tgt, label: n.Predicate})
		}
	case Identity:
		x.union(src, tgt)
	case Concat:
		mid := x.fresh()
		x.expand(n.Left, src, mid)
		x.expand(n.Right, mid, tgt)
	case Intersect:
		for _, op := range n.Operands {
			x.expand(op, src, tgt)
		}
	}
}

func (x *expander) shape(src, tgt int) Shape {
	dense := make(map[int]int)
	number := func(v int) int {
		root := x.find(v)
		if n, ok := dense[root]; ok {
			return n
		}
		n := len(dense)
		dense[root] = n
		return n
	}

	s := Shape{Source: number(src), Target: number(tgt)}
	seen := make(map[ShapeEdge]bool, len(x.edges))
	for _, raw := range x.edges {
		edge := ShapeEdge{Source: number(raw.src), Target: number(raw.tgt), Label: raw.label}
		if seen[edge] {
			continue
		}
		seen[edge] = true
		s.Edges = append(s.Edges, edge)
	}
	s.Vertices = len(dense)
	return s
}
