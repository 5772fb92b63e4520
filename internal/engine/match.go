package engine

import (
	"slices"

	"github.com/roach88/cqdecomp/internal/cpq"
	"github.com/roach88/cqdecomp/internal/ir"
)

// matchesEdges re-expands r's expression into its own query graph and
// checks that it maps onto the edges of subset exactly: same edge count,
// labels and directions respected, distinct expression vertices on distinct
// query variables, and the expression's endpoints on r.Source and r.Target.
func matchesEdges(edges []ir.Edge, subset ir.EdgeSet, r Rule) bool {
	shape := cpq.Expand(r.Expr)
	if len(shape.Edges) != subset.Len() {
		return false
	}

	vertices := ir.Vertices(edges, subset)
	if shape.Vertices != len(vertices) {
		return false
	}
	if !slices.Contains(vertices, r.Source) || !slices.Contains(vertices, r.Target) {
		return false
	}
	if shape.IsLoop() != r.IsLoop() {
		return false
	}

	m := &matcher{
		shape:   shape.Edges,
		targets: make([]ir.Edge, 0, subset.Len()),
		mapping: make(map[int]ir.VertexID, shape.Vertices),
		owner:   make(map[ir.VertexID]int, shape.Vertices),
	}
	for _, o := range subset.Ordinals() {
		m.targets = append(m.targets, ir.EdgeAt(edges, o))
	}
	m.used = make([]bool, len(m.targets))

	if !m.bind(shape.Source, r.Source) || !m.bind(shape.Target, r.Target) {
		return false
	}
	return m.match(0)
}

// matcher is a backtracking search for an injective, label-respecting map
// from expression vertices to query variables that uses every edge once.
type matcher struct {
	shape   []cpq.ShapeEdge
	targets []ir.Edge
	used    []bool
	mapping map[int]ir.VertexID
	owner   map[ir.VertexID]int
	trail   []int
}

func (m *matcher) bind(sv int, v ir.VertexID) bool {
	if cur, ok := m.mapping[sv]; ok {
		return cur == v
	}
	if other, ok := m.owner[v]; ok && other != sv {
		return false
	}
	m.mapping[sv] = v
	m.owner[v] = sv
	m.trail = append(m.trail, sv)
	return true
}

func (m *matcher) rollback(mark int) {
	for _, sv := range m.trail[mark:] {
		delete(m.owner, m.mapping[sv])
		delete(m.mapping, sv)
	}
	m.trail = m.trail[:mark]
}

func (m *matcher) match(i int) bool {
	if i == len(m.shape) {
		return true
	}
	se := m.shape[i]
	for j, qe := range m.targets {
		if m.used[j] || qe.Label != se.Label {
			continue
		}
		mark := len(m.trail)
		if m.bind(se.Source, qe.Source) && m.bind(se.Target, qe.Target) {
			m.used[j] = true
			if m.match(i + 1) {
				return true
			}
			m.used[j] = false
		}
		m.rollback(mark)
	}
	return false
}
