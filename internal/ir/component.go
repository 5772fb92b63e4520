package ir

import (
	"slices"
	"strings"
)

// Component is a connected subset of the query's edges.
// Vertices lists the endpoints in first-appearance order.
type Component struct {
	Edges    EdgeSet    `json:"edges"`
	Vertices []VertexID `json:"vertices"`
}

// NewComponent derives the vertex list of set.
func NewComponent(edges []Edge, set EdgeSet) Component {
	return Component{Edges: set, Vertices: Vertices(edges, set)}
}

// Size returns the number of edges.
func (c Component) Size() int {
	return c.Edges.Len()
}

// HasVertex reports whether v is an endpoint of one of the component's edges.
func (c Component) HasVertex(v VertexID) bool {
	return slices.Contains(c.Vertices, v)
}

// Signature renders the component's edges as sorted "src --label--> tgt"
// strings joined by commas.
func (c Component) Signature(edges []Edge) string {
	parts := make([]string, 0, c.Size())
	for _, o := range c.Edges.Ordinals() {
		parts = append(parts, EdgeAt(edges, o).String())
	}
	slices.Sort(parts)
	return strings.Join(parts, ",")
}

// Partition is an exact cover of the query's edges by disjoint components.
type Partition struct {
	Components []Component `json:"components"`
}

// Size returns the number of components.
func (p Partition) Size() int {
	return len(p.Components)
}

// Signature sorts the component signatures and joins them with "|".
// Two discoveries of the same set partition share a signature.
func (p Partition) Signature(edges []Edge) string {
	parts := make([]string, len(p.Components))
	for i, c := range p.Components {
		parts[i] = c.Signature(edges)
	}
	slices.Sort(parts)
	return strings.Join(parts, "|")
}

// MaxComponentSize returns the size of the largest component and how many
// components have that size.
func (p Partition) MaxComponentSize() (size, count int) {
	for _, c := range p.Components {
		switch n := c.Size(); {
		case n > size:
			size, count = n, 1
		case n == size:
			count++
		}
	}
	return size, count
}

// Union returns the union of all component edge sets.
func (p Partition) Union() EdgeSet {
	var s EdgeSet
	for _, c := range p.Components {
		s |= c.Edges
	}
	return s
}

// IsExactCover reports whether the components are pairwise disjoint and
// together equal full.
func (p Partition) IsExactCover(full EdgeSet) bool {
	var seen EdgeSet
	for _, c := range p.Components {
		if c.Edges.IsEmpty() || seen&c.Edges != 0 {
			return false
		}
		seen |= c.Edges
	}
	return seen == full
}

// Multiplicity counts how many components each vertex belongs to.
func (p Partition) Multiplicity() map[VertexID]int {
	m := make(map[VertexID]int)
	for _, c := range p.Components {
		for _, v := range c.Vertices {
			m[v]++
		}
	}
	return m
}
