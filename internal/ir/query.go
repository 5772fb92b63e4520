package ir

import (
	"errors"
	"fmt"
	"slices"
)

// ErrEmptyQuery is returned when a query has no edges.
var ErrEmptyQuery = errors.New("query has no edges")

// ErrTooManyEdges is returned when a query exceeds MaxEdges.
var ErrTooManyEdges = fmt.Errorf("query exceeds %d edges", MaxEdges)

// Query is the extracted form of a conjunctive query: an ordered edge list
// plus the free variables. Variables lists every vertex in declaration order
// (free variables first in their listed order, then first appearance along
// edge ordinals).
type Query struct {
	Name          string     `json:"name,omitempty"`
	Edges         []Edge     `json:"edges"`
	FreeVariables []VertexID `json:"free_variables"`
	Variables     []VertexID `json:"variables"`
}

// NewQuery assigns ordinals by position and derives the declaration order.
// Free variables that never occur in an edge are kept in FreeVariables but
// not in Variables; the compiler rejects such queries before this point.
func NewQuery(name string, edges []Edge, free []VertexID) (*Query, error) {
	if len(edges) == 0 {
		return nil, ErrEmptyQuery
	}
	if len(edges) > MaxEdges {
		return nil, fmt.Errorf("%w: got %d", ErrTooManyEdges, len(edges))
	}

	numbered := make([]Edge, len(edges))
	for i, e := range edges {
		e.Ordinal = i
		numbered[i] = e
	}

	q := &Query{
		Name:          name,
		Edges:         numbered,
		FreeVariables: slices.Clone(free),
	}
	q.Variables = declarationOrder(numbered, free)
	return q, nil
}

func declarationOrder(edges []Edge, free []VertexID) []VertexID {
	present := make(map[VertexID]bool)
	for _, e := range edges {
		present[e.Source] = true
		present[e.Target] = true
	}

	seen := make(map[VertexID]bool, len(present))
	order := make([]VertexID, 0, len(present))
	add := func(v VertexID) {
		if present[v] && !seen[v] {
			seen[v] = true
			order = append(order, v)
		}
	}
	for _, v := range free {
		add(v)
	}
	for _, e := range edges {
		add(e.Source)
		add(e.Target)
	}
	return order
}

// FullSet returns the set of all edge ordinals of the query.
func (q *Query) FullSet() EdgeSet {
	return FullSet(len(q.Edges))
}

// IsFree reports whether v is a free variable.
func (q *Query) IsFree(v VertexID) bool {
	return slices.Contains(q.FreeVariables, v)
}

// DeclarationIndex returns the position of v in Variables, or -1.
func (q *Query) DeclarationIndex(v VertexID) int {
	return slices.Index(q.Variables, v)
}

// VertexCount returns the number of distinct variables used by edges.
func (q *Query) VertexCount() int {
	return len(q.Variables)
}

// Edge returns the edge with the given ordinal.
// Panics if the ordinal is not part of the query.
func (q *Query) Edge(ordinal int) Edge {
	return EdgeAt(q.Edges, ordinal)
}
