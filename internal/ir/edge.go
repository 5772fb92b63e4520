package ir

import "fmt"

// VertexID names a query variable.
type VertexID string

// Predicate is an edge label.
type Predicate string

// Edge is one atom of the conjunctive query. Ordinal is the edge's position
// in the query's fixed edge ordering and indexes every EdgeSet.
type Edge struct {
	Source  VertexID  `json:"source"`
	Target  VertexID  `json:"target"`
	Label   Predicate `json:"label"`
	Ordinal int       `json:"ordinal"`
}

// String renders the edge as "src --label--> tgt". The same rendering is used
// in canonical partition signatures.
func (e Edge) String() string {
	return fmt.Sprintf("%s --%s--> %s", e.Source, e.Label, e.Target)
}

// IsSelfLoop reports whether both endpoints are the same variable.
func (e Edge) IsSelfLoop() bool {
	return e.Source == e.Target
}

// Touches reports whether v is an endpoint of e.
func (e Edge) Touches(v VertexID) bool {
	return e.Source == v || e.Target == v
}

// Other returns the endpoint opposite to v. For self-loops it returns v.
func (e Edge) Other(v VertexID) VertexID {
	if e.Source == v {
		return e.Target
	}
	return e.Source
}
