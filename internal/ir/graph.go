package ir

import "fmt"

// EdgeAt returns edges[ordinal]. An ordinal outside the edge list is an
// internal invariant violation and panics.
func EdgeAt(edges []Edge, ordinal int) Edge {
	if ordinal < 0 || ordinal >= len(edges) {
		panic(fmt.Sprintf("ir: edge ordinal %d outside edge list of length %d", ordinal, len(edges)))
	}
	return edges[ordinal]
}

// Vertices returns the endpoints of the edges in set, in order of first
// appearance along ascending ordinals (source before target).
func Vertices(edges []Edge, set EdgeSet) []VertexID {
	seen := make(map[VertexID]bool)
	var out []VertexID
	for _, o := range set.Ordinals() {
		e := EdgeAt(edges, o)
		for _, v := range [2]VertexID{e.Source, e.Target} {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// IsConnected reports whether the edges in set form one connected subgraph
// when edge direction is ignored. The empty set is not connected.
func IsConnected(edges []Edge, set EdgeSet) bool {
	if set.IsEmpty() {
		return false
	}

	first := EdgeAt(edges, set.Lowest())
	reached := map[VertexID]bool{first.Source: true, first.Target: true}
	pending := set.Without(first.Ordinal)

	for progress := true; progress && !pending.IsEmpty(); {
		progress = false
		for _, o := range pending.Ordinals() {
			e := EdgeAt(edges, o)
			if reached[e.Source] || reached[e.Target] {
				reached[e.Source] = true
				reached[e.Target] = true
				pending = pending.Without(o)
				progress = true
			}
		}
	}
	return pending.IsEmpty()
}

// Adjacency maps each vertex of set to its incident edge ordinals in
// ascending order. A self-loop appears once in its vertex's list.
func Adjacency(edges []Edge, set EdgeSet) map[VertexID][]int {
	adj := make(map[VertexID][]int)
	for _, o := range set.Ordinals() {
		e := EdgeAt(edges, o)
		adj[e.Source] = append(adj[e.Source], o)
		if e.Target != e.Source {
			adj[e.Target] = append(adj[e.Target], o)
		}
	}
	return adj
}
