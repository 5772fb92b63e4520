package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// squareWithChord is A→B→C→D→A plus the chord A→C.
func squareWithChord(t *testing.T) *Query {
	t.Helper()
	q, err := NewQuery("square", []Edge{
		{Source: "A", Target: "B", Label: "r1"},
		{Source: "B", Target: "C", Label: "r2"},
		{Source: "C", Target: "D", Label: "r3"},
		{Source: "D", Target: "A", Label: "r4"},
		{Source: "A", Target: "C", Label: "r5"},
	}, []VertexID{"A"})
	require.NoError(t, err)
	return q
}

func TestNewQuery_AssignsOrdinals(t *testing.T) {
	q := squareWithChord(t)
	for i, e := range q.Edges {
		assert.Equal(t, i, e.Ordinal)
	}
	assert.Equal(t, []VertexID{"A", "B", "C", "D"}, q.Variables)
	assert.Equal(t, 4, q.VertexCount())
	assert.True(t, q.IsFree("A"))
	assert.False(t, q.IsFree("B"))
	assert.Equal(t, 2, q.DeclarationIndex("C"))
	assert.Equal(t, -1, q.DeclarationIndex("Z"))
}

func TestNewQuery_FreeVariablesDeclaredFirst(t *testing.T) {
	q, err := NewQuery("", []Edge{
		{Source: "x", Target: "y", Label: "p"},
		{Source: "y", Target: "z", Label: "q"},
	}, []VertexID{"z", "x"})
	require.NoError(t, err)
	assert.Equal(t, []VertexID{"z", "x", "y"}, q.Variables)
}

func TestNewQuery_Errors(t *testing.T) {
	_, err := NewQuery("empty", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	edges := make([]Edge, MaxEdges+1)
	for i := range edges {
		edges[i] = Edge{Source: "a", Target: "b", Label: Predicate("p")}
	}
	_, err = NewQuery("big", edges, nil)
	assert.ErrorIs(t, err, ErrTooManyEdges)
}

func TestQuery_EdgePanicsOutOfRange(t *testing.T) {
	q := squareWithChord(t)
	assert.Panics(t, func() { q.Edge(5) })
}

func TestIsConnected(t *testing.T) {
	q := squareWithChord(t)

	tests := []struct {
		name string
		set  EdgeSet
		want bool
	}{
		{"single edge", EdgeSetOf(0), true},
		{"path", EdgeSetOf(0, 1), true},
		{"opposite sides", EdgeSetOf(0, 2), false},
		{"joined through chord", EdgeSetOf(0, 2, 4), true},
		{"triangle", EdgeSetOf(2, 3, 4), true},
		{"full", q.FullSet(), true},
		{"empty", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnected(q.Edges, tt.set))
		})
	}
}

func TestVertices_FirstAppearanceOrder(t *testing.T) {
	q := squareWithChord(t)
	assert.Equal(t, []VertexID{"C", "D", "A"}, Vertices(q.Edges, EdgeSetOf(2, 3, 4)))
}

func TestAdjacency(t *testing.T) {
	edges := []Edge{
		{Source: "a", Target: "b", Label: "p", Ordinal: 0},
		{Source: "b", Target: "b", Label: "q", Ordinal: 1},
	}
	adj := Adjacency(edges, EdgeSetOf(0, 1))
	assert.Equal(t, []int{0}, adj["a"])
	assert.Equal(t, []int{0, 1}, adj["b"])
}

func TestPartition_SignatureIgnoresComponentOrder(t *testing.T) {
	q := squareWithChord(t)
	c1 := NewComponent(q.Edges, EdgeSetOf(0, 1))
	c2 := NewComponent(q.Edges, EdgeSetOf(2, 3, 4))

	p1 := Partition{Components: []Component{c1, c2}}
	p2 := Partition{Components: []Component{c2, c1}}

	assert.Equal(t, p1.Signature(q.Edges), p2.Signature(q.Edges))
	assert.Equal(t, "A --r1--> B,B --r2--> C", c1.Signature(q.Edges))
	assert.True(t, p1.IsExactCover(q.FullSet()))

	size, count := p1.MaxComponentSize()
	assert.Equal(t, 3, size)
	assert.Equal(t, 1, count)
}

func TestPartition_IsExactCoverRejectsOverlap(t *testing.T) {
	q := squareWithChord(t)
	p := Partition{Components: []Component{
		NewComponent(q.Edges, EdgeSetOf(0, 1, 2)),
		NewComponent(q.Edges, EdgeSetOf(2, 3, 4)),
	}}
	assert.False(t, p.IsExactCover(q.FullSet()))
}

func TestPartition_Multiplicity(t *testing.T) {
	q := squareWithChord(t)
	p := Partition{Components: []Component{
		NewComponent(q.Edges, EdgeSetOf(0, 1)),
		NewComponent(q.Edges, EdgeSetOf(2, 3, 4)),
	}}
	m := p.Multiplicity()
	assert.Equal(t, 2, m["A"])
	assert.Equal(t, 1, m["B"])
	assert.Equal(t, 2, m["C"])
	assert.Equal(t, 1, m["D"])
}
