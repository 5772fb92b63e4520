package testutil

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cqdecomp/internal/ir"
)

// Edge builds an unnumbered edge.
func Edge(source, label, target string) ir.Edge {
	return ir.Edge{Source: ir.VertexID(source), Target: ir.VertexID(target), Label: ir.Predicate(label)}
}

// Query builds a query and fails the test on error.
func Query(t testing.TB, name string, free []ir.VertexID, edges ...ir.Edge) *ir.Query {
	t.Helper()
	q, err := ir.NewQuery(name, edges, free)
	require.NoError(t, err)
	return q
}

// SquareWithChord is the five-edge reference query:
//
//	0: A -r1-> B
//	1: B -r2-> C
//	2: C -r3-> D
//	3: D -r4-> A
//	4: A -r5-> C
//
// free lists its free variables.
func SquareWithChord(t testing.TB, free ...ir.VertexID) *ir.Query {
	t.Helper()
	return Query(t, "square-with-chord", free,
		Edge("A", "r1", "B"),
		Edge("B", "r2", "C"),
		Edge("C", "r3", "D"),
		Edge("D", "r4", "A"),
		Edge("A", "r5", "C"),
	)
}

// Path builds x0 -p0-> x1 -p1-> ... with n edges.
func Path(t testing.TB, n int, free ...ir.VertexID) *ir.Query {
	t.Helper()
	edges := make([]ir.Edge, n)
	for i := range edges {
		edges[i] = ir.Edge{
			Source: vertex(i),
			Target: vertex(i + 1),
			Label:  ir.Predicate("p" + strconv.Itoa(i)),
		}
	}
	return Query(t, "path", free, edges...)
}

// Triangle is a -p-> b -q-> c -r-> a.
func Triangle(t testing.TB, free ...ir.VertexID) *ir.Query {
	t.Helper()
	return Query(t, "triangle", free,
		Edge("a", "p", "b"),
		Edge("b", "q", "c"),
		Edge("c", "r", "a"),
	)
}

func vertex(i int) ir.VertexID {
	return ir.VertexID("x" + strconv.Itoa(i))
}
