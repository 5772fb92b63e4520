package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/cqdecomp/internal/cpq"
	"github.com/roach88/cqdecomp/internal/ir"
	"github.com/roach88/cqdecomp/internal/testutil"
)

func rule(source, target ir.VertexID) Rule {
	return Rule{Expr: cpq.Fwd("p"), Source: source, Target: target}
}

func TestRespectsJoinRoles(t *testing.T) {
	q := testutil.SquareWithChord(t)
	single := ir.NewComponent(q.Edges, ir.EdgeSetOf(0))
	triangle := ir.NewComponent(q.Edges, ir.EdgeSetOf(2, 3, 4))
	self := testutil.Query(t, "self", nil, testutil.Edge("a", "p", "a"))
	loop := ir.NewComponent(self.Edges, ir.EdgeSetOf(0))

	tests := []struct {
		name  string
		rule  Rule
		comp  ir.Component
		joins []ir.VertexID
		want  bool
	}{
		{"single vertex needs loop", rule("a", "a"), loop, []ir.VertexID{"a"}, true},
		{"single vertex rejects path", rule("a", "b"), loop, nil, false},
		{"no joins accepts anything", rule("C", "D"), triangle, nil, true},
		{"one join single edge source", rule("A", "B"), single, []ir.VertexID{"A"}, true},
		{"one join single edge target", rule("B", "A"), single, []ir.VertexID{"A"}, true},
		{"one join single edge elsewhere", rule("B", "B"), single, []ir.VertexID{"A"}, false},
		{"one join larger component loop", rule("C", "C"), triangle, []ir.VertexID{"C"}, true},
		{"one join larger component path", rule("C", "A"), triangle, []ir.VertexID{"C"}, false},
		{"two joins forward", rule("C", "A"), triangle, []ir.VertexID{"C", "A"}, true},
		{"two joins reversed", rule("A", "C"), triangle, []ir.VertexID{"C", "A"}, true},
		{"two joins wrong pair", rule("C", "D"), triangle, []ir.VertexID{"C", "A"}, false},
		{"three joins", rule("C", "A"), triangle, []ir.VertexID{"C", "D", "A"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RespectsJoinRoles(tt.rule, tt.comp, tt.joins))
		})
	}
}

func TestEnforceJoinRoles(t *testing.T) {
	joins := []ir.VertexID{"A"}
	assert.False(t, EnforceJoinRoles(nil, 3, 3))
	assert.False(t, EnforceJoinRoles(joins, 1, 1))
	assert.True(t, EnforceJoinRoles(joins, 2, 1))
	assert.True(t, EnforceJoinRoles(joins, 1, 2))
}

func TestPreferredOrientation(t *testing.T) {
	free := testutil.SquareWithChord(t, "C")
	bound := testutil.SquareWithChord(t)

	tests := []struct {
		name   string
		q      *ir.Query
		joins  []ir.VertexID
		source ir.VertexID
		target ir.VertexID
	}{
		{"free first", free, []ir.VertexID{"A", "C"}, "C", "A"},
		{"declaration order", bound, []ir.VertexID{"D", "B"}, "B", "D"},
		{"undeclared last", bound, []ir.VertexID{"Z", "A"}, "A", "Z"},
		{"lexicographic fallback", bound, []ir.VertexID{"Y", "X"}, "X", "Y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, target, ok := PreferredOrientation(tt.q, tt.joins)
			assert.True(t, ok)
			assert.Equal(t, tt.source, source)
			assert.Equal(t, tt.target, target)
		})
	}

	_, _, ok := PreferredOrientation(bound, []ir.VertexID{"A"})
	assert.False(t, ok)
}

func TestOrientRules(t *testing.T) {
	rules := []Rule{rule("B", "A"), rule("A", "A"), rule("A", "B"), rule("B", "A")}

	got := OrientRules(rules, "A", "B")
	assert.Equal(t, []Rule{rule("A", "B"), rule("B", "A"), rule("B", "A")}, got)

	unrelated := []Rule{rule("C", "D")}
	assert.Equal(t, unrelated, OrientRules(unrelated, "A", "B"))
}
