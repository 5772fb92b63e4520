package cpq

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want Shape
	}{
		{
			name: "label",
			expr: Fwd("r1"),
			want: Shape{Source: 0, Target: 1, Vertices: 2, Edges: []ShapeEdge{{0, 1, "r1"}}},
		},
		{
			name: "inverse label",
			expr: Inv("r1"),
			want: Shape{Source: 0, Target: 1, Vertices: 2, Edges: []ShapeEdge{{1, 0, "r1"}}},
		},
		{
			name: "identity",
			expr: ID,
			want: Shape{Source: 0, Target: 0, Vertices: 1},
		},
		{
			name: "backtrack loop collapses to one edge",
			expr: Anchor(Seq(Fwd("r1"), Inv("r1"))),
			want: Shape{Source: 0, Target: 0, Vertices: 2, Edges: []ShapeEdge{{0, 1, "r1"}}},
		},
		{
			name: "triangle",
			expr: And(Seq(Fwd("r3"), Fwd("r4")), Inv("r5")),
			want: Shape{Source: 0, Target: 1, Vertices: 3, Edges: []ShapeEdge{
				{0, 2, "r3"},
				{2, 1, "r4"},
				{1, 0, "r5"},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Expand(tt.expr)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Expand(%s) mismatch (-want +got):\n%s", tt.expr, diff)
			}
		})
	}
}

func TestIsLoop(t *testing.T) {
	assert.True(t, IsLoop(ID))
	assert.True(t, IsLoop(Anchor(Fwd("r1"))))
	assert.False(t, IsLoop(Fwd("r1")))
	assert.False(t, IsLoop(Seq(Fwd("r1"), Inv("r1"))))
}

func TestExpand_ReverseSwapsEndpoints(t *testing.T) {
	e := And(Seq(Fwd("r3"), Fwd("r4")), Inv("r5"))
	fwd := Expand(e)
	rev := Expand(Reverse(e))

	assert.Equal(t, fwd.Vertices, rev.Vertices)
	assert.Len(t, rev.Edges, len(fwd.Edges))
	assert.Equal(t, fwd.IsLoop(), rev.IsLoop())
}
