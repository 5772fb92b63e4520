package cpq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString_Notation(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"label", Fwd("r1"), "r1"},
		{"inverse", Inv("r1"), "r1⁻"},
		{"identity", ID, "id"},
		{"concat", Seq(Fwd("a"), Inv("b")), "(a ◦ b⁻)"},
		{"chain", Seq(Fwd("a"), Fwd("b"), Fwd("c")), "(a ◦ (b ◦ c))"},
		{"intersect", And(Fwd("a"), Fwd("b"), ID), "(a ∩ b ∩ id)"},
		{"backtrack loop", Anchor(Seq(Fwd("r1"), Inv("r1"))), "((r1 ◦ r1⁻) ∩ id)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.String())
		})
	}
}

func TestSeq_SingleAndEmpty(t *testing.T) {
	assert.Equal(t, Expr(Fwd("a")), Seq(Fwd("a")))
	assert.Panics(t, func() { Seq() })
	assert.Equal(t, Expr(Fwd("a")), And(Fwd("a")))
	assert.Panics(t, func() { And() })
}

func TestDiameter(t *testing.T) {
	tests := []struct {
		expr Expr
		want int
	}{
		{Fwd("a"), 1},
		{ID, 0},
		{Seq(Fwd("a"), Fwd("b"), Fwd("c")), 3},
		{And(Seq(Fwd("a"), Fwd("b")), Fwd("c")), 2},
		{Anchor(Seq(Fwd("r1"), Inv("r1"))), 2},
	}
	for _, tt := range tests {
		t.Run(tt.expr.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Diameter(tt.expr))
		})
	}
}

func TestReverse(t *testing.T) {
	e := And(Seq(Fwd("r3"), Fwd("r4")), Inv("r5"))
	assert.Equal(t, "((r4⁻ ◦ r3⁻) ∩ r5)", Reverse(e).String())
	assert.True(t, Equal(e, Reverse(Reverse(e))))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Seq(Fwd("a"), ID), Seq(Fwd("a"), ID)))
	assert.False(t, Equal(Fwd("a"), Inv("a")))
	assert.False(t, Equal(And(Fwd("a"), Fwd("b")), And(Fwd("b"), Fwd("a"))))
	assert.False(t, Equal(ID, Fwd("id")))
}

func TestLabels(t *testing.T) {
	e := And(Seq(Fwd("r3"), Fwd("r4")), Inv("r5"))
	assert.Equal(t, []string{"r3", "r4", "r5"}, toStrings(Labels(e)))
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
