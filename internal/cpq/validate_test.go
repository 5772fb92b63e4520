package cpq

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_WellFormed(t *testing.T) {
	assert.NoError(t, Validate(Anchor(Seq(Fwd("r1"), Inv("r1")))))
	assert.NoError(t, Validate(ID))
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
	}{
		{"nil", nil},
		{"empty label", Label{}},
		{"reserved label", Fwd("id")},
		{"single operand intersection", Intersect{Operands: []Expr{Fwd("a")}}},
		{"nil concat side", Concat{Left: Fwd("a")}},
		{"label with space", Fwd("a b")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.expr)
			require.Error(t, err)
			var me *MalformedError
			require.True(t, errors.As(err, &me))
			assert.NotEmpty(t, me.Problems)
		})
	}
}
