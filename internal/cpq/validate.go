package cpq

import (
	"fmt"
	"strings"
)

// MalformedError lists every structural problem found in an expression.
type MalformedError struct {
	Problems []string
}

func (e *MalformedError) Error() string {
	return "malformed expression: " + strings.Join(e.Problems, "; ")
}

// Validate checks that e is a well-formed tree: no nil nodes, non-empty
// printable labels, intersections with at least two operands. It also checks
// that the printed form parses back to the same tree.
//
// Validate is a pure function with no side effects.
func Validate(e Expr) error {
	v := &validator{}
	v.visit(e, "root")
	if len(v.problems) == 0 {
		if back, err := Parse(e.String()); err != nil {
			v.addProblem("printed form does not parse: %v", err)
		} else if !Equal(back, e) {
			v.addProblem("printed form %q parses to a different tree", e.String())
		}
	}
	if len(v.problems) > 0 {
		return &MalformedError{Problems: v.problems}
	}
	return nil
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) visit(e Expr, path string) {
	switch n := e.(type) {
	case nil:
		v.addProblem("%s: nil expression", path)
	case Label:
		if !ValidLabel(string(n.Predicate)) {
			v.addProblem("%s: invalid label %q", path, n.Predicate)
		}
	case Identity:
	case Concat:
		v.visit(n.Left, path+".left")
		v.visit(n.Right, path+".right")
	case Intersect:
		if len(n.Operands) < 2 {
			v.addProblem("%s: intersection needs at least 2 operands, has %d", path, len(n.Operands))
		}
		for i, op := range n.Operands {
			v.visit(op, fmt.Sprintf("%s.operands[%d]", path, i))
		}
	default:
		v.addProblem("%s: unknown expression type %T", path, e)
	}
}
