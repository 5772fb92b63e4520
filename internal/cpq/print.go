package cpq

import "strings"

const (
	inverseMark   = "⁻"
	concatSymbol  = " ◦ "
	intersectMark = " ∩ "
	identityText  = "id"
)

func (l Label) String() string {
	if l.Inverse {
		return string(l.Predicate) + inverseMark
	}
	return string(l.Predicate)
}

func (Identity) String() string {
	return identityText
}

func (c Concat) String() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(text(c.Left))
	b.WriteString(concatSymbol)
	b.WriteString(text(c.Right))
	b.WriteByte(')')
	return b.String()
}

func (in Intersect) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, op := range in.Operands {
		if i > 0 {
			b.WriteString(intersectMark)
		}
		b.WriteString(text(op))
	}
	b.WriteByte(')')
	return b.String()
}

func text(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}
