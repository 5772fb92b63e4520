package cpq

import (
	"fmt"
	"unicode"

	"github.com/roach88/cqdecomp/internal/ir"
)

// ParseError reports where an expression failed to parse.
type ParseError struct {
	Input   string
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q at offset %d: %s", e.Input, e.Offset, e.Message)
}

const (
	opNone = iota
	opConcat
	opIntersect
)

// Parse reads an expression in the notation produced by String.
//
// Grammar:
//
//	expr  := atom | "(" expr ")" | "(" expr (cop expr)+ ")" | "(" expr (iop expr)+ ")"
//	atom  := "id" | label [ "⁻" | "^-" ]
//	cop   := "◦" | "."
//	iop   := "∩" | "&"
//
// A concatenation chain of more than two parts parses right-nested, matching
// Seq. Mixing both operators inside one pair of parentheses is an error.
func Parse(input string) (Expr, error) {
	p := &parser{input: input, src: []rune(input)}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing input %q", string(p.src[p.pos:]))
	}
	return e, nil
}

// MustParse is Parse for literals known to be valid. Panics on error.
func MustParse(input string) Expr {
	e, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	input string
	src   []rune
	pos   int
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Input: p.input, Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) parseExpr() (Expr, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of input")
	}
	if p.peek() == '(' {
		return p.parseGroup()
	}
	return p.parseAtom()
}

func (p *parser) parseGroup() (Expr, error) {
	p.pos++ // consume '('

	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	operands := []Expr{first}
	op := opNone

	for {
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
			break
		}
		next := p.readOperator()
		if next == opNone {
			if p.pos >= len(p.src) {
				return nil, p.errorf("missing closing parenthesis")
			}
			return nil, p.errorf("expected operator or ')', found %q", p.peek())
		}
		if op != opNone && next != op {
			return nil, p.errorf("mixed operators need explicit parentheses")
		}
		op = next

		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}

	switch op {
	case opConcat:
		return Seq(operands...), nil
	case opIntersect:
		return Intersect{Operands: operands}, nil
	default:
		return first, nil
	}
}

func (p *parser) readOperator() int {
	switch p.peek() {
	case '◦', '.':
		p.pos++
		return opConcat
	case '∩', '&':
		p.pos++
		return opIntersect
	}
	return opNone
}

func (p *parser) parseAtom() (Expr, error) {
	start := p.pos
	for p.pos < len(p.src) && isLabelRune(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, p.errorf("expected label, found %q", p.peek())
	}
	name := string(p.src[start:p.pos])
	inverse := p.readInverseMark()

	if name == identityText {
		if inverse {
			return nil, p.errorf("identity cannot be inverted")
		}
		return ID, nil
	}
	return Label{Predicate: ir.Predicate(name), Inverse: inverse}, nil
}

func (p *parser) readInverseMark() bool {
	switch {
	case p.peek() == '⁻':
		p.pos++
		return true
	case p.peek() == '^' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '-':
		p.pos += 2
		return true
	}
	return false
}

// isLabelRune reports whether r may appear in a predicate name.
func isLabelRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ':' || r == '-'
}

// ValidLabel reports whether name can be printed and parsed back unchanged.
func ValidLabel(name string) bool {
	if name == "" || name == identityText {
		return false
	}
	for _, r := range name {
		if !isLabelRune(r) {
			return false
		}
	}
	return true
}
