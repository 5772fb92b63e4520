// Package cpq implements the conjunctive path query (CPQ) expression algebra
// used to describe decomposed query fragments.
//
// An expression is one of four sealed node types:
//   - Label: a single edge label, optionally traversed in inverse direction
//   - Identity: the equality atom "id"
//   - Concat: sequential composition of two expressions
//   - Intersect: conjunction of two or more expressions sharing endpoints
//
// Expressions carry no endpoint information; callers track the source and
// target variables alongside them.
//
// SEALED INTERFACE:
//
// Expr uses the marker method pattern, so type switches over the four node
// types are exhaustive:
//
//	switch n := e.(type) {
//	case Label:
//	case Identity:
//	case Concat:
//	case Intersect:
//	}
//
// TEXT FORM:
//
// Expressions print in the gMark notation: r1, r1⁻, id, (a ◦ b), (a ∩ b).
// Parse accepts that notation plus ASCII spellings (r1^-, a . b, a & b).
//
// SHAPE:
//
// Expand turns an expression into the query graph it denotes. The synthesizer
// uses shapes to check that a candidate expression covers exactly the edges it
// claims to cover.
package cpq
