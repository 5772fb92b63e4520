package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/cqdecomp/internal/ir"
)

// CompileCUE compiles every query declared under the top-level "query"
// struct of a CUE source, in declaration order:
//
//	query: square: {
//		free: ["A"]
//		edges: [
//			{source: "A", label: "r1", target: "B"},
//			{source: "B", label: "r2", target: "A"},
//		]
//	}
func CompileCUE(filename string, src []byte) ([]*ir.Query, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	queriesVal := v.LookupPath(cue.ParsePath("query"))
	if !queriesVal.Exists() {
		return nil, &CompileError{
			Field:   "query",
			Message: "no query definitions found",
			Pos:     v.Pos(),
		}
	}

	iter, err := queriesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []*ir.Query
	for iter.Next() {
		q, err := CompileQuery(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("query.%s: %w", iter.Label(), err)
		}
		out = append(out, q)
	}
	return out, nil
}

// CompileQuery compiles one query struct. The query is named after the
// struct's label.
func CompileQuery(v cue.Value) (*ir.Query, error) {
	def, err := decodeCUE(v)
	if err != nil {
		return nil, err
	}
	return Build(def)
}

func decodeCUE(v cue.Value) (Definition, error) {
	var def Definition
	if err := v.Err(); err != nil {
		return def, formatCUEError(err)
	}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		def.Name = labels[len(labels)-1].String()
	}

	// free is optional: a query without free variables is boolean
	freeVal := v.LookupPath(cue.ParsePath("free"))
	if freeVal.Exists() {
		iter, err := freeVal.List()
		if err != nil {
			return def, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			name, err := iter.Value().String()
			if err != nil {
				return def, &CompileError{
					Field:   fmt.Sprintf("free[%d]", i),
					Message: "must be a string",
					Pos:     iter.Value().Pos(),
				}
			}
			def.Free = append(def.Free, name)
		}
	}

	edgesVal := v.LookupPath(cue.ParsePath("edges"))
	if !edgesVal.Exists() {
		return def, &CompileError{
			Field:   "edges",
			Message: "edges is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := edgesVal.List()
	if err != nil {
		return def, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		e, err := decodeCUEEdge(iter.Value(), i)
		if err != nil {
			return def, err
		}
		def.Edges = append(def.Edges, e)
	}
	return def, nil
}

func decodeCUEEdge(v cue.Value, index int) (EdgeDef, error) {
	var e EdgeDef
	fields := []struct {
		name string
		dst  *string
	}{
		{"source", &e.Source},
		{"label", &e.Label},
		{"target", &e.Target},
	}
	for _, f := range fields {
		field := fmt.Sprintf("edges[%d].%s", index, f.name)
		fv := v.LookupPath(cue.ParsePath(f.name))
		if !fv.Exists() {
			return e, &CompileError{Field: field, Message: f.name + " is required", Pos: v.Pos()}
		}
		s, err := fv.String()
		if err != nil {
			return e, &CompileError{Field: field, Message: "must be a string", Pos: fv.Pos()}
		}
		*f.dst = s
	}
	return e, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
