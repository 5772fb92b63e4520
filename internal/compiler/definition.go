package compiler

import (
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/cqdecomp/internal/ir"
)

// DefaultQueryName names definitions that omit one.
const DefaultQueryName = "query"

// EdgeDef is one labeled edge as written in a query file.
type EdgeDef struct {
	Source string `json:"source" yaml:"source"`
	Label  string `json:"label" yaml:"label"`
	Target string `json:"target" yaml:"target"`
}

// Definition is a query as written in a query file, before validation.
type Definition struct {
	Name  string    `json:"name" yaml:"name"`
	Free  []string  `json:"free" yaml:"free"`
	Edges []EdgeDef `json:"edges" yaml:"edges"`
}

// normalized returns a copy with every name in NFC.
func (d Definition) normalized() Definition {
	out := Definition{Name: norm.NFC.String(d.Name)}
	for _, f := range d.Free {
		out.Free = append(out.Free, norm.NFC.String(f))
	}
	for _, e := range d.Edges {
		out.Edges = append(out.Edges, EdgeDef{
			Source: norm.NFC.String(e.Source),
			Label:  norm.NFC.String(e.Label),
			Target: norm.NFC.String(e.Target),
		})
	}
	return out
}

// Build validates d and converts it into a query. Validation failures are
// returned together as ValidationErrors.
func Build(d Definition) (*ir.Query, error) {
	d = d.normalized()
	if errs := d.Validate(); len(errs) > 0 {
		return nil, errs
	}

	name := d.Name
	if name == "" {
		name = DefaultQueryName
	}
	edges := make([]ir.Edge, len(d.Edges))
	for i, e := range d.Edges {
		edges[i] = ir.Edge{
			Source: ir.VertexID(e.Source),
			Target: ir.VertexID(e.Target),
			Label:  ir.Predicate(e.Label),
		}
	}
	free := make([]ir.VertexID, len(d.Free))
	for i, f := range d.Free {
		free[i] = ir.VertexID(f)
	}
	return ir.NewQuery(name, edges, free)
}

// FromQuery renders q back into a definition, e.g. for writing generated
// queries to disk.
func FromQuery(q *ir.Query) Definition {
	d := Definition{Name: q.Name}
	for _, v := range q.FreeVariables {
		d.Free = append(d.Free, string(v))
	}
	for _, e := range q.Edges {
		d.Edges = append(d.Edges, EdgeDef{
			Source: string(e.Source),
			Label:  string(e.Label),
			Target: string(e.Target),
		})
	}
	return d
}
