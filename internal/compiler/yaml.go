package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cqdecomp/internal/ir"
)

// queryFile is the YAML layout: either one query at the top level or a
// list under "queries".
type queryFile struct {
	Definition `yaml:",inline"`
	Queries    []Definition `yaml:"queries"`
}

// ParseYAML decodes and builds the queries in a YAML (or JSON) document.
// Unknown fields are rejected.
func ParseYAML(data []byte) ([]*ir.Query, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f queryFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("query file is empty")
		}
		return nil, fmt.Errorf("parsing query YAML: %w", err)
	}

	defs := f.Queries
	single := len(f.Edges) > 0 || len(f.Free) > 0 || f.Name != ""
	switch {
	case single && len(defs) > 0:
		return nil, errors.New("query file mixes a top-level query with a queries list")
	case single || len(defs) == 0:
		defs = []Definition{f.Definition}
	}

	out := make([]*ir.Query, 0, len(defs))
	for i, d := range defs {
		q, err := Build(d)
		if err != nil {
			if len(defs) > 1 {
				return nil, fmt.Errorf("queries[%d]: %w", i, err)
			}
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// MarshalYAML renders q as a single-query YAML document.
func MarshalYAML(q *ir.Query) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(FromQuery(q)); err != nil {
		return nil, fmt.Errorf("encoding query YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
