package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/cqdecomp/internal/ir"
)

// LoadFile reads the queries in path. The extension picks the front-end:
// .cue for CUE, .yaml, .yml or .json for YAML.
func LoadFile(path string) ([]*ir.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		return CompileCUE(path, data)
	case ".yaml", ".yml", ".json":
		qs, err := ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return qs, nil
	default:
		return nil, fmt.Errorf("unsupported query file extension %q (want .cue, .yaml, .yml or .json)", ext)
	}
}

// LoadOne reads path and returns the query called name, or the only query
// when name is empty.
func LoadOne(path, name string) (*ir.Query, error) {
	qs, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		if len(qs) != 1 {
			return nil, fmt.Errorf("%s holds %d queries; pick one by name", path, len(qs))
		}
		return qs[0], nil
	}
	for _, q := range qs {
		if q.Name == name {
			return q, nil
		}
	}
	return nil, fmt.Errorf("%s has no query named %q", path, name)
}
