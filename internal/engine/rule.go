package engine

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/cqdecomp/internal/cpq"
	"github.com/roach88/cqdecomp/internal/ir"
)

// Rule is a CPQ expression that covers exactly Edges, read from Source to
// Target. Derivation is a human-readable trace of how it was built.
type Rule struct {
	Expr       cpq.Expr
	Edges      ir.EdgeSet
	Source     ir.VertexID
	Target     ir.VertexID
	Derivation string
}

// ComponentKey identifies a rule for deduplication. The expression text is
// deliberately not part of it: two rules over the same edges and endpoints
// describe the same component.
type ComponentKey struct {
	Edges  ir.EdgeSet
	Source ir.VertexID
	Target ir.VertexID
}

func (k ComponentKey) String() string {
	return fmt.Sprintf("%s %s->%s", k.Edges, k.Source, k.Target)
}

// Key returns the rule's identity.
func (r Rule) Key() ComponentKey {
	return ComponentKey{Edges: r.Edges, Source: r.Source, Target: r.Target}
}

// IsLoop reports whether the rule starts and ends at the same variable.
func (r Rule) IsLoop() bool {
	return r.Source == r.Target
}

// Diameter returns the expression's diameter.
func (r Rule) Diameter() int {
	return cpq.Diameter(r.Expr)
}

func (r Rule) String() string {
	return fmt.Sprintf("%s [%s -> %s] %s", r.Expr, r.Source, r.Target, r.Edges)
}

type ruleJSON struct {
	Expr       string      `json:"expr"`
	Edges      ir.EdgeSet  `json:"edges"`
	Source     ir.VertexID `json:"source"`
	Target     ir.VertexID `json:"target"`
	Diameter   int         `json:"diameter"`
	Derivation string      `json:"derivation,omitempty"`
}

// MarshalJSON encodes the expression in its printed form.
func (r Rule) MarshalJSON() ([]byte, error) {
	return json.Marshal(ruleJSON{
		Expr:       r.Expr.String(),
		Edges:      r.Edges,
		Source:     r.Source,
		Target:     r.Target,
		Diameter:   r.Diameter(),
		Derivation: r.Derivation,
	})
}

// UnmarshalJSON parses the printed expression back into a tree.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw ruleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	expr, err := cpq.Parse(raw.Expr)
	if err != nil {
		return fmt.Errorf("rule expression: %w", err)
	}
	*r = Rule{
		Expr:       expr,
		Edges:      raw.Edges,
		Source:     raw.Source,
		Target:     raw.Target,
		Derivation: raw.Derivation,
	}
	return nil
}

// Dedupe keeps the first rule for every ComponentKey, preserving order.
func Dedupe(rules []Rule) []Rule {
	seen := make(map[ComponentKey]bool, len(rules))
	out := rules[:0:0]
	for _, r := range rules {
		k := r.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}
