package engine

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/roach88/cqdecomp/internal/ir"
	"github.com/roach88/cqdecomp/internal/partition"
)

// ComponentRules is the outcome of synthesizing one component inside a
// partition.
type ComponentRules struct {
	Component ir.Component        `json:"component"`
	JoinNodes []ir.VertexID       `json:"join_nodes"`
	Raw       []Rule              `json:"-"`
	Final     []Rule              `json:"rules"`
	Reason    ir.DiagnosticReason `json:"reason,omitempty"`
}

// OK reports whether at least one rule survived filtering.
func (c ComponentRules) OK() bool {
	return len(c.Final) > 0
}

// AnalyzeComponent synthesizes rules for c and narrows them to those that
// fit the component's place in a partition of totalComponents components.
// When the set empties, Reason names the stage that emptied it.
func (s *Synthesizer) AnalyzeComponent(c ir.Component, joins []ir.VertexID, totalComponents int) ComponentRules {
	enforce := EnforceJoinRoles(joins, totalComponents, c.Size())
	key := componentKey(c.Edges, joins, enforce)
	if cached, ok := s.components.get(key); ok {
		return cached
	}

	out := ComponentRules{
		Component: c,
		JoinNodes: slices.Clone(joins),
		Raw:       s.Rules(c.Edges, joins),
	}

	filtered := out.Raw
	if enforce {
		filtered = nil
		for _, r := range out.Raw {
			if RespectsJoinRoles(r, c, joins) {
				filtered = append(filtered, r)
			}
		}
	}

	final := filtered
	if src, tgt, ok := PreferredOrientation(s.query, joins); ok {
		final = OrientRules(filtered, src, tgt)
	}
	out.Final = final

	switch {
	case len(out.Raw) == 0:
		out.Reason = ir.ReasonComponentRulesMissing
	case len(filtered) == 0:
		out.Reason = ir.ReasonComponentEndpointsInvalid
	case len(final) == 0:
		out.Reason = ir.ReasonComponentOrientationEmpty
	}

	return s.components.put(key, out)
}

// PartitionAnalysis is the per-component outcome for one filtered partition.
type PartitionAnalysis struct {
	Index       int              `json:"index"`
	Partition   ir.Partition     `json:"partition"`
	Components  []ComponentRules `json:"components"`
	Diagnostics []ir.Diagnostic  `json:"diagnostics,omitempty"`
}

// Valid reports whether every component kept at least one rule.
func (a PartitionAnalysis) Valid() bool {
	for _, c := range a.Components {
		if !c.OK() {
			return false
		}
	}
	return len(a.Components) > 0
}

// RuleCounts returns the number of final rules per component.
func (a PartitionAnalysis) RuleCounts() []int {
	counts := make([]int, len(a.Components))
	for i, c := range a.Components {
		counts[i] = len(c.Final)
	}
	return counts
}

// AnalyzePartition synthesizes every component of fp and records one
// diagnostic per component left without rules.
func (s *Synthesizer) AnalyzePartition(fp partition.Filtered) PartitionAnalysis {
	a := PartitionAnalysis{
		Index:      fp.Index,
		Partition:  fp.Partition,
		Components: make([]ComponentRules, len(fp.Partition.Components)),
	}
	total := fp.Partition.Size()
	for i, c := range fp.Partition.Components {
		cr := s.AnalyzeComponent(c, fp.Joins.Components[i], total)
		a.Components[i] = cr
		if cr.OK() {
			continue
		}
		a.Diagnostics = append(a.Diagnostics, ir.Diagnostic{
			PartitionIndex: fp.Index,
			ComponentIndex: i + 1,
			Reason:         cr.Reason,
			Message:        reasonMessage(cr.Reason),
			Attributes: map[string]string{
				"signature":  c.Signature(s.edges),
				"edges":      c.Edges.String(),
				"join_nodes": ir.JoinVertices(cr.JoinNodes),
			},
		})
	}

	s.logger.Debug("partition analyzed",
		"index", fp.Index,
		"components", total,
		"valid", a.Valid(),
	)
	return a
}

func reasonMessage(reason ir.DiagnosticReason) string {
	switch reason {
	case ir.ReasonComponentRulesMissing:
		return "no expression covers the component"
	case ir.ReasonComponentEndpointsInvalid:
		return "no expression respects the join node roles"
	case ir.ReasonComponentOrientationEmpty:
		return "no expression matches the preferred orientation"
	default:
		return string(reason)
	}
}

func componentKey(edges ir.EdgeSet, joins []ir.VertexID, enforce bool) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(uint64(edges), 16))
	b.WriteByte('|')
	b.WriteString(joinKey(joins))
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(enforce))
	return b.String()
}

// componentCache memoizes AnalyzeComponent. Entries are bucketed by the
// xxhash of their key and compared by the full key on lookup.
type componentCache struct {
	mu      sync.Mutex
	buckets map[uint64][]componentEntry
}

type componentEntry struct {
	key   string
	rules ComponentRules
}

func newComponentCache() *componentCache {
	return &componentCache{buckets: make(map[uint64][]componentEntry)}
}

func (c *componentCache) get(key string) (ComponentRules, bool) {
	h := xxhash.Sum64String(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.buckets[h] {
		if e.key == key {
			return e.rules, true
		}
	}
	return ComponentRules{}, false
}

// put stores rules unless key is already present and returns the stored
// value, so concurrent callers agree on one result.
func (c *componentCache) put(key string, rules ComponentRules) ComponentRules {
	h := xxhash.Sum64String(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.buckets[h] {
		if e.key == key {
			return e.rules
		}
	}
	c.buckets[h] = append(c.buckets[h], componentEntry{key: key, rules: rules})
	return rules
}

// String summarizes the component outcome for logs and text output.
func (c ComponentRules) String() string {
	return fmt.Sprintf("%s joins=[%s] rules=%d", c.Component.Edges, ir.JoinVertices(c.JoinNodes), len(c.Final))
}
