package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/cqdecomp/internal/cpq"
	"github.com/roach88/cqdecomp/internal/ir"
)

// Synthesizer derives rules for edge subsets of one query. A Synthesizer is
// scoped to a single pipeline invocation; its memo is never shared across
// queries.
type Synthesizer struct {
	query       *ir.Query
	edges       []ir.Edge
	full        ir.EdgeSet
	diameterCap int
	logger      *slog.Logger

	mu    sync.RWMutex
	memo  map[memoKey][]Rule
	group singleflight.Group
	stats cacheCounters

	components *componentCache
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithDiameterCap drops candidates whose diameter exceeds limit.
// Zero means unbounded.
func WithDiameterCap(limit int) Option {
	return func(s *Synthesizer) {
		s.diameterCap = limit
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// NewSynthesizer creates a synthesizer over the edges of q. Edge ordinals
// must equal their positions, as ir.NewQuery assigns them.
func NewSynthesizer(q *ir.Query, opts ...Option) *Synthesizer {
	edges := q.Edges
	for i, e := range edges {
		if e.Ordinal != i {
			panic(fmt.Sprintf("engine: edge at position %d has ordinal %d", i, e.Ordinal))
		}
	}
	s := &Synthesizer{
		query:      q,
		edges:      edges,
		full:       ir.FullSet(len(edges)),
		logger:     slog.Default(),
		memo:       make(map[memoKey][]Rule),
		components: newComponentCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query returns the query the synthesizer works on.
func (s *Synthesizer) Query() *ir.Query {
	return s.query
}

// Stats returns a snapshot of memo hits and misses.
func (s *Synthesizer) Stats() CacheStats {
	return s.stats.snapshot()
}

type memoKey struct {
	edges ir.EdgeSet
	joins string
}

func (k memoKey) String() string {
	return fmt.Sprintf("%x|%s", uint64(k.edges), k.joins)
}

// Rules returns every validated rule covering exactly subset. Only the
// requested join nodes that are vertices of subset influence the result.
// The returned slice is shared with the memo and must not be modified.
//
// Panics if subset is empty or names edges outside the query.
func (s *Synthesizer) Rules(subset ir.EdgeSet, requested []ir.VertexID) []Rule {
	if subset.IsEmpty() || !subset.SubsetOf(s.full) {
		panic(fmt.Sprintf("engine: edge subset %s outside query of %d edges", subset, len(s.edges)))
	}

	local := s.localJoinNodes(subset, requested)
	key := memoKey{edges: subset, joins: joinKey(local)}

	if rules, ok := s.lookup(key); ok {
		s.stats.hits.Add(1)
		return rules
	}

	v, _, _ := s.group.Do(key.String(), func() (any, error) {
		if rules, ok := s.lookup(key); ok {
			s.stats.hits.Add(1)
			return rules, nil
		}
		s.stats.misses.Add(1)

		rules := s.derive(subset, local)

		s.mu.Lock()
		s.memo[key] = rules
		s.mu.Unlock()
		return rules, nil
	})
	return v.([]Rule)
}

func (s *Synthesizer) lookup(key memoKey) ([]Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules, ok := s.memo[key]
	return rules, ok
}

// localJoinNodes keeps the requested vertices that belong to subset, in the
// subset's vertex order.
func (s *Synthesizer) localJoinNodes(subset ir.EdgeSet, requested []ir.VertexID) []ir.VertexID {
	if len(requested) == 0 {
		return nil
	}
	want := make(map[ir.VertexID]bool, len(requested))
	for _, v := range requested {
		want[v] = true
	}
	var local []ir.VertexID
	for _, v := range ir.Vertices(s.edges, subset) {
		if want[v] {
			local = append(local, v)
		}
	}
	return local
}

func joinKey(vs []ir.VertexID) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = string(v)
	}
	return strings.Join(parts, "\x00")
}

func (s *Synthesizer) derive(subset ir.EdgeSet, local []ir.VertexID) []Rule {
	var raw []Rule
	if subset.Len() == 1 {
		raw = singleEdgeRules(ir.EdgeAt(s.edges, subset.Lowest()))
	} else {
		if len(local) <= 1 {
			raw = append(raw, s.loopRules(subset)...)
		}
		raw = append(raw, s.compositeRules(subset, local)...)
	}

	rules := s.finish(subset, raw)
	s.logger.Debug("rules derived",
		"edges", subset.String(),
		"join_nodes", ir.JoinVertices(local),
		"candidates", len(raw),
		"rules", len(rules),
	)
	return rules
}

// finish anchors, caps, validates, and deduplicates raw candidates in order.
func (s *Synthesizer) finish(subset ir.EdgeSet, raw []Rule) []Rule {
	seen := make(map[ComponentKey]bool)
	var out []Rule
	for _, r := range raw {
		r = anchor(r)
		if seen[r.Key()] {
			continue
		}
		if s.diameterCap > 0 && r.Diameter() > s.diameterCap {
			continue
		}
		if cpq.Validate(r.Expr) != nil {
			continue
		}
		if !matchesEdges(s.edges, subset, r) {
			continue
		}
		seen[r.Key()] = true
		out = append(out, r)
	}
	return out
}

// anchor intersects loop rules with id unless the expression already forces
// its endpoints together.
func anchor(r Rule) Rule {
	if !r.IsLoop() || r.Expr == nil || cpq.IsLoop(r.Expr) {
		return r
	}
	r.Expr = cpq.Anchor(r.Expr)
	r.Derivation += " + anchored with id"
	return r
}
