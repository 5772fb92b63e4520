package partition

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/roach88/cqdecomp/internal/ir"
)

// Generator enumerates connected edge partitions.
type Generator struct {
	maxPartitions int
	logger        *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxPartitions caps the number of partitions generated. Zero or a
// negative value means unbounded.
func WithMaxPartitions(n int) Option {
	return func(g *Generator) {
		g.maxPartitions = n
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Result holds generated partitions in their final order.
type Result struct {
	Partitions []ir.Partition
	// Truncated is set when the cap stopped generation early.
	Truncated bool
}

// Generate enumerates every partition of edges into connected components.
func (g *Generator) Generate(edges []ir.Edge) Result {
	st := &generation{
		edges: edges,
		limit: g.maxPartitions,
		seen:  make(map[string]bool),
	}
	st.extend(ir.FullSet(len(edges)), nil)

	sortPartitions(st.found)

	g.logger.Debug("partitions generated",
		"edges", len(edges),
		"partitions", len(st.found),
		"truncated", st.truncated,
	)
	return Result{Partitions: st.partitions(), Truncated: st.truncated}
}

type generation struct {
	edges     []ir.Edge
	limit     int
	seen      map[string]bool
	found     []signed
	truncated bool
}

type signed struct {
	partition ir.Partition
	signature string
	maxSize   int
	maxCount  int
}

func (st *generation) partitions() []ir.Partition {
	out := make([]ir.Partition, len(st.found))
	for i, s := range st.found {
		out[i] = s.partition
	}
	return out
}

// extend picks the component containing the lowest remaining edge and
// recurses on the rest. Returns false once the cap is reached.
func (st *generation) extend(remaining ir.EdgeSet, chosen []ir.EdgeSet) bool {
	if remaining.IsEmpty() {
		return st.record(chosen)
	}

	low := ir.SingleEdge(remaining.Lowest())
	rest := remaining.Minus(low)
	for sub := rest; ; sub = (sub - 1) & rest {
		candidate := sub | low
		if ir.IsConnected(st.edges, candidate) {
			if !st.extend(remaining.Minus(candidate), append(chosen, candidate)) {
				return false
			}
		}
		if sub == 0 {
			break
		}
	}
	return true
}

func (st *generation) record(chosen []ir.EdgeSet) bool {
	p := ir.Partition{Components: make([]ir.Component, len(chosen))}
	for i, set := range chosen {
		p.Components[i] = ir.NewComponent(st.edges, set)
	}

	sig := p.Signature(st.edges)
	if st.seen[sig] {
		return true
	}
	if st.limit > 0 && len(st.found) >= st.limit {
		st.truncated = true
		return false
	}
	st.seen[sig] = true

	size, count := p.MaxComponentSize()
	st.found = append(st.found, signed{partition: p, signature: sig, maxSize: size, maxCount: count})
	return true
}

func sortPartitions(found []signed) {
	slices.SortStableFunc(found, func(a, b signed) int {
		return cmp.Or(
			cmp.Compare(a.maxSize, b.maxSize),
			cmp.Compare(a.maxCount, b.maxCount),
			cmp.Compare(a.signature, b.signature),
		)
	})
}

// SingleEdgePartition returns the partition in which every edge is its own
// component, in ordinal order.
func SingleEdgePartition(edges []ir.Edge) ir.Partition {
	p := ir.Partition{Components: make([]ir.Component, len(edges))}
	for i := range edges {
		p.Components[i] = ir.NewComponent(edges, ir.SingleEdge(i))
	}
	return p
}
