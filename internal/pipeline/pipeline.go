package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/cqdecomp/internal/engine"
	"github.com/roach88/cqdecomp/internal/ir"
	"github.com/roach88/cqdecomp/internal/partition"
)

// Checkpoint names recorded on a BudgetExceededError.
const (
	CheckpointPartitioned = "after_partitioning"
	CheckpointValidation  = "validation"
	CheckpointFinished    = "finished"
)

type runner struct {
	logger *slog.Logger
	clock  Clock
}

// Option configures Decompose.
type Option func(*runner)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		r.logger = logger
	}
}

// WithClock sets the clock the time budget is measured on.
func WithClock(clock Clock) Option {
	return func(r *runner) {
		r.clock = clock
	}
}

// Decompose runs the full pipeline over q: generate partitions, filter by
// join nodes, validate each filtered partition, derive the whole-query
// baseline, and aggregate.
//
// A *ConfigError is returned before any search when opts are invalid.
// Budget exhaustion is not an error: the partial result carries a
// termination reason. Cancelling ctx stops the run at the next checkpoint
// and returns the partial result with ctx.Err().
func Decompose(ctx context.Context, q *ir.Query, opts Options, options ...Option) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if q == nil || len(q.Edges) == 0 {
		return nil, &ConfigError{Field: "query", Message: "no edges to decompose"}
	}
	if len(q.Edges) > ir.MaxEdges {
		return nil, &ConfigError{Field: "query", Message: "more edges than an edge set can hold"}
	}

	r := &runner{logger: slog.Default(), clock: SystemClock{}}
	for _, o := range options {
		o(r)
	}
	return r.run(ctx, q, opts)
}

func (r *runner) run(ctx context.Context, q *ir.Query, opts Options) (*Result, error) {
	budget := NewBudget(opts.TimeBudget, r.clock)
	synth := engine.NewSynthesizer(q,
		engine.WithDiameterCap(opts.DiameterCap),
		engine.WithLogger(r.logger),
	)

	res := &Result{
		Query:         q.Name,
		Edges:         q.Edges,
		FreeVariables: q.FreeVariables,
		VertexCount:   q.VertexCount(),
		Options:       opts,
	}
	defer func() {
		res.Elapsed = budget.Elapsed()
		res.Cache = synth.Stats()
	}()

	// Generate
	if opts.Plan == PlanSingleEdge {
		res.Partitions = []ir.Partition{partition.SingleEdgePartition(q.Edges)}
	} else {
		gen := partition.NewGenerator(
			partition.WithMaxPartitions(opts.MaxPartitions),
			partition.WithLogger(r.logger),
		)
		generated := gen.Generate(q.Edges)
		res.Partitions = generated.Partitions
		if generated.Truncated {
			res.terminate(TerminationPartitionLimit)
		}
	}
	res.Counts.Total = len(res.Partitions)

	// Filter
	filtered, diags := partition.Filter(res.Partitions, q.FreeVariables, q.Edges, r.logger)
	res.FilteredPartitions = filtered
	res.Diagnostics = append(res.Diagnostics, diags...)
	res.Counts.Filtered = len(filtered)

	r.logger.Info("partitions generated",
		"query", q.Name,
		"total", res.Counts.Total,
		"filtered", res.Counts.Filtered,
	)

	if stop, err := r.checkpoint(ctx, budget, res, CheckpointPartitioned); stop {
		return res, err
	}

	// Validate
	evals, err := r.validate(ctx, synth, filtered, opts, budget, res)
	for _, ev := range evals {
		r.record(res, ev)
	}
	if err != nil {
		return res, err
	}
	if res.TerminationReason == TerminationTimeBudget {
		return res, nil
	}

	// Baseline
	r.baseline(synth, q, res)

	if stop, err := r.checkpoint(ctx, budget, res, CheckpointFinished); stop {
		return res, err
	}

	r.logger.Info("decomposition finished",
		"query", q.Name,
		"valid", res.Counts.Valid,
		"catalogue", len(res.Catalogue),
		"final", res.FinalExpression != nil,
	)
	return res, nil
}

// checkpoint consults ctx and the budget. stop is true when the run must
// end; err is non-nil only for cancellation.
func (r *runner) checkpoint(ctx context.Context, budget *Budget, res *Result, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		res.terminate(TerminationCancelled)
		return true, err
	}
	if err := budget.Check(name); err != nil {
		r.logger.Warn("time budget exceeded", "checkpoint", name, "error", err)
		// Budget exhaustion outranks a truncated generation.
		res.TerminationReason = TerminationTimeBudget
		return true, nil
	}
	return false, nil
}

// validate analyzes filtered partitions in plan order and returns one
// evaluation per partition it reached, in the order visited.
func (r *runner) validate(ctx context.Context, synth *engine.Synthesizer, filtered []partition.Filtered, opts Options, budget *Budget, res *Result) ([]PartitionEvaluation, error) {
	order := filtered
	if opts.Plan == PlanRandom {
		order = shuffled(filtered, opts.Seed)
	}
	stopAtFirst := opts.Plan == PlanFirst || opts.Plan == PlanRandom

	if !opts.sequential() {
		return r.validateParallel(ctx, synth, order, opts, budget, res)
	}

	var evals []PartitionEvaluation
	for _, fp := range order {
		ev := evaluate(synth, fp, opts)
		evals = append(evals, ev)
		if ev.Valid && stopAtFirst {
			break
		}
		if stop, err := r.checkpoint(ctx, budget, res, CheckpointValidation); stop {
			return evals, err
		}
	}
	return evals, nil
}

func (r *runner) validateParallel(ctx context.Context, synth *engine.Synthesizer, order []partition.Filtered, opts Options, budget *Budget, res *Result) ([]PartitionEvaluation, error) {
	slots := make([]*PartitionEvaluation, len(order))
	var exceeded atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, fp := range order {
		g.Go(func() error {
			if gctx.Err() != nil || exceeded.Load() {
				return nil
			}
			ev := evaluate(synth, fp, opts)
			slots[i] = &ev
			if budget.Check(CheckpointValidation) != nil {
				exceeded.Store(true)
			}
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	var evals []PartitionEvaluation
	for _, ev := range slots {
		if ev != nil {
			evals = append(evals, *ev)
		}
	}

	if err := ctx.Err(); err != nil {
		res.terminate(TerminationCancelled)
		return evals, err
	}
	if exceeded.Load() {
		r.logger.Warn("time budget exceeded", "checkpoint", CheckpointValidation)
		res.TerminationReason = TerminationTimeBudget
	}
	return evals, nil
}

func evaluate(synth *engine.Synthesizer, fp partition.Filtered, opts Options) PartitionEvaluation {
	a := synth.AnalyzePartition(fp)
	ev := PartitionEvaluation{
		Index:      a.Index,
		Partition:  a.Partition,
		Valid:      a.Valid(),
		Components: a.Components,
		RuleCounts: a.RuleCounts(),
	}
	options := make([][]engine.Rule, len(a.Components))
	for i, c := range a.Components {
		options[i] = c.Final
		for _, rule := range c.Final {
			ev.MaxDiameter = max(ev.MaxDiameter, rule.Diameter())
		}
	}
	if ev.Valid {
		ev.Tuples = enumerateTuples(options, opts.tupleCap())
	}
	ev.Diagnostics = a.Diagnostics
	return ev
}

// record folds one evaluation into the aggregate result.
func (r *runner) record(res *Result, ev PartitionEvaluation) {
	res.Evaluations = append(res.Evaluations, ev)
	res.Diagnostics = append(res.Diagnostics, ev.Diagnostics...)
	if !ev.Valid {
		r.logger.Debug("partition rejected", "index", ev.Index, "diagnostics", len(ev.Diagnostics))
		return
	}
	res.Counts.Valid++
	res.ValidPartitions = append(res.ValidPartitions, ev.Partition)
	for _, c := range ev.Components {
		res.Catalogue = append(res.Catalogue, c.Final...)
	}
	res.Catalogue = engine.Dedupe(res.Catalogue)
}

// baseline synthesizes the whole query as one component with the free
// variables as join nodes. Disconnected queries have no baseline.
func (r *runner) baseline(synth *engine.Synthesizer, q *ir.Query, res *Result) {
	full := q.FullSet()
	if !ir.IsConnected(q.Edges, full) {
		r.logger.Debug("query is disconnected, skipping baseline", "query", q.Name)
		return
	}
	c := ir.NewComponent(q.Edges, full)
	joins := partition.LocalJoinNodes(c, q.FreeVariables)
	cr := synth.AnalyzeComponent(c, joins, 1)

	res.GlobalCatalogue = cr.Final
	if len(cr.Final) > 0 {
		final := cr.Final[0]
		res.FinalExpression = &final
	}
}

func shuffled(filtered []partition.Filtered, seed int64) []partition.Filtered {
	out := make([]partition.Filtered, len(filtered))
	copy(out, filtered)
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// ErrNoValidPartition is returned by callers that require at least one
// valid partition.
var ErrNoValidPartition = errors.New("no valid partition")
