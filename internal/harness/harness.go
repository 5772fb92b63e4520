package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/cqdecomp/internal/compiler"
	"github.com/roach88/cqdecomp/internal/engine"
	"github.com/roach88/cqdecomp/internal/pipeline"
	"github.com/roach88/cqdecomp/internal/testutil"
)

// Harness executes scenarios on a frozen clock.
type Harness struct {
	logger *slog.Logger
	clock  *testutil.ManualClock
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger routes pipeline logs to logger instead of discarding them.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// New creates a harness. Logs are discarded unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  testutil.NewManualClock(0),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a test scenario with a default harness.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return New().Run(ctx, scenario)
}

// Run builds the scenario query, decomposes it, and evaluates the
// assertions. Returns an error only when the scenario cannot execute; failed
// assertions are reported in Result.Errors.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	q, err := compiler.Build(scenario.Query)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	res, err := pipeline.Decompose(ctx, q, scenario.Options,
		pipeline.WithLogger(h.logger),
		pipeline.WithClock(h.clock),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: decompose: %w", scenario.Name, err)
	}

	h.logger.Debug("scenario decomposed",
		"scenario", scenario.Name,
		"partitions", res.Counts.Total,
		"valid", res.Counts.Valid,
	)

	actx := &AssertionContext{
		Query:  q,
		Result: res,
		Synthesizer: engine.NewSynthesizer(q,
			engine.WithDiameterCap(scenario.Options.DiameterCap),
			engine.WithLogger(h.logger),
		),
	}

	result := NewResult(res)
	for _, msg := range EvaluateAssertions(actx, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}
