package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cqdecomp/internal/engine"
	"github.com/roach88/cqdecomp/internal/ir"
	"github.com/roach88/cqdecomp/internal/pipeline"
)

// Snapshot is the stable part of a decomposition result. Elapsed times,
// cache statistics, and per-partition detail are left out so the snapshot
// survives engine changes that do not alter the outcome.
type Snapshot struct {
	ScenarioName  string
	Counts        pipeline.Counts
	CatalogueSize int
	Final         *engine.Rule
	Global        []engine.Rule
	Diagnostics   []ir.Diagnostic
	Termination   pipeline.TerminationReason
}

// NewSnapshot captures res under the scenario name.
func NewSnapshot(name string, res *pipeline.Result) Snapshot {
	return Snapshot{
		ScenarioName:  name,
		Counts:        res.Counts,
		CatalogueSize: len(res.Catalogue),
		Final:         res.FinalExpression,
		Global:        res.GlobalCatalogue,
		Diagnostics:   res.Diagnostics,
		Termination:   res.TerminationReason,
	}
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles primitives and maps.
func (s Snapshot) toCanonicalMap() map[string]any {
	global := make([]any, len(s.Global))
	for i, r := range s.Global {
		global[i] = ruleMap(r)
	}
	diags := make([]any, len(s.Diagnostics))
	for i, d := range s.Diagnostics {
		diags[i] = d.String()
	}

	termination := string(s.Termination)
	if termination == "" {
		termination = terminationCompleted
	}

	out := map[string]any{
		"scenario":       s.ScenarioName,
		"catalogue_size": s.CatalogueSize,
		"counts": map[string]any{
			"total":    s.Counts.Total,
			"filtered": s.Counts.Filtered,
			"valid":    s.Counts.Valid,
		},
		"global":      global,
		"diagnostics": diags,
		"termination": termination,
	}
	if s.Final != nil {
		out["final_expression"] = ruleMap(*s.Final)
	}
	return out
}

func ruleMap(r engine.Rule) map[string]any {
	return map[string]any{
		"expr":   r.Expr.String(),
		"edges":  r.Edges.String(),
		"source": r.Source,
		"target": r.Target,
	}
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the scenario result so callers can also check Pass. Test failure
// (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result.Decomposition); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a decomposition result against a golden file
// without re-running it.
func AssertGolden(t *testing.T, name string, res *pipeline.Result) error {
	t.Helper()

	data, err := NewSnapshot(name, res).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
