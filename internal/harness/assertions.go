package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/cqdecomp/internal/cpq"
	"github.com/roach88/cqdecomp/internal/engine"
	"github.com/roach88/cqdecomp/internal/ir"
	"github.com/roach88/cqdecomp/internal/pipeline"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Rules    []string // Rules searched, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Rules) > 0 {
		fmt.Fprintf(&buf, "\nRules:\n")
		for i, r := range e.Rules {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, r)
		}
	}
	return buf.String()
}

// AssertionContext carries what assertions evaluate against.
type AssertionContext struct {
	Query       *ir.Query
	Result      *pipeline.Result
	Synthesizer *engine.Synthesizer
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(actx *AssertionContext, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(actx, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i+1, a.Type, err))
		}
	}
	return errs
}

func evaluate(actx *AssertionContext, a Assertion) error {
	switch a.Type {
	case AssertRulesInclude:
		return assertRulesInclude(actx.Result, a)
	case AssertSubsetRules:
		return assertSubsetRules(actx, a)
	case AssertFinalExpression:
		return assertFinalExpression(actx.Result, a)
	case AssertValidPartitionsMin:
		return assertValidPartitionsMin(actx.Result, a)
	case AssertNoValidPartitions:
		return assertNoValidPartitions(actx.Result)
	case AssertDiagnosticReason:
		return assertDiagnosticReason(actx.Result, a)
	case AssertCounts:
		return assertCounts(actx.Result, a)
	case AssertTermination:
		return assertTermination(actx.Result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// ruleMatches checks the expression structurally and the endpoints and
// edges when the assertion sets them.
func ruleMatches(r engine.Rule, want cpq.Expr, a Assertion) bool {
	if !cpq.Equal(r.Expr, want) {
		return false
	}
	if a.Source != "" && r.Source != ir.VertexID(a.Source) {
		return false
	}
	if a.Target != "" && r.Target != ir.VertexID(a.Target) {
		return false
	}
	if len(a.Edges) > 0 && r.Edges != ir.EdgeSetOf(a.Edges...) {
		return false
	}
	return true
}

func describe(a Assertion) string {
	var b strings.Builder
	b.WriteString(a.Expr)
	if a.Source != "" || a.Target != "" {
		fmt.Fprintf(&b, " [%s -> %s]", orAny(a.Source), orAny(a.Target))
	}
	if len(a.Edges) > 0 {
		fmt.Fprintf(&b, " %s", ir.EdgeSetOf(a.Edges...))
	}
	return b.String()
}

func orAny(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

func ruleStrings(rules []engine.Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.String()
	}
	return out
}

// assertRulesInclude searches the catalogue, the global catalogue, or both.
func assertRulesInclude(res *pipeline.Result, a Assertion) error {
	want := cpq.MustParse(a.Expr)

	var rules []engine.Rule
	if a.Scope != ScopeGlobal {
		rules = append(rules, res.Catalogue...)
	}
	if a.Scope != ScopeCatalogue {
		rules = append(rules, res.GlobalCatalogue...)
	}

	for _, r := range rules {
		if ruleMatches(r, want, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertRulesInclude,
		Expected: describe(a),
		Actual:   "not found",
		Rules:    ruleStrings(rules),
	}
}

// assertSubsetRules synthesizes the subset directly, without partitioning.
func assertSubsetRules(actx *AssertionContext, a Assertion) error {
	subset := ir.EdgeSetOf(a.Edges...)
	if !subset.SubsetOf(actx.Query.FullSet()) {
		return fmt.Errorf("edges %s outside query edges %s", subset, actx.Query.FullSet())
	}

	want := cpq.MustParse(a.Expr)
	rules := actx.Synthesizer.Rules(subset, nil)
	for _, r := range rules {
		if ruleMatches(r, want, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertSubsetRules,
		Expected: describe(a),
		Actual:   fmt.Sprintf("not among %d rules for %s", len(rules), subset),
		Rules:    ruleStrings(rules),
	}
}

func assertFinalExpression(res *pipeline.Result, a Assertion) error {
	if res.FinalExpression == nil {
		return &AssertionError{
			Type:     AssertFinalExpression,
			Expected: describe(a),
			Actual:   "no final expression",
		}
	}
	if !ruleMatches(*res.FinalExpression, cpq.MustParse(a.Expr), a) {
		return &AssertionError{
			Type:     AssertFinalExpression,
			Expected: describe(a),
			Actual:   res.FinalExpression.String(),
		}
	}
	return nil
}

func assertValidPartitionsMin(res *pipeline.Result, a Assertion) error {
	if res.Counts.Valid < a.Count {
		return &AssertionError{
			Type:     AssertValidPartitionsMin,
			Expected: fmt.Sprintf("at least %d valid partitions", a.Count),
			Actual:   fmt.Sprintf("%d valid partitions", res.Counts.Valid),
		}
	}
	return nil
}

func assertNoValidPartitions(res *pipeline.Result) error {
	if res.HasValidPartition() {
		return &AssertionError{
			Type:     AssertNoValidPartitions,
			Expected: "no valid partitions",
			Actual:   fmt.Sprintf("%d valid partitions", res.Counts.Valid),
		}
	}
	return nil
}

func assertDiagnosticReason(res *pipeline.Result, a Assertion) error {
	seen := make([]string, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		if string(d.Reason) == a.Reason {
			return nil
		}
		seen = append(seen, d.String())
	}
	return &AssertionError{
		Type:     AssertDiagnosticReason,
		Expected: fmt.Sprintf("a diagnostic with reason %s", a.Reason),
		Actual:   fmt.Sprintf("%d diagnostics without it", len(res.Diagnostics)),
		Rules:    seen,
	}
}

func assertCounts(res *pipeline.Result, a Assertion) error {
	if res.Counts != *a.Counts {
		return &AssertionError{
			Type:     AssertCounts,
			Expected: formatCounts(*a.Counts),
			Actual:   formatCounts(res.Counts),
		}
	}
	return nil
}

func formatCounts(c pipeline.Counts) string {
	return fmt.Sprintf("total=%d filtered=%d valid=%d", c.Total, c.Filtered, c.Valid)
}

func assertTermination(res *pipeline.Result, a Assertion) error {
	got := string(res.TerminationReason)
	if got == "" {
		got = terminationCompleted
	}
	if got != a.Reason {
		return &AssertionError{
			Type:     AssertTermination,
			Expected: a.Reason,
			Actual:   got,
		}
	}
	return nil
}
