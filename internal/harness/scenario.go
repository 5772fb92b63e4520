package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cqdecomp/internal/compiler"
	"github.com/roach88/cqdecomp/internal/cpq"
	"github.com/roach88/cqdecomp/internal/pipeline"
)

// Scenario defines a decomposition contract test.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Query is the conjunctive query to decompose.
	Query compiler.Definition `yaml:"query"`

	// Options configures the pipeline. Omitted fields keep their defaults.
	Options pipeline.Options `yaml:"options,omitempty"`

	// Assertions validate the decomposition result.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of a decomposition.
type Assertion struct {
	// Type selects the check; see the package documentation.
	Type string `yaml:"type"`

	// Expr is the expected expression (rules_include, subset_rules,
	// final_expression).
	Expr string `yaml:"expr,omitempty"`

	// Source and Target constrain the rule endpoints when set.
	Source string `yaml:"source,omitempty"`
	Target string `yaml:"target,omitempty"`

	// Edges is the edge subset as ordinals. Required for subset_rules;
	// constrains the rule's edges for rules_include.
	Edges []int `yaml:"edges,omitempty"`

	// Scope restricts rules_include to "catalogue" or "global".
	Scope string `yaml:"scope,omitempty"`

	// Count is the minimum for valid_partitions_min.
	Count int `yaml:"count,omitempty"`

	// Reason is the diagnostic reason or termination reason.
	Reason string `yaml:"reason,omitempty"`

	// Counts is the expected partition funnel (counts).
	Counts *pipeline.Counts `yaml:"counts,omitempty"`
}

// Assertion type constants.
const (
	AssertRulesInclude       = "rules_include"
	AssertSubsetRules        = "subset_rules"
	AssertFinalExpression    = "final_expression"
	AssertValidPartitionsMin = "valid_partitions_min"
	AssertNoValidPartitions  = "no_valid_partitions"
	AssertDiagnosticReason   = "diagnostic_reason"
	AssertCounts             = "counts"
	AssertTermination        = "termination"
)

// Rule scopes for rules_include.
const (
	ScopeCatalogue = "catalogue"
	ScopeGlobal    = "global"
)

// terminationCompleted stands for the empty termination reason.
const terminationCompleted = "completed"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	scenario := Scenario{Options: pipeline.DefaultOptions()}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Query.Edges) == 0 {
		return fmt.Errorf("query.edges is required and must be non-empty")
	}
	if err := s.Options.Validate(); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRulesInclude, AssertFinalExpression:
		if err := validateExpr(index, a); err != nil {
			return err
		}
		if a.Scope != "" && a.Scope != ScopeCatalogue && a.Scope != ScopeGlobal {
			return fmt.Errorf("assertions[%d]: scope must be %q or %q, got %q", index, ScopeCatalogue, ScopeGlobal, a.Scope)
		}
	case AssertSubsetRules:
		if err := validateExpr(index, a); err != nil {
			return err
		}
		if len(a.Edges) == 0 {
			return fmt.Errorf("assertions[%d]: edges is required for subset_rules", index)
		}
	case AssertValidPartitionsMin:
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be positive for valid_partitions_min", index)
		}
	case AssertNoValidPartitions:
	case AssertDiagnosticReason, AssertTermination:
		if a.Reason == "" {
			return fmt.Errorf("assertions[%d]: reason is required for %s", index, a.Type)
		}
	case AssertCounts:
		if a.Counts == nil {
			return fmt.Errorf("assertions[%d]: counts is required for counts", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validateExpr(index int, a *Assertion) error {
	if a.Expr == "" {
		return fmt.Errorf("assertions[%d]: expr is required for %s", index, a.Type)
	}
	if _, err := cpq.Parse(a.Expr); err != nil {
		return fmt.Errorf("assertions[%d]: %w", index, err)
	}
	return nil
}
