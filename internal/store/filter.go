package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/cqdecomp/internal/pipeline"
)

// Predicate is a condition on the runs table.
//
// This is a sealed interface: only Equals, AtLeast and And implement it, so
// compilePredicate can switch exhaustively.
type Predicate interface {
	predicateNode()
}

// Equals matches rows whose column equals Value.
type Equals struct {
	Column string
	Value  any
}

func (Equals) predicateNode() {}

// AtLeast matches rows whose integer column is at least Value.
type AtLeast struct {
	Column string
	Value  int64
}

func (AtLeast) predicateNode() {}

// And matches rows satisfying every predicate. An empty And matches all rows.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// filterColumns lists the runs columns a predicate may reference. Column
// names are interpolated into SQL, so anything else is rejected.
var filterColumns = map[string]bool{
	"query_name":         true,
	"query_fingerprint":  true,
	"termination_reason": true,
	"valid_partitions":   true,
	"total_partitions":   true,
	"final_expression":   true,
}

// RunFilter selects runs for FindRuns. Zero fields do not constrain.
type RunFilter struct {
	QueryName        string
	QueryFingerprint string
	// Termination matches runs that stopped for this reason. Use
	// TerminationCompleted for runs that covered every partition.
	Termination pipeline.TerminationReason
	MinValid    int
	// Limit caps the result; zero or less returns every match.
	Limit int
}

// TerminationCompleted selects runs with no termination reason.
const TerminationCompleted pipeline.TerminationReason = "completed"

// Predicate converts the filter into a conjunction over the runs table.
func (f RunFilter) Predicate() Predicate {
	var preds []Predicate
	if f.QueryName != "" {
		preds = append(preds, Equals{Column: "query_name", Value: f.QueryName})
	}
	if f.QueryFingerprint != "" {
		preds = append(preds, Equals{Column: "query_fingerprint", Value: f.QueryFingerprint})
	}
	switch f.Termination {
	case "":
	case TerminationCompleted:
		preds = append(preds, Equals{Column: "termination_reason", Value: ""})
	default:
		preds = append(preds, Equals{Column: "termination_reason", Value: string(f.Termination)})
	}
	if f.MinValid > 0 {
		preds = append(preds, AtLeast{Column: "valid_partitions", Value: int64(f.MinValid)})
	}
	return And{Predicates: preds}
}

// compileRunQuery builds the summary SELECT for p. Values are always bound
// as parameters and the ORDER BY is fixed, newest first with the ID as
// tiebreaker.
func compileRunQuery(p Predicate, limit int) (string, []any, error) {
	where, params, err := compilePredicate(p)
	if err != nil {
		return "", nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	var b strings.Builder
	b.WriteString("SELECT")
	b.WriteString(summaryColumns)
	b.WriteString(" FROM runs")
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	b.WriteString(" ORDER BY created_at DESC, id COLLATE BINARY DESC LIMIT ?")
	return b.String(), append(params, limit), nil
}

// compilePredicate returns the WHERE fragment for p, or "" when p matches
// every row.
func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "", nil, nil
	case Equals:
		if err := checkColumn(pred.Column); err != nil {
			return "", nil, err
		}
		return pred.Column + " = ?", []any{pred.Value}, nil
	case AtLeast:
		if err := checkColumn(pred.Column); err != nil {
			return "", nil, err
		}
		return pred.Column + " >= ?", []any{pred.Value}, nil
	case And:
		var (
			parts  []string
			params []any
		)
		for _, inner := range pred.Predicates {
			sql, ps, err := compilePredicate(inner)
			if err != nil {
				return "", nil, err
			}
			if sql == "" {
				continue
			}
			parts = append(parts, sql)
			params = append(params, ps...)
		}
		return strings.Join(parts, " AND "), params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func checkColumn(column string) error {
	if !filterColumns[column] {
		return fmt.Errorf("column %q cannot be filtered on", column)
	}
	return nil
}

// FindRuns returns the summaries of runs matching f, newest first.
func (s *Store) FindRuns(ctx context.Context, f RunFilter) ([]RunSummary, error) {
	query, params, err := compileRunQuery(f.Predicate(), f.Limit)
	if err != nil {
		return nil, fmt.Errorf("FindRuns: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("FindRuns: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("FindRuns: %w", err)
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindRuns: %w", err)
	}
	return out, nil
}
