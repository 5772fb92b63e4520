package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/cqdecomp/internal/cpq"
	"github.com/roach88/cqdecomp/internal/engine"
	"github.com/roach88/cqdecomp/internal/ir"
	"github.com/roach88/cqdecomp/internal/pipeline"
)

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// createdAtLayout is fixed-width so created_at sorts as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

// Rule scopes in the rules table.
const (
	ScopeCatalogue = "catalogue"
	ScopeGlobal    = "global"
)

// StoredRule is a persisted rule in its printed form.
type StoredRule struct {
	Expr        string      `json:"expr"`
	Edges       ir.EdgeSet  `json:"edges"`
	Source      ir.VertexID `json:"source"`
	Target      ir.VertexID `json:"target"`
	Diameter    int         `json:"diameter"`
	Fingerprint string      `json:"fingerprint"`
	Derivation  string      `json:"derivation,omitempty"`
}

// Rule parses the stored expression back into an engine rule.
func (r StoredRule) Rule() (engine.Rule, error) {
	expr, err := cpq.Parse(r.Expr)
	if err != nil {
		return engine.Rule{}, fmt.Errorf("stored rule %s: %w", r.Fingerprint, err)
	}
	return engine.Rule{
		Expr:       expr,
		Edges:      r.Edges,
		Source:     r.Source,
		Target:     r.Target,
		Derivation: r.Derivation,
	}, nil
}

// RunSummary is one line of run history.
type RunSummary struct {
	ID                string                     `json:"id"`
	QueryName         string                     `json:"query_name"`
	QueryFingerprint  string                     `json:"query_fingerprint"`
	Counts            pipeline.Counts            `json:"counts"`
	FinalExpression   string                     `json:"final_expression,omitempty"`
	Elapsed           time.Duration              `json:"elapsed"`
	TerminationReason pipeline.TerminationReason `json:"termination_reason,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
}

// Run is a fully loaded saved run.
type Run struct {
	RunSummary
	Query         *ir.Query         `json:"query"`
	Options       pipeline.Options  `json:"options"`
	Cache         engine.CacheStats `json:"cache"`
	EngineVersion string            `json:"engine_version"`
	SchemaVersion string            `json:"schema_version"`
	Catalogue     []StoredRule      `json:"catalogue"`
	Global        []StoredRule      `json:"global"`
	Diagnostics   []ir.Diagnostic   `json:"diagnostics"`
}

// SaveRun persists a decomposition result and returns the new run ID.
// The run, its rules, and its diagnostics are written in one transaction.
func (s *Store) SaveRun(ctx context.Context, q *ir.Query, res *pipeline.Result) (string, error) {
	if q == nil || res == nil {
		return "", fmt.Errorf("SaveRun: query and result are required")
	}

	fingerprint, err := ir.QueryFingerprint(q)
	if err != nil {
		return "", fmt.Errorf("SaveRun: %w", err)
	}
	queryJSON, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("SaveRun: marshal query: %w", err)
	}
	optionsJSON, err := json.Marshal(res.Options)
	if err != nil {
		return "", fmt.Errorf("SaveRun: marshal options: %w", err)
	}

	var final string
	if res.FinalExpression != nil {
		final = res.FinalExpression.Expr.String()
	}

	id := s.ids.Generate()
	createdAt := s.clock.Now().UTC().Format(createdAtLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("SaveRun: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, query_name, query_fingerprint, query_json, options_json,
			total_partitions, filtered_partitions, valid_partitions,
			final_expression, elapsed_ms, termination_reason,
			cache_hits, cache_misses, engine_version, schema_version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, q.Name, fingerprint, string(queryJSON), string(optionsJSON),
		res.Counts.Total, res.Counts.Filtered, res.Counts.Valid,
		final, res.Elapsed.Milliseconds(), string(res.TerminationReason),
		res.Cache.Hits, res.Cache.Misses, ir.EngineVersion, ir.SchemaVersion, createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("SaveRun: insert run: %w", err)
	}

	if err := insertRules(ctx, tx, id, ScopeCatalogue, res.Catalogue); err != nil {
		return "", err
	}
	if err := insertRules(ctx, tx, id, ScopeGlobal, res.GlobalCatalogue); err != nil {
		return "", err
	}
	if err := insertDiagnostics(ctx, tx, id, res.Diagnostics); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("SaveRun: commit: %w", err)
	}
	return id, nil
}

func insertRules(ctx context.Context, tx *sql.Tx, runID, scope string, rules []engine.Rule) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rules (
			run_id, scope, position, expr, edges, source, target,
			diameter, fingerprint, derivation
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("SaveRun: prepare rules: %w", err)
	}
	defer stmt.Close()

	for i, r := range rules {
		expr := r.Expr.String()
		fp, err := ir.RuleFingerprint(expr, r.Edges, r.Source, r.Target)
		if err != nil {
			return fmt.Errorf("SaveRun: %w", err)
		}
		edges, err := json.Marshal(r.Edges)
		if err != nil {
			return fmt.Errorf("SaveRun: marshal edges: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			runID, scope, i, expr, string(edges), string(r.Source), string(r.Target),
			r.Diameter(), fp, r.Derivation,
		); err != nil {
			return fmt.Errorf("SaveRun: insert %s rule %d: %w", scope, i, err)
		}
	}
	return nil
}

func insertDiagnostics(ctx context.Context, tx *sql.Tx, runID string, diags []ir.Diagnostic) error {
	for i, d := range diags {
		attrs := make(map[string]any, len(d.Attributes))
		for k, v := range d.Attributes {
			attrs[k] = v
		}
		canonical, err := ir.MarshalCanonical(attrs)
		if err != nil {
			return fmt.Errorf("SaveRun: diagnostic %d attributes: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO diagnostics (
				run_id, position, partition_index, component_index,
				reason, message, attributes
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, runID, i, d.PartitionIndex, d.ComponentIndex,
			string(d.Reason), d.Message, string(canonical),
		); err != nil {
			return fmt.Errorf("SaveRun: insert diagnostic %d: %w", i, err)
		}
	}
	return nil
}

const summaryColumns = `
	id, query_name, query_fingerprint,
	total_partitions, filtered_partitions, valid_partitions,
	final_expression, elapsed_ms, termination_reason, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner, extra ...any) (RunSummary, error) {
	var (
		s         RunSummary
		elapsedMS int64
		reason    string
		createdAt string
	)
	dest := []any{
		&s.ID, &s.QueryName, &s.QueryFingerprint,
		&s.Counts.Total, &s.Counts.Filtered, &s.Counts.Valid,
		&s.FinalExpression, &elapsedMS, &reason, &createdAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return RunSummary{}, err
	}
	s.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	s.TerminationReason = pipeline.TerminationReason(reason)
	t, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return RunSummary{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	s.CreatedAt = t
	return s, nil
}

// ListRuns returns run summaries, newest first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	return s.FindRuns(ctx, RunFilter{Limit: limit})
}

// GetRun loads a run with its rules and diagnostics.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var (
		run         Run
		queryJSON   string
		optionsJSON string
	)
	row := s.db.QueryRowContext(ctx, `
		SELECT`+summaryColumns+`,
			query_json, options_json, cache_hits, cache_misses,
			engine_version, schema_version
		FROM runs
		WHERE id = ?
	`, id)
	summary, err := scanSummary(row,
		&queryJSON, &optionsJSON, &run.Cache.Hits, &run.Cache.Misses,
		&run.EngineVersion, &run.SchemaVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetRun %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetRun %s: %w", id, err)
	}
	run.RunSummary = summary

	run.Query = &ir.Query{}
	if err := json.Unmarshal([]byte(queryJSON), run.Query); err != nil {
		return nil, fmt.Errorf("GetRun %s: decode query: %w", id, err)
	}
	if err := json.Unmarshal([]byte(optionsJSON), &run.Options); err != nil {
		return nil, fmt.Errorf("GetRun %s: decode options: %w", id, err)
	}

	if run.Catalogue, err = s.readRules(ctx, id, ScopeCatalogue); err != nil {
		return nil, err
	}
	if run.Global, err = s.readRules(ctx, id, ScopeGlobal); err != nil {
		return nil, err
	}
	if run.Diagnostics, err = s.readDiagnostics(ctx, id); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Store) readRules(ctx context.Context, runID, scope string) ([]StoredRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT expr, edges, source, target, diameter, fingerprint, derivation
		FROM rules
		WHERE run_id = ? AND scope = ?
		ORDER BY position ASC
	`, runID, scope)
	if err != nil {
		return nil, fmt.Errorf("GetRun %s: %s rules: %w", runID, scope, err)
	}
	defer rows.Close()

	var out []StoredRule
	for rows.Next() {
		var (
			r      StoredRule
			edges  string
			source string
			target string
		)
		if err := rows.Scan(&r.Expr, &edges, &source, &target, &r.Diameter, &r.Fingerprint, &r.Derivation); err != nil {
			return nil, fmt.Errorf("GetRun %s: scan rule: %w", runID, err)
		}
		if err := json.Unmarshal([]byte(edges), &r.Edges); err != nil {
			return nil, fmt.Errorf("GetRun %s: decode rule edges: %w", runID, err)
		}
		r.Source = ir.VertexID(source)
		r.Target = ir.VertexID(target)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) readDiagnostics(ctx context.Context, runID string) ([]ir.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT partition_index, component_index, reason, message, attributes
		FROM diagnostics
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("GetRun %s: diagnostics: %w", runID, err)
	}
	defer rows.Close()

	var out []ir.Diagnostic
	for rows.Next() {
		var (
			d      ir.Diagnostic
			reason string
			attrs  string
		)
		if err := rows.Scan(&d.PartitionIndex, &d.ComponentIndex, &reason, &d.Message, &attrs); err != nil {
			return nil, fmt.Errorf("GetRun %s: scan diagnostic: %w", runID, err)
		}
		d.Reason = ir.DiagnosticReason(reason)
		var decoded map[string]string
		if err := json.Unmarshal([]byte(attrs), &decoded); err != nil {
			return nil, fmt.Errorf("GetRun %s: decode attributes: %w", runID, err)
		}
		if len(decoded) > 0 {
			d.Attributes = decoded
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
