package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqdecomp/internal/ir"
	"github.com/roach88/cqdecomp/internal/pipeline"
	"github.com/roach88/cqdecomp/internal/testutil"
)

func TestCompilePredicate(t *testing.T) {
	tests := []struct {
		name       string
		pred       Predicate
		wantSQL    string
		wantParams []any
	}{
		{
			name: "nil matches all",
			pred: nil,
		},
		{
			name: "empty and matches all",
			pred: And{},
		},
		{
			name:       "equals",
			pred:       Equals{Column: "query_name", Value: "path"},
			wantSQL:    "query_name = ?",
			wantParams: []any{"path"},
		},
		{
			name:       "at least",
			pred:       AtLeast{Column: "valid_partitions", Value: 2},
			wantSQL:    "valid_partitions >= ?",
			wantParams: []any{int64(2)},
		},
		{
			name: "nested and",
			pred: And{Predicates: []Predicate{
				Equals{Column: "query_name", Value: "path"},
				And{Predicates: []Predicate{
					And{},
					AtLeast{Column: "valid_partitions", Value: 1},
				}},
			}},
			wantSQL:    "query_name = ? AND valid_partitions >= ?",
			wantParams: []any{"path", int64(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := compilePredicate(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestCompilePredicate_RejectsUnknownColumn(t *testing.T) {
	_, _, err := compilePredicate(Equals{Column: "id; DROP TABLE runs", Value: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be filtered on")

	_, _, err = compilePredicate(And{Predicates: []Predicate{AtLeast{Column: "created_at", Value: 1}}})
	require.Error(t, err)
}

func TestCompileRunQuery_ParameterizedAndOrdered(t *testing.T) {
	sql, params, err := compileRunQuery(RunFilter{QueryName: "o'brien", MinValid: 1}.Predicate(), 5)
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM runs WHERE query_name = ? AND valid_partitions >= ?")
	assert.Contains(t, sql, "ORDER BY created_at DESC, id COLLATE BINARY DESC LIMIT ?")
	assert.NotContains(t, sql, "o'brien")
	assert.Equal(t, []any{"o'brien", int64(1), 5}, params)
}

func TestCompileRunQuery_NoLimit(t *testing.T) {
	sql, params, err := compileRunQuery(RunFilter{}.Predicate(), 0)
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.Equal(t, []any{-1}, params)
}

func TestRunFilter_Termination(t *testing.T) {
	_, params, err := compilePredicate(RunFilter{Termination: TerminationCompleted}.Predicate())
	require.NoError(t, err)
	assert.Equal(t, []any{""}, params)

	_, params, err = compilePredicate(RunFilter{Termination: pipeline.TerminationPartitionLimit}.Predicate())
	require.NoError(t, err)
	assert.Equal(t, []any{"partition_limit_reached"}, params)
}

func TestFindRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t,
		WithIDGenerator(testutil.NewSequenceIDGenerator("run")),
		WithClock(testutil.NewManualClock(0)),
	)
	defer s.Close()

	q, res := decomposePath(t)
	_, err := s.SaveRun(ctx, q, res)
	require.NoError(t, err)

	opts := pipeline.DefaultOptions()
	opts.MaxPartitions = 1
	limited, err := pipeline.Decompose(ctx, q, opts, pipeline.WithClock(testutil.NewManualClock(0)))
	require.NoError(t, err)
	_, err = s.SaveRun(ctx, q, limited)
	require.NoError(t, err)

	square := testutil.SquareWithChord(t, "A")
	squareRes, err := pipeline.Decompose(ctx, square, pipeline.DefaultOptions(), pipeline.WithClock(testutil.NewManualClock(0)))
	require.NoError(t, err)
	_, err = s.SaveRun(ctx, square, squareRes)
	require.NoError(t, err)

	pathFP, err := ir.QueryFingerprint(q)
	require.NoError(t, err)

	ids := func(runs []RunSummary) []string {
		out := make([]string, len(runs))
		for i, r := range runs {
			out[i] = r.ID
		}
		return out
	}

	tests := []struct {
		name   string
		filter RunFilter
		want   []string
	}{
		{"all", RunFilter{}, []string{"run-003", "run-002", "run-001"}},
		{"by name", RunFilter{QueryName: q.Name}, []string{"run-002", "run-001"}},
		{"by fingerprint", RunFilter{QueryFingerprint: pathFP}, []string{"run-002", "run-001"}},
		{"completed path", RunFilter{QueryName: q.Name, Termination: TerminationCompleted}, []string{"run-001"}},
		{"truncated", RunFilter{Termination: pipeline.TerminationPartitionLimit}, []string{"run-002"}},
		{"min valid", RunFilter{QueryName: q.Name, MinValid: 2}, []string{"run-001"}},
		{"limit", RunFilter{Limit: 1}, []string{"run-003"}},
		{"no match", RunFilter{QueryName: "missing"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.FindRuns(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(runs))
		})
	}
}
