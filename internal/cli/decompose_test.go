package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pathFile    = filepath.Join("testdata", "path.yaml")
	squareFile  = filepath.Join("testdata", "square.yaml")
	invalidFile = filepath.Join("testdata", "invalid.yaml")
	cueFile     = filepath.Join("testdata", "queries.cue")
)

func TestDecompose_PathText(t *testing.T) {
	out, _, err := execute(t, "decompose", pathFile)
	require.NoError(t, err)

	assert.Contains(t, out, "Query: path (2 edges, 3 vertices, free: x0,x2)")
	assert.Contains(t, out, "Partitions: 2 generated, 2 filtered, 2 valid")
	assert.Contains(t, out, "Final expression: (p0 ◦ p1) [x0 -> x2] diameter 2")
	assert.Contains(t, out, "reverse: (p1⁻ ◦ p0⁻) [x2 -> x0]")
	assert.Contains(t, out, "Catalogue: 6 rules, 2 whole-query rules")
	assert.NotContains(t, out, "Terminated:")
}

func TestDecompose_PathJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "decompose", pathFile)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			RunID  string `json:"run_id"`
			Result struct {
				Counts struct {
					Total, Filtered, Valid int
				} `json:"counts"`
				FinalExpression struct {
					Expr   string `json:"expr"`
					Source string `json:"source"`
					Target string `json:"target"`
				} `json:"final_expression"`
			} `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Data.RunID)
	assert.Equal(t, 2, resp.Data.Result.Counts.Valid)
	assert.Equal(t, "(p0 ◦ p1)", resp.Data.Result.FinalExpression.Expr)
	assert.Equal(t, "x0", resp.Data.Result.FinalExpression.Source)
}

func TestDecompose_SquareHasValidPartition(t *testing.T) {
	out, _, err := execute(t, "decompose", squareFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Query: square-with-chord (5 edges, 4 vertices, free: A)")
}

func TestDecompose_CUEQueryByName(t *testing.T) {
	out, _, err := execute(t, "decompose", cueFile, "--query", "path")
	require.NoError(t, err)
	assert.Contains(t, out, "Final expression: (p0 ◦ p1)")
}

func TestDecompose_AmbiguousCUEFile(t *testing.T) {
	_, _, err := execute(t, "decompose", cueFile)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeQuery)
}

func TestDecompose_Options(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		args    []string
		limited bool
	}{
		{name: "defaults", limited: false},
		{name: "flag", args: []string{"--max-partitions", "1"}, limited: true},
		{name: "environment", env: map[string]string{"CQDECOMP_MAX_PARTITIONS": "1"}, limited: true},
		{name: "config file", args: []string{"--config", filepath.Join("testdata", "limit_one.yaml")}, limited: true},
		{
			name:    "flag beats environment",
			env:     map[string]string{"CQDECOMP_MAX_PARTITIONS": "1"},
			args:    []string{"--max-partitions", "5"},
			limited: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := append([]string{"decompose", pathFile}, tt.args...)
			out, _, err := execute(t, args...)
			require.NoError(t, err)
			if tt.limited {
				assert.Contains(t, out, "Terminated: partition_limit_reached")
				assert.Contains(t, out, "Partitions: 1 generated")
			} else {
				assert.NotContains(t, out, "Terminated:")
			}
		})
	}
}

func TestDecompose_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "bad mode", args: []string{"--mode", "bogus"}},
		{name: "bad plan from env", env: map[string]string{"CQDECOMP_PLAN": "sideways"}},
		{name: "negative workers", args: []string{"--workers", "-2"}},
		{name: "missing config", args: []string{"--config", filepath.Join("testdata", "nope.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := append([]string{"decompose", pathFile}, tt.args...)
			out, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error [E002]")
		})
	}
}

func TestDecompose_InvalidQuery(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "decompose", invalidFile)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeQuery, resp.Error.Code)
	assert.NotNil(t, resp.Error.Details)
}

func TestDecompose_MissingFile(t *testing.T) {
	out, _, err := execute(t, "decompose", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "query file not found")
}

func TestDecompose_VerboseListsPartitions(t *testing.T) {
	out, _, err := execute(t, "-v", "decompose", pathFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Partition 1 (valid)")
	assert.Contains(t, out, "Elapsed:")
}
