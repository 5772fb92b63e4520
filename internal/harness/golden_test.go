package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqdecomp/internal/pipeline"
)

func TestRunWithGolden_Path(t *testing.T) {
	result, err := RunWithGolden(t, loadTestScenario(t, "path_two_free_ends"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestSnapshot_Canonical(t *testing.T) {
	res := sampleResult()
	res.TerminationReason = pipeline.TerminationPartitionLimit

	data, err := NewSnapshot("sample", res).MarshalCanonical()
	require.NoError(t, err)

	want := `{"catalogue_size":2,"counts":{"filtered":2,"total":2,"valid":1},` +
		`"diagnostics":["partition 2 component 1: COMPONENT_RULES_MISSING: no rules"],` +
		`"final_expression":{"edges":"{0,1}","expr":"(p0 ◦ p1)","source":"x0","target":"x2"},` +
		`"global":[{"edges":"{0,1}","expr":"(p0 ◦ p1)","source":"x0","target":"x2"}],` +
		`"scenario":"sample","termination":"partition_limit_reached"}`
	assert.Equal(t, want, string(data))
}

func TestSnapshot_OmitsMissingFinal(t *testing.T) {
	res := sampleResult()
	res.FinalExpression = nil

	data, err := NewSnapshot("sample", res).MarshalCanonical()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "final_expression")
	assert.Contains(t, string(data), `"termination":"completed"`)
}
