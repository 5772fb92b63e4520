package querygen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqdecomp/internal/ir"
)

func TestGenerate_Deterministic(t *testing.T) {
	cfg := Config{Edges: 6, Free: 2, Labels: 3, Seed: 7}

	a, err := Generate(cfg, nil)
	require.NoError(t, err)
	b, err := Generate(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "random-e6-f2-l3-s7", a.Name)
}

func TestGenerate_Properties(t *testing.T) {
	for seed := range int64(50) {
		cfg := Config{Edges: 1 + int(seed%8), Free: int(seed % 3), Labels: 2, Seed: seed}
		q, err := Generate(cfg, nil)
		require.NoError(t, err, "seed %d", seed)

		assert.Len(t, q.Edges, cfg.Edges)
		assert.True(t, ir.IsConnected(q.Edges, q.FullSet()), "seed %d", seed)

		seen := make(map[ir.Edge]bool)
		for _, e := range q.Edges {
			e.Ordinal = 0
			assert.False(t, seen[e], "duplicate edge %s", e)
			seen[e] = true
		}

		require.Len(t, q.FreeVariables, cfg.Free)
		for _, f := range q.FreeVariables {
			assert.GreaterOrEqual(t, q.DeclarationIndex(f), 0, "free variable %s unused", f)
		}
	}
}

func TestGenerate_AllFreeVariablesPlaced(t *testing.T) {
	q, err := Generate(Config{Edges: 3, Free: 4, Labels: 1, Seed: 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, q.VertexCount())
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, Config{Edges: 0, Labels: 1}.Validate())
	assert.Error(t, Config{Edges: 2, Labels: 0}.Validate())
	assert.Error(t, Config{Edges: 2, Free: 4, Labels: 1}.Validate())
	assert.NoError(t, Config{Edges: 2, Free: 3, Labels: 1}.Validate())
}
