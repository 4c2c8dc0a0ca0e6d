package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkcore/internal/config"
	"linkcore/internal/graph"
	"linkcore/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *graph.Graph) {
	t.Helper()
	s, err := store.Open(t.TempDir(), store.ModePrimary)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	g := graph.New(s)
	weights := config.DefaultConfig().Score.Weights
	return New(g, nil, weights), g
}

func TestScoreFallbackIsKeywordOnly(t *testing.T) {
	e, _ := newTestEngine(t)

	facts := []store.Fact{
		{Profile: "primary_user", Key: "sarah.likes.blue", V1: "sarah likes blue"},
		{Profile: "primary_user", Key: "unrelated.topic", V1: "completely different subject"},
	}

	results, err := e.Score(context.Background(), "what does sarah like", facts)
	require.Error(t, err) // ScoringDegraded: no embedder configured
	require.Len(t, results, 2)
	assert.Equal(t, "sarah.likes.blue", results[0].Fact.Key)
	assert.Contains(t, results[0].Breakdown.MissingSignals, "embedding")
}

func TestScoreDeterministic(t *testing.T) {
	e, _ := newTestEngine(t)

	facts := []store.Fact{
		{Profile: "p", Key: "a.b", V1: "alpha beta", Weight: 0.5},
		{Profile: "p", Key: "c.d", V1: "gamma delta", Weight: 0.5},
	}

	r1, _ := e.Score(context.Background(), "alpha", facts)
	r2, _ := e.Score(context.Background(), "alpha", facts)

	require.Len(t, r1, len(r2))
	for i := range r1 {
		assert.Equal(t, r1[i].Fact.Key, r2[i].Fact.Key)
		assert.Equal(t, r1[i].Final, r2[i].Final)
	}
}

func TestScoreTieBreakByWeightThenKey(t *testing.T) {
	e, _ := newTestEngine(t)

	facts := []store.Fact{
		{Profile: "p", Key: "zzz", V1: "no overlap here", Weight: 0.1},
		{Profile: "p", Key: "aaa", V1: "no overlap here", Weight: 0.9},
		{Profile: "p", Key: "bbb", V1: "no overlap here", Weight: 0.9},
	}

	results, _ := e.Score(context.Background(), "irrelevant query text", facts)
	require.Len(t, results, 3)
	// Both "aaa" and "bbb" share weight 0.9 and score 0 (no overlap);
	// lexicographically smaller key wins the tie.
	assert.Equal(t, "aaa", results[0].Fact.Key)
	assert.Equal(t, "bbb", results[1].Fact.Key)
	assert.Equal(t, "zzz", results[2].Fact.Key)
}

func TestComputeThreadBreakdownIsIndependentOfFinalScore(t *testing.T) {
	dims := ComputeThreadBreakdown("I always follow this rule as a constraint")
	assert.Greater(t, dims[ThreadReflex], 0.0)
	assert.Equal(t, 0.0, dims[ThreadForm])
}
