package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkcore/internal/config"
	"linkcore/internal/graph"
	"linkcore/internal/scoring"
	"linkcore/internal/store"
)

func newTestAssembler(t *testing.T) (*Assembler, *store.Store) {
	t.Helper()
	s, err := store.Open(t.TempDir(), store.ModePrimary)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	g := graph.New(s)
	cfg := config.DefaultConfig()
	scorer := scoring.New(g, nil, cfg.Score.Weights)
	return New(s, scorer, cfg.Budget), s
}

func TestRouteScoreZeroForEmptyLexiconMatch(t *testing.T) {
	score := RouteScore(scoring.ThreadForm, "the sky is blue today")
	assert.Equal(t, 0.0, score)
}

func TestTierForScoreBoundaries(t *testing.T) {
	assert.Equal(t, Tier1Metadata, TierForScore(0))
	assert.Equal(t, Tier1Metadata, TierForScore(3.49))
	assert.Equal(t, Tier2Keys, TierForScore(3.5))
	assert.Equal(t, Tier2Keys, TierForScore(6.99))
	assert.Equal(t, Tier3Full, TierForScore(7.0))
	assert.Equal(t, Tier3Full, TierForScore(10))
}

func TestAssembleIsDeterministic(t *testing.T) {
	a, s := newTestAssembler(t)

	_, err := s.UpsertFact(store.Fact{Profile: "primary_user", Key: "name", V1: "sarah", Weight: 0.9})
	require.NoError(t, err)

	r1, err := a.Assemble(context.Background(), "primary_user", "who am I called")
	require.NoError(t, err)
	r2, err := a.Assemble(context.Background(), "primary_user", "who am I called")
	require.NoError(t, err)

	require.Len(t, r1.Threads, len(r2.Threads))
	for i := range r1.Threads {
		assert.Equal(t, r1.Threads[i].Thread, r2.Threads[i].Thread)
		assert.Equal(t, r1.Threads[i].Tier, r2.Threads[i].Tier)
		assert.Equal(t, r1.Threads[i].Tokens, r2.Threads[i].Tokens)
	}
	assert.Equal(t, r1.TotalTokens, r2.TotalTokens)
}

func TestAssembleRespectsPerThreadBudget(t *testing.T) {
	a, s := newTestAssembler(t)

	for i := 0; i < 20; i++ {
		_, err := s.UpsertFact(store.Fact{
			Profile: "primary_user",
			Key:     "rule.constraint" + string(rune('a'+i)),
			V3:      "always follow this constraint and never break the rule automatically",
			Weight:  0.8,
		})
		require.NoError(t, err)
	}

	result, err := a.Assemble(context.Background(), "primary_user", "always never rule constraint trigger reflex automatic")
	require.NoError(t, err)

	for _, tc := range result.Threads {
		switch tc.Tier {
		case Tier2Keys:
			assert.LessOrEqual(t, tc.Tokens, a.budget.L2Tokens)
		case Tier3Full:
			assert.LessOrEqual(t, tc.Tokens, a.budget.L3Tokens)
		}
	}
}

func TestAssembleTotalTokensIsSumOfThreadTokens(t *testing.T) {
	a, s := newTestAssembler(t)
	_, err := s.UpsertFact(store.Fact{Profile: "p", Key: "a", V1: "brief", Weight: 0.5})
	require.NoError(t, err)

	result, err := a.Assemble(context.Background(), "p", "irrelevant text")
	require.NoError(t, err)

	sum := 0
	for _, tc := range result.Threads {
		sum += tc.Tokens
	}
	assert.Equal(t, sum, result.TotalTokens)
}
