package consolidation

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

func newTestPipeline(t *testing.T) (*Pipeline, *store.Store) {
	t.Helper()
	s, err := store.Open(t.TempDir(), store.ModePrimary)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	g := graph.New(s)
	cfg := config.DefaultConfig()
	scorer := scoring.New(g, nil, cfg.Score.Weights)
	return New(s, g, scorer, cfg), s
}

// TestConsolidationTiering runs four temp facts of decreasing relevance
// through one consolidation pass and checks that every one is resolved and
// that the most relevant fact is promoted (or updated) and stored with a
// non-zero weight.
func TestConsolidationTiering(t *testing.T) {
	p, s := newTestPipeline(t)

	// Temp facts ordered by how many tokens they share with the session
	// summary; with no embedder configured, more shared tokens give a
	// higher keyword score.
	facts := []store.TempFact{
		{SessionID: "sess1", Profile: "primary_user", Key: "sarah.favorite.drink",
			V1: "sarah likes coffee", V2: "sarah likes coffee in the morning", V3: "sarah likes coffee in the morning before work", Status: store.TempFactPending},
		{SessionID: "sess1", Profile: "primary_user", Key: "sarah.hobby",
			V1: "sarah plays tennis", V2: "sarah plays tennis on weekends", Status: store.TempFactPending},
		{SessionID: "sess1", Profile: "primary_user", Key: "sarah.pet",
			V1: "sarah has a cat", Status: store.TempFactPending},
		{SessionID: "sess1", Profile: "primary_user", Key: "sarah.unrelated",
			V1: "completely unrelated statement about nothing in particular", Status: store.TempFactPending},
	}

	var ids []int64
	for _, tf := range facts {
		created, err := s.CreateTempFact(tf)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	results, err := p.Run(context.Background(), "sess1")
	require.NoError(t, err)
	require.Len(t, results, 4)

	byKey := map[string]Result{}
	for _, r := range results {
		byKey[r.Key] = r
	}

	assert.Contains(t, []Outcome{OutcomePromoted, OutcomeUpdated}, byKey["sarah.favorite.drink"].Outcome)

	stored, err := s.GetFact("primary_user", "sarah.favorite.drink")
	require.NoError(t, err)
	assert.NotZero(t, stored.Weight)
}

// TestConsolidationConflictDeferred mirrors spec.md's scenario 6: a
// stored fact (primary_user, favorite_color, "blue") conflicts with a new
// temp fact proposing "green". The stored value must not be overwritten;
// instead a deferred-conflict row and a conflict.deferred event are
// recorded.
func TestConsolidationConflictDeferred(t *testing.T) {
	p, s := newTestPipeline(t)

	_, err := s.UpsertFact(store.Fact{
		Profile: "primary_user", Key: "favorite_color", Kind: "preference",
		V1: "blue", V2: "blue", V3: "blue", Weight: 0.9,
	})
	require.NoError(t, err)

	_, err = s.CreateTempFact(store.TempFact{
		SessionID: "sess2", Profile: "primary_user", Key: "favorite_color",
		V1: "green", V2: "green is now the favorite color", V3: "green is now the favorite color, mentioned repeatedly",
		Status: store.TempFactPending,
	})
	require.NoError(t, err)

	results, err := p.Run(context.Background(), "sess2")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, OutcomeDeferred, results[0].Outcome)

	stored, err := s.GetFact("primary_user", "favorite_color")
	require.NoError(t, err)
	assert.Equal(t, "blue", stored.V1)

	conflicts, err := s.ListDeferredConflicts()
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "favorite_color", conflicts[0].Key)
	assert.Equal(t, "blue", conflicts[0].ExistingText)

	events, err := s.ListEvents("conflict.deferred", 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestConsolidationRunIsNoOpWithoutPendingFacts(t *testing.T) {
	p, _ := newTestPipeline(t)
	results, err := p.Run(context.Background(), "empty-session")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestConsolidationMarksTempFactsTerminal(t *testing.T) {
	p, s := newTestPipeline(t)

	created, err := s.CreateTempFact(store.TempFact{
		SessionID: "sess3", Profile: "primary_user", Key: "simple.fact",
		V1: "a brief fact", Status: store.TempFactPending,
	})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), "sess3")
	require.NoError(t, err)

	pending, err := s.ListPendingTempFacts("sess3")
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.NotZero(t, created.ID)
}
