package introspect

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

func newTestAPI(t *testing.T) (*API, *store.Store) {
	t.Helper()
	s, err := store.Open(t.TempDir(), store.ModePrimary)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	g := graph.New(s)
	cfg := config.DefaultConfig()
	scorer := scoring.New(g, nil, cfg.Score.Weights)
	return New(s, g, scorer, cfg), s
}

func TestUpsertFactThenGetGraphReflectsReindex(t *testing.T) {
	a, _ := newTestAPI(t)

	_, err := a.UpsertFact(store.Fact{Profile: "primary_user", Key: "sarah.likes.coffee", V1: "sarah likes coffee", Weight: 0.7})
	require.NoError(t, err)

	count, err := a.Reindex()
	require.NoError(t, err)
	assert.Greater(t, count, 0)

	snap, err := a.GetGraph(100)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.Nodes)
	assert.Equal(t, int64(len(snap.Links)), snap.TotalLinks)
}

func TestActivateReturnsInputConcepts(t *testing.T) {
	a, _ := newTestAPI(t)
	_, err := a.UpsertFact(store.Fact{Profile: "primary_user", Key: "sarah.likes.coffee", V1: "sarah likes coffee", Weight: 0.7})
	require.NoError(t, err)
	_, err = a.Reindex()
	require.NoError(t, err)

	result, err := a.Activate("sarah coffee")
	require.NoError(t, err)
	assert.Contains(t, result.InputConcepts, "sarah")
	assert.Contains(t, result.InputConcepts, "coffee")
}

func TestStrengthenClamps(t *testing.T) {
	a, _ := newTestAPI(t)
	strength, err := a.Strengthen("a", "b", 5.0)
	require.NoError(t, err)
	assert.LessOrEqual(t, strength, 1.0)
}

func TestDeleteFactReturnsFalseWhenMissing(t *testing.T) {
	a, _ := newTestAPI(t)
	deleted, err := a.DeleteFact("nobody", "nothing")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestScoreViaAPIMirrorsScoringEngine(t *testing.T) {
	a, _ := newTestAPI(t)
	facts := []store.Fact{{Profile: "p", Key: "a.b", V1: "alpha beta", Weight: 0.5}}
	results, err := a.Score(context.Background(), "alpha", facts)
	require.Error(t, err) // ScoringDegraded, no embedder configured
	require.Len(t, results, 1)
}

func TestListProfilesEmptyByDefault(t *testing.T) {
	a, _ := newTestAPI(t)
	profiles, err := a.ListProfiles("")
	require.NoError(t, err)
	assert.Empty(t, profiles)
}
