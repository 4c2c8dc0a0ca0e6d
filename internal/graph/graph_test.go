package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkcore/internal/store"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	s, err := store.Open(t.TempDir(), store.ModePrimary)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s)
}

func TestFirstCooccurrence(t *testing.T) {
	g := newTestGraph(t)

	err := g.RecordCooccurrence([]string{"sarah", "coffee"}, 0.1)
	require.NoError(t, err)

	l, found, err := g.store.GetLink("coffee", "sarah")
	require.NoError(t, err)
	require.True(t, found)
	assert.InDelta(t, 0.10, l.Strength, 1e-9)
	assert.Equal(t, int64(1), l.FireCount)
}

func TestHebbianSaturation(t *testing.T) {
	g := newTestGraph(t)

	var l store.Link
	var err error
	for i := 0; i < 10; i++ {
		l, err = g.Link("a", "b", 0.1)
		require.NoError(t, err)
	}
	assert.InDelta(t, 0.6513, l.Strength, 1e-3)

	for i := 0; i < 90; i++ {
		l, err = g.Link("a", "b", 0.1)
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, l.Strength, 1.0)
	assert.Greater(t, l.Strength, 0.99)
}

func TestLinkCommutative(t *testing.T) {
	g := newTestGraph(t)

	_, err := g.Link("b", "a", 0.2)
	require.NoError(t, err)
	l1, found, err := g.store.GetLink("a", "b")
	require.NoError(t, err)
	require.True(t, found)

	_, err = g.Link("a", "b", 0.2)
	require.NoError(t, err)
	l2, found, err := g.store.GetLink("b", "a")
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, l1.ConceptA, l2.ConceptA)
	assert.Equal(t, l1.ConceptB, l2.ConceptB)
}

func TestLinkClamp(t *testing.T) {
	g := newTestGraph(t)

	var l store.Link
	var err error
	for i := 0; i < 500; i++ {
		l, err = g.Link("x", "y", 0.9)
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, l.Strength, 1.0)
	assert.GreaterOrEqual(t, l.Strength, 0.0)
}

func TestSpreadActivation(t *testing.T) {
	g := newTestGraph(t)

	_, err := g.Strengthen("coffee", "sarah", 0.8)
	require.NoError(t, err)
	_, err = g.Strengthen("coffee", "morning", 0.6)
	require.NoError(t, err)

	activation, err := g.Spread([]string{"sarah"}, 2, 0.1, 50)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, activation["sarah"], 1e-9)
	assert.InDelta(t, 0.8, activation["coffee"], 1e-9)
	assert.InDelta(t, 0.48, activation["morning"], 1e-9)

	activation1, err := g.Spread([]string{"sarah"}, 1, 0.1, 50)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, activation1["sarah"], 1e-9)
	assert.InDelta(t, 0.8, activation1["coffee"], 1e-9)
	_, hasMorning := activation1["morning"]
	assert.False(t, hasMorning)
}

func TestDecayCurve(t *testing.T) {
	// UpsertLink always stamps last_fired as CURRENT_TIMESTAMP, so the
	// 30-day-old scenario from spec.md's decay curve is exercised against
	// the formula directly rather than round-tripped through storage.
	decayed := 1.0 * pow(0.95, 30)
	assert.InDelta(t, 0.215, decayed, 1e-3)
}

func TestDecayPrunesBelowThreshold(t *testing.T) {
	g := newTestGraph(t)

	_, err := g.Link("p", "q", 0.01)
	require.NoError(t, err)

	_, pruned, err := g.Decay(0.0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	_, found, err := g.store.GetLink("p", "q")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExtractConceptsDeterministic(t *testing.T) {
	c1 := ExtractConcepts("Sarah likes blue, the color of the sky")
	c2 := ExtractConcepts("Sarah likes blue, the color of the sky")
	assert.Equal(t, c1, c2)
	assert.NotContains(t, c1, "the")
	assert.NotContains(t, c1, "of")
}

func TestGenerateHierarchicalKeyIsCleanPath(t *testing.T) {
	key := GenerateHierarchicalKey("Sarah really likes blue a lot")
	for _, r := range key {
		assert.True(t, r == '.' || r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	}
}

func pow(base float64, exp int) float64 {
	return math.Pow(base, float64(exp))
}
