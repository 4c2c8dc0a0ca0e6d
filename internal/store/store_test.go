package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), ModePrimary)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchemaIdempotently(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir, ModePrimary)
	require.NoError(t, err)
	s1.Close()

	s2, err := Open(dir, ModePrimary)
	require.NoError(t, err)
	defer s2.Close()

	_, err = s2.UpsertFact(Fact{Profile: "primary_user", Key: "sarah.likes.blue", V1: "likes blue", Weight: 0.5})
	require.NoError(t, err)
}

func TestOpenRejectsUnknownMode(t *testing.T) {
	_, err := Open(t.TempDir(), Mode("bogus"))
	assert.Error(t, err)
}

func TestUpsertFactEnforcesInvariants(t *testing.T) {
	s := openTestStore(t)

	_, err := s.UpsertFact(Fact{Profile: "", Key: "x", V1: "a"})
	assert.Error(t, err)

	_, err = s.UpsertFact(Fact{Profile: "p", Key: "x"})
	assert.Error(t, err, "at least one variant must be non-empty")

	_, err = s.UpsertFact(Fact{Profile: "p", Key: "x", V1: "a", Weight: 1.5})
	assert.Error(t, err, "weight out of range")
}

func TestUpsertFactUniqueOnProfileKey(t *testing.T) {
	s := openTestStore(t)

	f1, err := s.UpsertFact(Fact{Profile: "primary_user", Key: "color", V1: "blue", Weight: 0.5})
	require.NoError(t, err)

	f2, err := s.UpsertFact(Fact{Profile: "primary_user", Key: "color", V1: "green", Weight: 0.7})
	require.NoError(t, err)

	assert.Equal(t, f1.ID, f2.ID)
	assert.Equal(t, "green", f2.V1)

	facts, err := s.ListFactsByProfile("primary_user")
	require.NoError(t, err)
	assert.Len(t, facts, 1)
}

func TestDeleteProfileCascadesFacts(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.UpsertProfile(Profile{ID: "family.mom", Type: "family"}))
	_, err := s.UpsertFact(Fact{Profile: "family.mom", Key: "favorite.color", V1: "red", Weight: 0.5})
	require.NoError(t, err)

	ok, err := s.DeleteProfile("family.mom")
	require.NoError(t, err)
	assert.True(t, ok)

	facts, err := s.ListFactsByProfile("family.mom")
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestEventIDsAreMonotonic(t *testing.T) {
	s := openTestStore(t)

	var lastID int64
	for i := 0; i < 5; i++ {
		ev, err := s.AppendEvent("test.kind", "test", "message", "")
		require.NoError(t, err)
		assert.Greater(t, ev.ID, lastID)
		lastID = ev.ID
	}
}

func TestDeferredConflictTTL(t *testing.T) {
	s := openTestStore(t)

	c, err := s.EnqueueDeferredConflict(DeferredConflict{
		Profile: "primary_user", Key: "favorite_color",
		ExistingText: "blue", ProposedText: "green",
	}, -time.Second) // already expired
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	pending, err := s.ListDeferredConflicts()
	require.NoError(t, err)
	assert.Empty(t, pending, "expired rows should not be listed")

	n, err := s.PruneExpiredDeferredConflicts()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTempFactLifecycle(t *testing.T) {
	s := openTestStore(t)

	tf, err := s.CreateTempFact(TempFact{SessionID: "s1", Profile: "primary_user", Key: "likes.coffee", V1: "likes coffee"})
	require.NoError(t, err)
	assert.Equal(t, TempFactPending, tf.Status)

	pending, err := s.ListPendingTempFacts("s1")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, s.MarkTempFactPromoted(tf.ID))

	pending, err = s.ListPendingTempFacts("s1")
	require.NoError(t, err)
	assert.Empty(t, pending)
}
