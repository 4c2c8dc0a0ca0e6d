package runtime

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"linkcore/internal/config"
	"linkcore/internal/store"
)

// TestMain ensures no loop/trigger-poller goroutine outlives its test.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir(), store.ModePrimary)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoopDropsOverlappingTicks(t *testing.T) {
	var calls int32
	l := &Loop{
		Name:                 "test",
		Period:               10 * time.Millisecond,
		CooldownOnError:      time.Second,
		MaxConsecutiveErrors: 5,
		Handler: func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return nil
		},
	}

	assert.True(t, l.tryAcquire())
	assert.False(t, l.tryAcquire()) // already running, dropped

	l.release(nil, nil)
	assert.True(t, l.tryAcquire())
}

func TestLoopDisablesAfterMaxConsecutiveErrors(t *testing.T) {
	s := newTestStore(t)
	l := &Loop{Name: "erroring", Period: time.Second, CooldownOnError: time.Millisecond, MaxConsecutiveErrors: 2}

	require.True(t, l.tryAcquire())
	l.release(s, assertError())
	assert.False(t, l.Disabled())

	time.Sleep(2 * time.Millisecond)
	require.True(t, l.tryAcquire())
	l.release(s, assertError())
	assert.True(t, l.Disabled())

	events, err := s.ListEvents("loop.disabled", 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestLoopResetsErrorStreakOnSuccess(t *testing.T) {
	l := &Loop{Name: "recovering", Period: time.Second, CooldownOnError: time.Millisecond, MaxConsecutiveErrors: 2}

	require.True(t, l.tryAcquire())
	l.release(nil, assertError())

	time.Sleep(2 * time.Millisecond)
	require.True(t, l.tryAcquire())
	l.release(nil, nil)

	assert.False(t, l.Disabled())
}

func TestTriggerRespectsCooldown(t *testing.T) {
	trig := &Trigger{
		ID:        "t1",
		Predicate: func(ev store.Event) bool { return ev.Kind == "watched" },
		Cooldown:  50 * time.Millisecond,
		Handler:   func(ctx context.Context) error { return nil },
	}

	ev := store.Event{Kind: "watched"}
	assert.True(t, trig.tryFire(ev))
	assert.False(t, trig.tryFire(ev)) // within cooldown

	time.Sleep(60 * time.Millisecond)
	assert.True(t, trig.tryFire(ev))
}

func TestRunnerShutdownCompletesWithinGrace(t *testing.T) {
	s := newTestStore(t)
	cfg := config.DefaultConfig()
	cfg.Runtime.ShutdownGraceMS = 500

	r := New(s, cfg)
	var ran int32
	r.RegisterLoop(&Loop{
		Name: "quick", Period: 5 * time.Millisecond, CooldownOnError: time.Second, MaxConsecutiveErrors: 10,
		Handler: func(ctx context.Context) error { atomic.AddInt32(&ran, 1); return nil },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	time.Sleep(30 * time.Millisecond)
	r.Shutdown()

	assert.Greater(t, atomic.LoadInt32(&ran), int32(0))
}

func assertError() error {
	return context.DeadlineExceeded
}
