package runtime

import (
	"context"
	"sync"
	"time"

	"linkcore/internal/logging"
	"linkcore/internal/store"
)

// TriggerPredicate inspects a newly appended event and reports whether
// the trigger should fire.
type TriggerPredicate func(ev store.Event) bool

// Trigger is an event-driven background activity gated by a cooldown.
type Trigger struct {
	ID        string
	Predicate TriggerPredicate
	Cooldown  time.Duration
	Handler   Handler

	mu         sync.Mutex
	lastFired  time.Time
	fireCount  int64
}

func (t *Trigger) tryFire(ev store.Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.Predicate(ev) {
		return false
	}
	if !t.lastFired.IsZero() && time.Since(t.lastFired) < t.Cooldown {
		return false
	}
	t.lastFired = time.Now()
	t.fireCount++
	return true
}

func (t *Trigger) snapshot() store.TriggerDescriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return store.TriggerDescriptor{
		ID:        t.ID,
		CooldownSecs: int(t.Cooldown / time.Second),
		FireCount: t.fireCount,
		LastFired: t.lastFired,
	}
}

// checkTriggers evaluates every registered trigger against one event,
// dispatching matching triggers to the worker pool.
func (r *Runner) checkTriggers(ctx context.Context, ev store.Event) {
	for _, t := range r.triggers {
		t := t
		if !t.tryFire(ev) {
			continue
		}
		r.dispatch(func() {
			if err := t.Handler(ctx); err != nil {
				logging.Get(logging.CategoryRuntime).Warn("trigger %s handler failed: %v", t.ID, err)
			}
			if err := r.store.UpsertTriggerDescriptor(t.snapshot()); err != nil {
				logging.Get(logging.CategoryRuntime).Warn("failed to persist trigger descriptor for %s: %v", t.ID, err)
			}
		})
	}
}
