// Package runtime drives the background loops and event-driven triggers
// described in spec.md §4.6: a bounded worker pool executing periodic
// sweeps (consolidation, decay, health) and cooldown-gated triggers, with
// cooperative shutdown.
package runtime

import (
	"context"
	"sync"
	"time"

	"linkcore/internal/logging"
	"linkcore/internal/store"
)

// Handler performs one invocation of a loop's work.
type Handler func(ctx context.Context) error

// Loop is a named periodic activity. One invocation runs at a time; a
// tick that arrives while the previous invocation is still running is
// dropped, not queued.
type Loop struct {
	Name                string
	Period              time.Duration
	CooldownOnError      time.Duration
	MaxConsecutiveErrors int
	Handler             Handler

	mu                sync.Mutex
	running           bool
	consecutiveErrors int
	disabled          bool
	cooldownUntil     time.Time
}

func (l *Loop) tryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.disabled || l.running {
		return false
	}
	if !l.cooldownUntil.IsZero() && time.Now().Before(l.cooldownUntil) {
		return false
	}
	l.running = true
	return true
}

func (l *Loop) release(s *store.Store, err error) {
	l.mu.Lock()
	l.running = false
	now := time.Now()

	if err != nil {
		l.consecutiveErrors++
		l.cooldownUntil = now.Add(l.CooldownOnError)
		if l.MaxConsecutiveErrors > 0 && l.consecutiveErrors >= l.MaxConsecutiveErrors {
			l.disabled = true
		}
	} else {
		l.consecutiveErrors = 0
		l.cooldownUntil = time.Time{}
	}
	disabled := l.disabled
	consecutive := l.consecutiveErrors
	l.mu.Unlock()

	logging.Get(logging.CategoryRuntime).Debug("loop %s finished err=%v consecutive_errors=%d disabled=%v", l.Name, err, consecutive, disabled)

	if s == nil {
		return
	}
	desc := store.LoopDescriptor{
		Name:                 l.Name,
		PeriodSeconds:        int(l.Period / time.Second),
		CooldownOnErrorSecs:  int(l.CooldownOnError / time.Second),
		MaxConsecutiveErrors: l.MaxConsecutiveErrors,
		Enabled:              !disabled,
		ConsecutiveErrors:    consecutive,
		LastRun:              now,
	}
	if err != nil {
		desc.LastError = err.Error()
	}
	if upErr := s.UpsertLoopDescriptor(desc); upErr != nil {
		logging.Get(logging.CategoryRuntime).Warn("failed to persist loop descriptor for %s: %v", l.Name, upErr)
	}
	if disabled && consecutive == l.MaxConsecutiveErrors {
		if _, evErr := s.AppendEvent("loop.disabled", "runtime",
			l.Name+": max_consecutive_errors exceeded", ""); evErr != nil {
			logging.Get(logging.CategoryRuntime).Warn("failed to emit loop.disabled: %v", evErr)
		}
	}
}

// Enable re-enables a disabled loop, resetting its error streak.
func (l *Loop) Enable() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disabled = false
	l.consecutiveErrors = 0
	l.cooldownUntil = time.Time{}
}

// Disabled reports whether the loop has tripped its error breaker.
func (l *Loop) Disabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disabled
}
