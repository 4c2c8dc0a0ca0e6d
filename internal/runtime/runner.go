package runtime

import (
	"context"
	"sync"
	"time"

	"linkcore/internal/config"
	"linkcore/internal/logging"
	"linkcore/internal/store"
)

// eventPollInterval is how often the Runner checks for newly appended
// events to feed to registered triggers. The store has no native
// pub/sub, so triggers are driven by polling the tail of the event log,
// matching spec.md §4.6's "single event loop" scheduling model.
const eventPollInterval = 2 * time.Second

// Runner drives the configured loops and triggers with a bounded worker
// pool, grounded on the teacher's startXWorker/stopXWorker/runXWorker
// ticker idiom (internal/store/reflection_worker.go), generalized from a
// single fixed worker to an arbitrary set of named loops plus triggers.
type Runner struct {
	store   *store.Store
	cfg     *config.Config
	loops   []*Loop
	triggers []*Trigger

	sem chan struct{}

	wg      sync.WaitGroup
	stopCh  chan struct{}
	lastEventID int64
}

// New constructs a Runner with a worker pool sized from cfg.Runtime.WorkerPool.
func New(s *store.Store, cfg *config.Config) *Runner {
	poolSize := cfg.Runtime.WorkerPool
	if poolSize <= 0 {
		poolSize = 4
	}
	return &Runner{
		store:  s,
		cfg:    cfg,
		sem:    make(chan struct{}, poolSize),
		stopCh: make(chan struct{}),
	}
}

// RegisterLoop adds a periodic loop. Must be called before Start.
func (r *Runner) RegisterLoop(l *Loop) {
	r.loops = append(r.loops, l)
}

// RegisterTrigger adds an event-driven trigger. Must be called before Start.
func (r *Runner) RegisterTrigger(t *Trigger) {
	r.triggers = append(r.triggers, t)
}

// dispatch runs fn on the bounded worker pool, blocking the caller until a
// slot is free. Called only from already-scheduled goroutines, never from
// Start itself, so it never blocks the event loop indefinitely.
func (r *Runner) dispatch(fn func()) {
	r.wg.Add(1)
	r.sem <- struct{}{}
	go func() {
		defer r.wg.Done()
		defer func() { <-r.sem }()
		fn()
	}()
}

// Start launches one ticker goroutine per loop plus the trigger poller.
// Non-blocking; call Shutdown to stop cooperatively.
func (r *Runner) Start(ctx context.Context) {
	if latest, err := r.store.ListEvents("", 1); err == nil && len(latest) > 0 {
		r.lastEventID = latest[0].ID
	}

	for _, l := range r.loops {
		r.wg.Add(1)
		go r.runLoop(ctx, l)
	}

	if len(r.triggers) > 0 {
		r.wg.Add(1)
		go r.runTriggerPoller(ctx)
	}
}

func (r *Runner) runLoop(ctx context.Context, l *Loop) {
	defer r.wg.Done()

	ticker := time.NewTicker(l.Period)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !l.tryAcquire() {
				logging.Get(logging.CategoryRuntime).Debug("loop %s tick dropped (busy, cooling down, or disabled)", l.Name)
				continue
			}
			r.dispatch(func() {
				err := l.Handler(ctx)
				l.release(r.store, err)
			})
		}
	}
}

func (r *Runner) runTriggerPoller(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(eventPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pollEvents(ctx)
		}
	}
}

func (r *Runner) pollEvents(ctx context.Context) {
	events, err := r.store.ListEvents("", 100)
	if err != nil {
		logging.Get(logging.CategoryRuntime).Warn("trigger poller failed to list events: %v", err)
		return
	}

	for _, ev := range events {
		if ev.ID <= r.lastEventID {
			continue
		}
		r.lastEventID = ev.ID
		r.checkTriggers(ctx, ev)
	}
}

// Shutdown signals all loops and the trigger poller to stop, then waits
// up to the configured grace period for in-flight work to finish.
func (r *Runner) Shutdown() {
	close(r.stopCh)

	grace := time.Duration(r.cfg.Runtime.ShutdownGraceMS) * time.Millisecond
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Get(logging.CategoryRuntime).Info("runtime shutdown complete")
	case <-time.After(grace):
		logging.Get(logging.CategoryRuntime).Warn("runtime shutdown grace period (%s) exceeded, returning anyway", grace)
	}
}
