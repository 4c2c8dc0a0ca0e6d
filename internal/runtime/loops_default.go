package runtime

import (
	"context"
	"time"

	"linkcore/internal/config"
	"linkcore/internal/consolidation"
	"linkcore/internal/graph"
	"linkcore/internal/logging"
	"linkcore/internal/store"
)

// NewConsolidationLoop sweeps every session with pending temp facts and
// runs the consolidation pipeline against each, per spec.md §4.6's
// periodic-activity list.
func NewConsolidationLoop(s *store.Store, pipeline *consolidation.Pipeline, cfg config.LoopConfig, cooldown time.Duration, maxErrs int) *Loop {
	period := time.Duration(cfg.Periods.ConsolidationSeconds) * time.Second
	return &Loop{
		Name:                 "consolidation",
		Period:               period,
		CooldownOnError:      cooldown,
		MaxConsecutiveErrors: maxErrs,
		Handler: func(ctx context.Context) error {
			sessions, err := s.ListDistinctPendingSessions()
			if err != nil {
				return err
			}
			var firstErr error
			for _, sessionID := range sessions {
				if _, err := pipeline.Run(ctx, sessionID); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		},
	}
}

// NewDecayLoop runs the concept graph's decay sweep on a fixed period.
func NewDecayLoop(g *graph.Graph, decayCfg config.DecayConfig, loopCfg config.LoopConfig, cooldown time.Duration, maxErrs int) *Loop {
	period := time.Duration(loopCfg.Periods.DecaySeconds) * time.Second
	return &Loop{
		Name:                 "decay",
		Period:               period,
		CooldownOnError:      cooldown,
		MaxConsecutiveErrors: maxErrs,
		Handler: func(ctx context.Context) error {
			decayed, pruned, err := g.Decay(decayCfg.RatePerDay, decayCfg.MinStrength)
			logging.Get(logging.CategoryRuntime).Debug("decay sweep: %d decayed, %d pruned", decayed, pruned)
			return err
		},
	}
}

// NewHealthLoop checks storage reachability on a fixed period, emitting a
// health.check_failed event when the check fails; a passing check emits
// nothing.
func NewHealthLoop(s *store.Store, loopCfg config.LoopConfig, cooldown time.Duration, maxErrs int) *Loop {
	period := time.Duration(loopCfg.Periods.HealthSeconds) * time.Second
	return &Loop{
		Name:                 "health",
		Period:               period,
		CooldownOnError:      cooldown,
		MaxConsecutiveErrors: maxErrs,
		Handler: func(ctx context.Context) error {
			_, err := s.CountLinks()
			if err != nil {
				if _, evErr := s.AppendEvent("health.check_failed", "runtime", err.Error(), ""); evErr != nil {
					logging.Get(logging.CategoryRuntime).Warn("failed to emit health.check_failed: %v", evErr)
				}
				return err
			}
			return nil
		},
	}
}
