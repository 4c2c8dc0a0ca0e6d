// Package consolidation promotes a session's pending temp facts into
// tiered, weighted long-term facts, per spec.md §4.4.
package consolidation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"linkcore/internal/config"
	"linkcore/internal/corerr"
	"linkcore/internal/graph"
	"linkcore/internal/logging"
	"linkcore/internal/scoring"
	"linkcore/internal/store"
)

// Pipeline runs the consolidation algorithm against a store, graph and
// scoring engine.
type Pipeline struct {
	store   *store.Store
	graph   *graph.Graph
	scorer  *scoring.Engine
	cfg     *config.Config
}

// New constructs a consolidation Pipeline.
func New(s *store.Store, g *graph.Graph, scorer *scoring.Engine, cfg *config.Config) *Pipeline {
	return &Pipeline{store: s, graph: g, scorer: scorer, cfg: cfg}
}

// Outcome is the per-fact result variant of a consolidation run, replacing
// exception-based branching (spec.md §9) with explicit result values.
type Outcome string

const (
	OutcomePromoted  Outcome = "promoted"
	OutcomeUpdated   Outcome = "updated"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeDeferred  Outcome = "deferred"
	OutcomeDiscarded Outcome = "discarded"
	OutcomeFailed    Outcome = "failed"
)

// Result summarizes what happened to one temp fact during a run.
type Result struct {
	TempFactID int64
	Key        string
	Outcome    Outcome
	FinalScore float64
	Err        error
}

// Run executes the full consolidation algorithm for a session: load
// pending temp facts, score them against the session summary, decide
// tier/permanence per fact, write promoted facts and index them into the
// graph, record session co-occurrence, persist relevance telemetry, and
// mark temp facts terminal. Each fact is transactional independently — a
// failure on one fact does not block the others.
func (p *Pipeline) Run(ctx context.Context, sessionID string) ([]Result, error) {
	timer := logging.StartTimer(logging.CategoryConsolidation, "Run")
	defer timer.Stop()

	pending, err := p.store.ListPendingTempFacts(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", corerr.ErrStorageUnavailable, err)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	summary := buildSessionSummary(pending)
	sessionConcepts := graph.ExtractConcepts(summary)

	results := make([]Result, 0, len(pending))
	var sessionWriteConcepts []string

	for _, tf := range pending {
		res := p.consolidateOne(ctx, tf, summary)
		results = append(results, res)

		if res.Outcome == OutcomePromoted || res.Outcome == OutcomeUpdated {
			sessionWriteConcepts = append(sessionWriteConcepts, graph.KeyPathConcepts(tf.Key)...)
		}
	}

	sessionWriteConcepts = append(sessionWriteConcepts, sessionConcepts...)
	if err := p.graph.RecordCooccurrence(sessionWriteConcepts, p.cfg.Hebbian.Rate); err != nil {
		logging.Get(logging.CategoryConsolidation).Warn("session cooccurrence partially failed: %v", err)
	}

	if _, err := p.store.AppendEvent("consolidation.completed", "consolidation",
		fmt.Sprintf("session=%s facts=%d", sessionID, len(pending)), ""); err != nil {
		logging.Get(logging.CategoryConsolidation).Warn("failed to emit consolidation.completed: %v", err)
	}

	return results, nil
}

func buildSessionSummary(pending []store.TempFact) string {
	var b strings.Builder
	for _, tf := range pending {
		text := tf.V3
		if text == "" {
			text = tf.V2
		}
		if text == "" {
			text = tf.V1
		}
		b.WriteString(text)
		b.WriteString(". ")
	}
	return b.String()
}

// consolidateOne scores, tiers, and writes a single temp fact, marking it
// terminal on success or incrementing its retry count on failure.
func (p *Pipeline) consolidateOne(ctx context.Context, tf store.TempFact, summary string) Result {
	res := Result{TempFactID: tf.ID, Key: tf.Key}

	candidate := store.Fact{Profile: tf.Profile, Key: tf.Key, Kind: tf.Kind, V1: tf.V1, V2: tf.V2, V3: tf.V3}
	scored, scoreErr := p.scorer.Score(ctx, summary, []store.Fact{candidate})
	if scoreErr != nil {
		var degraded *corerr.ScoringDegraded
		if !asScoringDegraded(scoreErr, &degraded) {
			return p.failRetryable(tf, res, scoreErr)
		}
	}
	if len(scored) == 0 {
		return p.failRetryable(tf, res, corerr.ErrScoringFailed)
	}
	final := scored[0].Final
	res.FinalScore = final

	tiered, ok := tierFact(tf, final, p.cfg.Consolidation.Thresholds)
	if !ok {
		if err := p.store.MarkTempFactDiscarded(tf.ID); err != nil {
			return p.failRetryable(tf, res, err)
		}
		res.Outcome = OutcomeDiscarded
		return res
	}

	outcome, err := p.applyPermanenceDecision(ctx, tf, tiered, scored[0])
	if err != nil {
		return p.failRetryable(tf, res, err)
	}

	if outcome == OutcomeDeferred {
		if err := p.store.MarkTempFactDiscarded(tf.ID); err != nil {
			return p.failRetryable(tf, res, err)
		}
		res.Outcome = OutcomeDeferred
		return res
	}

	if err := p.store.MarkTempFactPromoted(tf.ID); err != nil {
		return p.failRetryable(tf, res, err)
	}
	res.Outcome = outcome
	return res
}

func asScoringDegraded(err error, target **corerr.ScoringDegraded) bool {
	d, ok := err.(*corerr.ScoringDegraded)
	if ok {
		*target = d
	}
	return ok
}

// tierFact decides the verbosity/weight tier for a scored temp fact per
// spec.md §4.4 step 4, returning ok=false when the fact falls below
// tau_low and must be discarded.
func tierFact(tf store.TempFact, final float64, t config.ConsolidationThresholds) (store.Fact, bool) {
	f := store.Fact{Profile: tf.Profile, Key: tf.Key, Kind: tf.Kind}

	switch {
	case final >= t.High:
		f.V1, f.V2, f.V3 = tf.V1, tf.V2, tf.V3
		f.Weight = 0.9
	case final >= t.Mid:
		f.V1, f.V2 = tf.V1, tf.V2
		f.Weight = 0.6
	case final >= t.Low:
		f.V1 = tf.V1
		f.Weight = 0.3
	default:
		return store.Fact{}, false
	}
	return f, true
}

// applyPermanenceDecision implements spec.md §4.4 step 5: duplicate,
// update, conflict-deferred, or insert.
func (p *Pipeline) applyPermanenceDecision(ctx context.Context, tf store.TempFact, tiered store.Fact, scored scoring.ScoredFact) (Outcome, error) {
	existing, err := p.store.GetFact(tf.Profile, tf.Key)
	notFound := err != nil

	if !notFound {
		if existing.V2 == tiered.V2 && tiered.V2 != "" {
			return OutcomeDuplicate, nil
		}

		similarity, keywordOverlap, err := p.similarityToExisting(ctx, existing, tiered)
		if err != nil {
			return OutcomeFailed, err
		}
		if similarity > 0.92 || keywordOverlap > 0.8 {
			merged := mergeVerbosity(existing, tiered)
			if _, err := p.store.UpsertFact(merged); err != nil {
				return OutcomeFailed, err
			}
			if err := p.graph.IndexKeyInGraph(merged.Key, merged.BestText(), p.cfg.Hebbian.Rate); err != nil {
				logging.Get(logging.CategoryConsolidation).Warn("index after update failed for %s: %v", merged.Key, err)
			}
			return OutcomeUpdated, nil
		}

		if conflictsWithStoredValue(existing, tiered) {
			ttl := time.Duration(p.cfg.Consolidation.DeferredTTLDays) * 24 * time.Hour
			if _, err := p.store.EnqueueDeferredConflict(store.DeferredConflict{
				Profile:      tf.Profile,
				Key:          tf.Key,
				ExistingText: existing.BestText(),
				ProposedText: tiered.BestText(),
				ProposedV1:   tiered.V1,
				ProposedV2:   tiered.V2,
				ProposedV3:   tiered.V3,
				Weight:       tiered.Weight,
			}, ttl); err != nil {
				return OutcomeFailed, err
			}
			if _, err := p.store.AppendEvent("conflict.deferred", "consolidation",
				fmt.Sprintf("profile=%s key=%s", tf.Profile, tf.Key), ""); err != nil {
				logging.Get(logging.CategoryConsolidation).Warn("failed to emit conflict.deferred: %v", err)
			}
			return OutcomeDeferred, nil
		}
	}

	written, err := p.store.UpsertFact(tiered)
	if err != nil {
		return OutcomeFailed, err
	}
	if err := p.graph.IndexKeyInGraph(tiered.Key, tiered.BestText(), p.cfg.Hebbian.Rate); err != nil {
		logging.Get(logging.CategoryConsolidation).Warn("index after insert failed for %s: %v", tiered.Key, err)
	}
	if err := p.store.SaveFactRelevance(store.FactRelevanceRow{
		FactID:       written.ID,
		Query:        tf.Key,
		Identity:     scored.Breakdown.Identity,
		Log:          scored.Breakdown.Log,
		Form:         scored.Breakdown.Form,
		Philosophy:   scored.Breakdown.Philosophy,
		Reflex:       scored.Breakdown.Reflex,
		Cooccurrence: scored.Breakdown.Cooccurrence,
		Embedding:    scored.Breakdown.Embedding,
		Spread:       scored.Breakdown.Spread,
		Keyword:      scored.Breakdown.Keyword,
		Final:        scored.Final,
	}); err != nil {
		logging.Get(logging.CategoryConsolidation).Warn("relevance persist failed for %s: %v", tiered.Key, err)
	}

	return OutcomePromoted, nil
}

// similarityToExisting scores the proposed (tiered) fact's text against
// the existing stored fact's text, per spec.md §4.4 step 5: the
// merge/conflict decision compares the new value to what's already
// stored, not to the session summary used for tiering — scoring the
// candidate against the summary would make keyword overlap near 1.0 for
// any single-fact session, masking a real conflict (spec scenario 6).
func (p *Pipeline) similarityToExisting(ctx context.Context, existing, tiered store.Fact) (similarity, keywordOverlap float64, err error) {
	scored, scoreErr := p.scorer.Score(ctx, existing.BestText(), []store.Fact{tiered})
	if scoreErr != nil {
		var degraded *corerr.ScoringDegraded
		if !asScoringDegraded(scoreErr, &degraded) {
			return 0, 0, scoreErr
		}
	}
	if len(scored) == 0 {
		return 0, 0, corerr.ErrScoringFailed
	}
	return scored[0].Breakdown.Embedding, scored[0].Breakdown.Keyword, nil
}

func mergeVerbosity(existing, incoming store.Fact) store.Fact {
	merged := existing
	if incoming.V1 != "" {
		merged.V1 = incoming.V1
	}
	if incoming.V2 != "" {
		merged.V2 = incoming.V2
	}
	if incoming.V3 != "" {
		merged.V3 = incoming.V3
	}
	if incoming.Weight > merged.Weight {
		merged.Weight = incoming.Weight
	}
	return merged
}

func conflictsWithStoredValue(existing, incoming store.Fact) bool {
	existingText := existing.BestText()
	incomingText := incoming.BestText()
	return existingText != "" && incomingText != "" && existingText != incomingText
}

// failRetryable increments the temp fact's retry counter. Once max_retries
// is exceeded, the fact is marked discarded and the failure is final.
func (p *Pipeline) failRetryable(tf store.TempFact, res Result, cause error) Result {
	retries, err := p.store.IncrementTempFactRetry(tf.ID)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}

	if retries > p.cfg.Consolidation.MaxRetries {
		if discardErr := p.store.MarkTempFactDiscarded(tf.ID); discardErr != nil {
			res.Err = discardErr
		}
		if _, err := p.store.AppendEvent("consolidation.fact_discarded", "consolidation",
			fmt.Sprintf("key=%s retries=%d cause=%v", tf.Key, retries, cause), ""); err != nil {
			logging.Get(logging.CategoryConsolidation).Warn("failed to emit consolidation.fact_discarded: %v", err)
		}
		res.Outcome = OutcomeDiscarded
		res.Err = fmt.Errorf("%w: %v", corerr.ErrConsolidationFatal, cause)
		return res
	}

	res.Outcome = OutcomeFailed
	res.Err = &corerr.ConsolidationRetryable{FactKey: tf.Key, Attempt: retries, Err: cause}
	return res
}
