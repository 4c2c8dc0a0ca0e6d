package context

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"linkcore/internal/config"
	"linkcore/internal/logging"
	"linkcore/internal/scoring"
	"linkcore/internal/store"
)

// ThreadContext is the assembled context for a single routed thread.
type ThreadContext struct {
	Thread    scoring.ThreadKind
	Score     float64
	Tier      Tier
	Summary   string   // Tier 1: thread name + short summary
	Keys      []string // Tier 2: profile/key pairs, no values
	Facts     []scoring.ScoredFact
	Tokens    int
	Degraded  bool
}

// Assembled is the full per-turn context: one ThreadContext per routed
// thread, plus the total token count across all of them.
type Assembled struct {
	Threads     []ThreadContext
	TotalTokens int
}

// Assembler builds per-turn context deterministically within strict
// per-thread token budgets (spec.md §4.5).
type Assembler struct {
	store  *store.Store
	scorer *scoring.Engine
	budget config.BudgetConfig
}

// New constructs an Assembler.
func New(s *store.Store, scorer *scoring.Engine, budget config.BudgetConfig) *Assembler {
	return &Assembler{store: s, scorer: scorer, budget: budget}
}

// Assemble routes query text across every fixed thread kind, builds each
// routed thread's context at its assigned tier, and sums token usage.
// Each thread's Tier 3 build (the expensive scoring pass) is independent
// of every other thread's, so they run concurrently via errgroup, the
// same fan-out-over-independent-subqueries idiom the teacher uses for
// parallel search (internal/perception/semantic_classifier.go). Results
// are written into a pre-sized slice by index, not append order, so
// identical inputs still yield a byte-identical Assembled value
// regardless of goroutine scheduling.
func (a *Assembler) Assemble(ctx context.Context, profile, query string) (Assembled, error) {
	threads := make([]ThreadContext, len(scoring.AllThreadKinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range scoring.AllThreadKinds {
		i, kind := i, kind
		score := RouteScore(kind, query)
		tier := TierForScore(score)

		g.Go(func() error {
			tc, err := a.buildThread(gctx, profile, query, kind, score, tier)
			if err != nil {
				tc = ThreadContext{Thread: kind, Score: score, Tier: Tier1Metadata, Degraded: true, Summary: threadSummary(kind)}
				tc.Tokens = countTokens(tc.Summary)
				if _, evErr := a.store.AppendEvent("context.thread_degraded", "context",
					fmt.Sprintf("thread=%s err=%v", kind, err), ""); evErr != nil {
					logging.Get(logging.CategoryContext).Warn("failed to emit context.thread_degraded: %v", evErr)
				}
			}
			threads[i] = tc
			return nil
		})
	}
	// errgroup.Group.Wait's error is always nil here: buildThread failures
	// degrade to a Tier1 fallback inside the goroutine rather than
	// propagating, so no thread ever aborts the group.
	_ = g.Wait()

	var out Assembled
	out.Threads = threads
	for _, tc := range threads {
		out.TotalTokens += tc.Tokens
	}
	return out, nil
}

func (a *Assembler) buildThread(ctx context.Context, profile, query string, kind scoring.ThreadKind, score float64, tier Tier) (ThreadContext, error) {
	tc := ThreadContext{Thread: kind, Score: score, Tier: tier}

	switch tier {
	case Tier1Metadata:
		tc.Summary = threadSummary(kind)
		tc.Tokens = countTokens(tc.Summary)
		return tc, nil

	case Tier2Keys:
		facts, err := a.store.ListFactsByProfile(profile)
		if err != nil {
			return tc, err
		}
		budget := a.budget.L2Tokens
		keys := make([]string, 0, len(facts))
		used := 0
		sort.Slice(facts, func(i, j int) bool { return facts[i].Key < facts[j].Key })
		for _, f := range facts {
			entry := fmt.Sprintf("%s.%s", f.Profile, f.Key)
			cost := countTokens(entry)
			if used+cost > budget {
				break
			}
			keys = append(keys, entry)
			used += cost
		}
		tc.Keys = keys
		tc.Tokens = used
		return tc, nil

	case Tier3Full:
		facts, err := a.store.ListFactsByProfile(profile)
		if err != nil {
			return tc, err
		}
		scored, scoreErr := a.scorer.Score(ctx, query, facts)
		if scoreErr != nil && scored == nil {
			return tc, scoreErr
		}

		budget := a.budget.L3Tokens
		selected := make([]scoring.ScoredFact, 0, len(scored))
		used := 0
		for _, sf := range scored {
			text := sf.Fact.TextForTier(3)
			cost := countTokens(text)
			if used+cost > budget {
				continue
			}
			selected = append(selected, sf)
			used += cost
		}
		tc.Facts = selected
		tc.Tokens = used
		return tc, nil
	}

	return tc, nil
}

func threadSummary(kind scoring.ThreadKind) string {
	return fmt.Sprintf("%s: no strongly routed content this turn", kind)
}

// countTokens is the whitespace-token approximation chosen in DESIGN.md's
// Open Question resolution: no tokenizer library appears anywhere in the
// example pack, so token cost is approximated as the number of
// whitespace-delimited words.
func countTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Fields(text))
}
