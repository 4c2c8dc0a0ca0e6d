package scoring

import (
	"context"
	"sort"

	"linkcore/internal/config"
	"linkcore/internal/corerr"
	"linkcore/internal/embedding"
	"linkcore/internal/graph"
	"linkcore/internal/logging"
	"linkcore/internal/store"
)

// Engine ranks facts against a query, fusing embedding similarity,
// concept-graph co-occurrence, spread activation, and keyword overlap. It
// is a stateless view over the graph and an optional embedding backend —
// embeddings may be nil, in which case the fallback all-keyword blend is
// used for the whole call.
type Engine struct {
	graph     *graph.Graph
	embedder  embedding.EmbeddingEngine
	weights   config.ScoreWeights
}

// New constructs a scoring Engine. embedder may be nil when
// embedding.enabled is false in config.
func New(g *graph.Graph, embedder embedding.EmbeddingEngine, weights config.ScoreWeights) *Engine {
	return &Engine{graph: g, embedder: embedder, weights: weights}
}

// Score ranks facts against query, returning results sorted by descending
// final score (ties broken by higher weight, then lower key
// lexicographically, per spec.md §4.3's determinism rule).
func (e *Engine) Score(ctx context.Context, query string, facts []store.Fact) ([]ScoredFact, error) {
	timer := logging.StartTimer(logging.CategoryScoring, "Score")
	defer timer.Stop()

	queryConcepts := graph.ExtractConcepts(query)
	queryTokens := tokenize(query)

	texts := make([]string, len(facts))
	for i, f := range facts {
		texts[i] = f.BestText()
	}
	corpusFreq, corpusSize := buildCorpusFreq(texts)

	embeddingAvailable := e.embedder != nil
	var queryVec []float32
	if embeddingAvailable {
		v, err := e.embedder.Embed(ctx, query)
		if err != nil {
			embeddingAvailable = false
		} else {
			queryVec = v
		}
	}

	var spreadActivation map[string]float64
	if len(queryConcepts) > 0 {
		a, err := e.graph.Spread(queryConcepts, 1, 0.10, 50)
		if err == nil {
			spreadActivation = a
		}
	}

	results := make([]ScoredFact, 0, len(facts))
	var anyMissing bool

	for _, f := range facts {
		text := f.BestText()

		breakdown := Breakdown{}
		var missing []string

		var embSim float64
		haveEmbedding := embeddingAvailable
		if haveEmbedding {
			factVec, err := e.embedder.Embed(ctx, text)
			if err != nil {
				haveEmbedding = false
			} else {
				sim, err := embedding.CosineSimilarity(queryVec, factVec)
				if err != nil {
					haveEmbedding = false
				} else {
					embSim = sim
				}
			}
		}
		if !haveEmbedding {
			missing = append(missing, "embedding")
		}

		coocc := cooccurrenceSignal(e.graph, queryConcepts, graph.KeyPathConcepts(f.Key))
		spread := spreadSignal(spreadActivation, graph.KeyPathConcepts(f.Key))
		kw := keywordOverlap(queryTokens, text, corpusFreq, corpusSize)

		threadDims := ComputeThreadBreakdown(text)
		breakdown.Embedding = embSim
		breakdown.Cooccurrence = coocc
		breakdown.Spread = spread
		breakdown.Keyword = kw
		breakdown.Identity = threadDims[ThreadIdentity]
		breakdown.Log = threadDims[ThreadLog]
		breakdown.Form = threadDims[ThreadForm]
		breakdown.Philosophy = threadDims[ThreadPhilosophy]
		breakdown.Reflex = threadDims[ThreadReflex]

		final := clamp01(kw)
		if embeddingAvailable {
			final = e.blend(haveEmbedding, embSim, coocc, spread, kw)
		}
		breakdown.MissingSignals = missing
		if len(missing) > 0 {
			anyMissing = true
		}

		results = append(results, ScoredFact{Fact: f, Final: final, Breakdown: breakdown})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Final != results[j].Final {
			return results[i].Final > results[j].Final
		}
		if results[i].Fact.Weight != results[j].Fact.Weight {
			return results[i].Fact.Weight > results[j].Fact.Weight
		}
		return results[i].Fact.Key < results[j].Fact.Key
	})

	if len(results) == 0 {
		return results, nil
	}
	if anyMissing {
		missingSet := map[string]bool{}
		for _, r := range results {
			for _, m := range r.Breakdown.MissingSignals {
				missingSet[m] = true
			}
		}
		signals := make([]string, 0, len(missingSet))
		for m := range missingSet {
			signals = append(signals, m)
		}
		sort.Strings(signals)
		return results, &corerr.ScoringDegraded{MissingSignals: signals}
	}

	return results, nil
}

// blend combines the four weighted signals, renormalizing across the
// signals available for one fact: when the provider is up but that fact's
// embed fails, the embedding drops both its score contribution and its
// weight from the denominator. Score does not call blend when no embedding
// is available for the whole query (no embedder configured, or the query
// embed failed); that call scores every fact by keyword overlap alone.
func (e *Engine) blend(haveEmbedding bool, embSim, coocc, spread, kw float64) float64 {
	w := e.weights

	total := w.Cooccurrence + w.Spread + w.Keyword
	score := w.Cooccurrence*coocc + w.Spread*spread + w.Keyword*kw
	if haveEmbedding {
		total += w.Embedding
		score += w.Embedding * embSim
	}

	if total == 0 {
		return clamp01(kw)
	}
	return clamp01(score / total)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// cooccurrenceSignal sums link strength between query concepts and fact
// concepts, normalized by the number of query concepts, clipped to [0,1].
func cooccurrenceSignal(g *graph.Graph, queryConcepts, factConcepts []string) float64 {
	if len(queryConcepts) == 0 || len(factConcepts) == 0 {
		return 0
	}

	var sum float64
	for _, qc := range queryConcepts {
		for _, fc := range factConcepts {
			if qc == fc {
				sum += 1.0
				continue
			}
			strength, found, err := g.LinkStrength(qc, fc)
			if err == nil && found {
				sum += strength
			}
		}
	}

	normalized := sum / float64(len(queryConcepts))
	return clamp01(normalized)
}

// spreadSignal returns the maximum activation among factConcepts in the
// precomputed spread map.
func spreadSignal(activation map[string]float64, factConcepts []string) float64 {
	if activation == nil {
		return 0
	}
	var max float64
	for _, fc := range factConcepts {
		if a, ok := activation[fc]; ok && a > max {
			max = a
		}
	}
	return max
}
