// Package scoring ranks facts against a query by fusing embedding
// similarity, concept-graph co-occurrence, spread activation, and keyword
// overlap into a single score, per spec.md §4.3.
package scoring

import "linkcore/internal/store"

// ThreadKind is a fixed enumeration of the profile "threads" the
// dimensional breakdown scores against, replacing the teacher's dynamic
// verb/predicate boost maps with a closed set — no reflection, no runtime
// class discovery, per spec.md §9.
type ThreadKind string

const (
	ThreadIdentity   ThreadKind = "identity"
	ThreadLog        ThreadKind = "log"
	ThreadForm       ThreadKind = "form"
	ThreadPhilosophy ThreadKind = "philosophy"
	ThreadReflex     ThreadKind = "reflex"
)

// AllThreadKinds enumerates every thread the breakdown computes, in a
// fixed, deterministic order.
var AllThreadKinds = []ThreadKind{ThreadIdentity, ThreadLog, ThreadForm, ThreadPhilosophy, ThreadReflex}

// Breakdown is the multi-dimensional telemetry attached to a scored fact:
// the signals that fed the final score, plus the per-thread dimensions
// computed independently for telemetry (spec.md §4.3 — not used in the
// final score).
type Breakdown struct {
	// Signals feeding the final blend.
	Embedding    float64
	Cooccurrence float64
	Spread       float64
	Keyword      float64

	// Per-thread dimensions, telemetry-only.
	Identity   float64
	Log        float64
	Form       float64
	Philosophy float64
	Reflex     float64

	// MissingSignals lists which blend signals could not be computed this
	// call (e.g. "embedding" when the provider failed).
	MissingSignals []string
}

// ScoredFact pairs a fact with its final score and dimensional breakdown.
type ScoredFact struct {
	Fact      store.Fact
	Final     float64
	Breakdown Breakdown
}
