// Package context assembles prompt context for a single user turn within
// strict per-thread token budgets, per spec.md §4.5.
package context

import (
	"strings"

	"linkcore/internal/scoring"
)

// Tier is the verbosity level a routed thread is gated to.
type Tier int

const (
	Tier1Metadata Tier = 1
	Tier2Keys     Tier = 2
	Tier3Full     Tier = 3
)

// routeThresholdMid and routeThresholdHigh split the [0,10] route_query
// score into the three tiers from spec.md §4.5.
const (
	routeThresholdMid  = 3.5
	routeThresholdHigh = 7.0
)

// RouteScore returns a [0,10] relevance score for a thread against query
// text, derived from the fraction of the thread's fixed keyword lexicon
// present in the query.
func RouteScore(kind scoring.ThreadKind, query string) float64 {
	lexicon := scoring.ThreadLexicon(kind)
	if len(lexicon) == 0 {
		return 0
	}

	tokens := tokenSet(query)
	var hits int
	for _, word := range lexicon {
		if tokens[word] {
			hits++
		}
	}

	ratio := float64(hits) / float64(len(lexicon))
	return clampScore(ratio * 10)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// TierForScore maps a route_query score to a context tier.
func TierForScore(score float64) Tier {
	switch {
	case score >= routeThresholdHigh:
		return Tier3Full
	case score >= routeThresholdMid:
		return Tier2Keys
	default:
		return Tier1Metadata
	}
}

func tokenSet(text string) map[string]bool {
	out := map[string]bool{}
	for _, f := range strings.Fields(strings.ToLower(text)) {
		f = strings.Trim(f, ".,!?;:\"'()[]{}")
		if f != "" {
			out[f] = true
		}
	}
	return out
}
