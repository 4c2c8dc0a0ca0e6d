// Package graph implements the weighted concept graph: Hebbian link
// strengthening, temporal decay, bounded spread activation, and the
// concept-extraction helpers consolidation and the context assembler build
// on. It is a stateless view over internal/store — no graph state outlives
// a single call except what storage persists.
package graph

import (
	"regexp"
	"sort"
	"strings"
)

// stopConcepts mirrors a small, fixed stop-word list; concepts this short
// or this common carry no discriminating signal in a key path.
var stopConcepts = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "to": true,
	"of": true, "and": true, "or": true, "in": true, "on": true, "at": true,
	"for": true, "with": true, "by": true, "it": true, "this": true,
	"that": true, "i": true, "you": true, "he": true, "she": true,
	"they": true, "we": true, "my": true, "your": true, "his": true,
	"her": true, "their": true, "our": true, "as": true, "but": true,
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// ExtractConcepts tokenizes text, lowercases it, strips stop-concepts, and
// returns an ordered, deduplicated sequence of concept tokens. Deterministic
// for the same input.
func ExtractConcepts(text string) []string {
	lower := strings.ToLower(text)
	raw := tokenPattern.FindAllString(lower, -1)

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len(tok) < 2 || stopConcepts[tok] {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// GenerateHierarchicalKey produces a dot-notation key from the salient
// tokens of text. The result is idempotent and contains only [a-z0-9_.].
// Heuristic: take up to the first three non-stop concepts in order of
// appearance, joined by dots — a noun/verb/object approximation that does
// not require a POS tagger.
func GenerateHierarchicalKey(text string) string {
	concepts := ExtractConcepts(text)
	if len(concepts) == 0 {
		return "unknown"
	}
	n := len(concepts)
	if n > 3 {
		n = 3
	}
	return strings.Join(concepts[:n], ".")
}

// KeyPathConcepts splits a dot-notation key into its path segments, used by
// IndexKeyInGraph to link parent and child segments.
func KeyPathConcepts(key string) []string {
	parts := strings.Split(strings.ToLower(key), ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// subsampleConcepts deterministically reduces a concept set to at most cap
// entries when recording co-occurrence, bounding the O(N^2) pair blowup.
// Selection is by ascending FNV-1a hash of the concept string, which is
// stable across calls for the same input set.
func subsampleConcepts(concepts []string, cap int) []string {
	if len(concepts) <= cap {
		return concepts
	}

	type hashed struct {
		concept string
		hash    uint32
	}
	hs := make([]hashed, len(concepts))
	for i, c := range concepts {
		hs[i] = hashed{concept: c, hash: fnv1a(c)}
	}
	sort.Slice(hs, func(i, j int) bool {
		if hs[i].hash != hs[j].hash {
			return hs[i].hash < hs[j].hash
		}
		return hs[i].concept < hs[j].concept
	})

	out := make([]string, cap)
	for i := 0; i < cap; i++ {
		out[i] = hs[i].concept
	}
	return out
}

func fnv1a(s string) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

// FindBySubstring returns concepts from the candidate universe containing
// any of terms, capped at limit, used for UI fuzzy search.
func FindBySubstring(universe []string, terms []string, limit int) []string {
	lowerTerms := make([]string, len(terms))
	for i, t := range terms {
		lowerTerms[i] = strings.ToLower(t)
	}

	seen := make(map[string]bool)
	var out []string
	for _, c := range universe {
		if limit > 0 && len(out) >= limit {
			break
		}
		if seen[c] {
			continue
		}
		for _, t := range lowerTerms {
			if t != "" && strings.Contains(c, t) {
				out = append(out, c)
				seen[c] = true
				break
			}
		}
	}
	return out
}
