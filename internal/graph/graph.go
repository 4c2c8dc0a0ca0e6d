package graph

import (
	"fmt"
	"math"
	"time"

	"linkcore/internal/corerr"
	"linkcore/internal/logging"
	"linkcore/internal/store"
)

// Graph is a stateless view over the store's link table: every operation
// reads and writes through to storage, matching the teacher's
// QueryLinks/StoreLink split in internal/store/local_graph.go but
// generalized to weighted, decaying, undirected concept edges.
type Graph struct {
	store *store.Store
}

// New constructs a Graph bound to a store.
func New(s *store.Store) *Graph {
	return &Graph{store: s}
}

// Link canonicalizes the pair, upserts it, and applies the Hebbian update
// s' = s + (1-s)*eta, clamped to [0,1]. Commutative: Link(a,b) and
// Link(b,a) produce the identical row.
func (g *Graph) Link(a, b string, eta float64) (store.Link, error) {
	if a == "" || b == "" {
		return store.Link{}, corerr.ErrInvalidInput
	}

	existing, found, err := g.store.GetLink(a, b)
	if err != nil {
		return store.Link{}, fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, err)
	}

	next := existing
	if !found {
		next = store.Link{ConceptA: a, ConceptB: b}
	}

	next.Strength = clamp01(next.Strength + (1-next.Strength)*eta)
	next.FireCount++

	if err := g.store.UpsertLink(next); err != nil {
		return store.Link{}, fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, err)
	}

	logging.GraphDebug("link %s<->%s strength=%.4f fire_count=%d", next.ConceptA, next.ConceptB, next.Strength, next.FireCount)
	return next, nil
}

// recordCooccurrenceConceptCap bounds the O(N^2) pair blowup in
// RecordCooccurrence per spec.md's N_cap=32 default.
const recordCooccurrenceConceptCap = 32

// RecordCooccurrence calls Link for every unordered pair in concepts,
// subsampling deterministically when the set exceeds N_cap. Pair failures
// are collected and reported together rather than aborting the batch.
func (g *Graph) RecordCooccurrence(concepts []string, eta float64) error {
	subset := subsampleConcepts(dedupe(concepts), recordCooccurrenceConceptCap)

	var failed [][2]string
	var firstErr error

	for i := 0; i < len(subset); i++ {
		for j := i + 1; j < len(subset); j++ {
			a, b := subset[i], subset[j]
			if _, err := g.Link(a, b, eta); err != nil {
				failed = append(failed, [2]string{a, b})
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if err := g.store.BumpCooccurrence(a, b); err != nil {
				failed = append(failed, [2]string{a, b})
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}

	if len(failed) > 0 {
		return &corerr.PartialGraphUpdate{FailedPairs: failed, Err: firstErr}
	}
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Decay applies multiplicative decay s <- s * rate^days_since_last_fired to
// every link, using UTC floor-days, and prunes links below minStrength.
// Idempotent within a single UTC day via last_decay_day: calling Decay
// twice on the same day only decays once.
func (g *Graph) Decay(rate, minStrength float64) (decayed int, pruned int, err error) {
	links, err := g.store.ListAllLinks(0)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, err)
	}

	today := floorDayUTC(time.Now())

	for _, l := range links {
		if l.LastDecayDay >= today {
			continue // already decayed today
		}

		lastFiredDay := floorDayUTC(l.LastFired)
		days := today - lastFiredDay
		if days < 0 {
			days = 0
		}

		newStrength := l.Strength * math.Pow(rate, float64(days))
		l.LastDecayDay = today

		if newStrength < minStrength {
			if delErr := g.store.DeleteLink(l.ConceptA, l.ConceptB); delErr != nil {
				if err == nil {
					err = fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, delErr)
				}
				continue
			}
			pruned++
			continue
		}

		l.Strength = newStrength
		if upErr := g.store.UpsertLink(l); upErr != nil {
			if err == nil {
				err = fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, upErr)
			}
			continue
		}
		decayed++
	}

	logging.GraphDebug("decay: %d links decayed, %d pruned", decayed, pruned)
	return decayed, pruned, err
}

// floorDayUTC returns the number of whole UTC days since the Unix epoch,
// per spec.md §9's decision to use UTC floor-days for decay.
func floorDayUTC(t time.Time) int64 {
	return t.UTC().Unix() / 86400
}

// Strengthen applies a bounded delta to an edge's strength directly
// (introspection's graph.strengthen endpoint), clamping to [0,1] without
// going through the Hebbian formula.
func (g *Graph) Strengthen(a, b string, delta float64) (float64, error) {
	if a == "" || b == "" {
		return 0, corerr.ErrInvalidInput
	}

	existing, found, err := g.store.GetLink(a, b)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, err)
	}
	if !found {
		existing = store.Link{ConceptA: a, ConceptB: b}
	}

	existing.Strength = clamp01(existing.Strength + delta)
	existing.FireCount++

	if err := g.store.UpsertLink(existing); err != nil {
		return 0, fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, err)
	}

	logging.Get(logging.CategoryGraph).Info("strengthen %s<->%s delta=%.4f -> %.4f", a, b, delta, existing.Strength)
	return existing.Strength, nil
}

// LinkStrength returns the strength of the edge between two concepts, and
// false if no such link exists. Used by the scoring engine's cooccurrence
// signal.
func (g *Graph) LinkStrength(a, b string) (float64, bool, error) {
	l, found, err := g.store.GetLink(a, b)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, err)
	}
	return l.Strength, found, nil
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
