package graph

import (
	"fmt"
	"sort"
	"strings"

	"linkcore/internal/corerr"
	"linkcore/internal/logging"
)

// hierarchicalFactor is the activation a concept receives from being a
// prefix-extension of an already-activated parent concept, independent of
// any explicit link between them.
const hierarchicalFactor = 0.8

// Spread runs bounded BFS from seedConcepts with activation 1.0 at the
// seeds, multiplying a neighbor's activation by the edge strength on each
// hop. An activated concept whose key is a prefix-extension of another
// activated concept is raised to 0.8 times that parent's activation when
// that is higher; concepts the walk did not reach are not added this way.
// Stops at maxHops, activation below threshold, or once limit concepts have
// been activated. Each concept's links are read from the store at most once
// per call, when the walk first reaches it, and reused for the rest of the
// call; they are not read together at the start. Ties in activation are
// broken by lexicographic concept id.
func (g *Graph) Spread(seedConcepts []string, maxHops int, threshold float64, limit int) (map[string]float64, error) {
	activation := make(map[string]float64)
	for _, seed := range seedConcepts {
		if seed != "" {
			activation[seed] = 1.0
		}
	}
	if len(activation) == 0 {
		return activation, nil
	}

	linkCache := make(map[string][]linkedNeighbor)

	frontier := seedList(activation)
	for hop := 0; hop < maxHops; hop++ {
		if limit > 0 && len(activation) >= limit {
			break
		}

		var next []string
		for _, concept := range frontier {
			neighbors, err := g.cachedNeighbors(linkCache, concept)
			if err != nil {
				return activation, fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, err)
			}

			base := activation[concept]
			for _, nb := range neighbors {
				a := base * nb.strength
				if a < threshold {
					continue
				}
				if cur, ok := activation[nb.concept]; !ok || a > cur {
					activation[nb.concept] = a
					next = append(next, nb.concept)
				}
				if limit > 0 && len(activation) >= limit {
					break
				}
			}
			if limit > 0 && len(activation) >= limit {
				break
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	applyHierarchicalActivation(activation, threshold, limit)

	logging.GraphDebug("spread: %d seeds -> %d activated concepts (max_hops=%d threshold=%.2f limit=%d)",
		len(seedConcepts), len(activation), maxHops, threshold, limit)

	return activation, nil
}

type linkedNeighbor struct {
	concept  string
	strength float64
}

func (g *Graph) cachedNeighbors(cache map[string][]linkedNeighbor, concept string) ([]linkedNeighbor, error) {
	if ns, ok := cache[concept]; ok {
		return ns, nil
	}

	links, err := g.store.ListLinksForConcept(concept)
	if err != nil {
		return nil, err
	}

	ns := make([]linkedNeighbor, 0, len(links))
	for _, l := range links {
		other := l.ConceptB
		if l.ConceptA != concept {
			other = l.ConceptA
		}
		ns = append(ns, linkedNeighbor{concept: other, strength: l.Strength})
	}
	cache[concept] = ns
	return ns, nil
}

// applyHierarchicalActivation raises any already-activated concept that is
// a dot-path prefix-extension of another activated concept to 0.8 times
// the parent's activation when that is higher, applied once after BFS
// spreading settles. Concepts not already in the activation map are not
// added.
func applyHierarchicalActivation(activation map[string]float64, threshold float64, limit int) {
	parents := seedList(activation)
	for _, parent := range parents {
		for candidate := range candidateExtensions(parent, activation) {
			boosted := activation[parent] * hierarchicalFactor
			if boosted < threshold {
				continue
			}
			if limit > 0 && len(activation) >= limit {
				if _, exists := activation[candidate]; !exists {
					continue
				}
			}
			if cur, ok := activation[candidate]; !ok || boosted > cur {
				activation[candidate] = boosted
			}
		}
	}
}

// candidateExtensions finds concepts already present in the activation map
// whose dot-path has parent as a strict prefix segment sequence.
func candidateExtensions(parent string, activation map[string]float64) map[string]bool {
	out := make(map[string]bool)
	for concept := range activation {
		if concept == parent {
			continue
		}
		if strings.HasPrefix(concept, parent+".") {
			out[concept] = true
		}
	}
	return out
}

// seedList returns the keys of an activation map sorted lexicographically,
// giving the spread algorithm a stable, order-independent traversal and
// satisfying the tie-break rule on equal activation.
func seedList(activation map[string]float64) []string {
	out := make([]string, 0, len(activation))
	for c := range activation {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
