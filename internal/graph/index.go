package graph

import (
	"fmt"

	"linkcore/internal/config"
	"linkcore/internal/corerr"
)

// IndexKeyInGraph is called whenever a fact is written: it links each
// consecutive pair of segments along the key's dot path (parent<->child)
// and links the key's leaf concept to every concept extracted from value.
func (g *Graph) IndexKeyInGraph(key, value string, eta float64) error {
	segments := KeyPathConcepts(key)
	if len(segments) == 0 {
		return corerr.ErrInvalidInput
	}

	for i := 0; i+1 < len(segments); i++ {
		if _, err := g.Link(segments[i], segments[i+1], eta); err != nil {
			return fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, err)
		}
	}

	leaf := segments[len(segments)-1]
	valueConcepts := ExtractConcepts(value)
	for _, vc := range valueConcepts {
		if vc == leaf {
			continue
		}
		if _, err := g.Link(leaf, vc, eta); err != nil {
			return fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, err)
		}
	}

	return nil
}

// Reindex discards every existing link and rebuilds concept indexing from
// every fact currently stored, returning the number of links the rebuilt
// graph holds. Used
// by introspection's graph.reindex endpoint and recoverable after a
// corrupted in-memory cache or after fact deletions leave stale edges
// behind.
func (g *Graph) Reindex(cfg *config.Config) (int, error) {
	facts, err := g.store.ListAllFacts()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, err)
	}

	if err := g.store.ClearLinks(); err != nil {
		return 0, fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, err)
	}

	for _, f := range facts {
		if err := g.IndexKeyInGraph(f.Key, f.BestText(), cfg.Hebbian.Rate); err != nil {
			continue
		}
	}

	n, err := g.store.CountLinks()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, err)
	}
	return int(n), nil
}
