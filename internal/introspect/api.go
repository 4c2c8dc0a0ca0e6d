// Package introspect exposes the Linking Core's read and narrow write
// operations to external layers (UI, tests, tooling), transport-agnostic
// per spec.md §4.7.
package introspect

import (
	"context"
	"fmt"

	"linkcore/internal/config"
	"linkcore/internal/corerr"
	"linkcore/internal/graph"
	"linkcore/internal/scoring"
	"linkcore/internal/store"
)

// API implements every operation in spec.md §4.7's table. It is a
// stateless facade over the store, graph, and scoring engine — safe for
// concurrent use since every call goes through the store's own
// connection-acquisition discipline.
type API struct {
	store  *store.Store
	graph  *graph.Graph
	scorer *scoring.Engine
	cfg    *config.Config
}

// New constructs an introspection API.
func New(s *store.Store, g *graph.Graph, scorer *scoring.Engine, cfg *config.Config) *API {
	return &API{store: s, graph: g, scorer: scorer, cfg: cfg}
}

// GraphSnapshot is the output of GetGraph: a point-in-time view of the
// concept graph capped at max_nodes.
type GraphSnapshot struct {
	Nodes      []string
	Links      []store.Link
	TotalLinks int64
}

// GetGraph returns a snapshot-consistent view of the graph capped to
// maxNodes distinct concepts (derived from the returned links).
func (a *API) GetGraph(maxNodes int) (GraphSnapshot, error) {
	if maxNodes <= 0 {
		maxNodes = 100
	}

	total, err := a.store.CountLinks()
	if err != nil {
		return GraphSnapshot{}, fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, err)
	}

	links, err := a.store.ListAllLinks(maxNodes * 2)
	if err != nil {
		return GraphSnapshot{}, fmt.Errorf("%w: %v", corerr.ErrGraphUnavailable, err)
	}

	seen := map[string]bool{}
	var nodes []string
	for _, l := range links {
		if !seen[l.ConceptA] {
			seen[l.ConceptA] = true
			nodes = append(nodes, l.ConceptA)
		}
		if !seen[l.ConceptB] {
			seen[l.ConceptB] = true
			nodes = append(nodes, l.ConceptB)
		}
		if len(nodes) >= maxNodes {
			break
		}
	}

	return GraphSnapshot{Nodes: nodes, Links: links, TotalLinks: total}, nil
}

// ActivateResult is the output of Activate.
type ActivateResult struct {
	InputConcepts []string
	Activation    map[string]float64
}

// Activate runs spread activation for query text against the live graph.
func (a *API) Activate(query string) (ActivateResult, error) {
	concepts := graph.ExtractConcepts(query)
	activation, err := a.graph.Spread(concepts, a.cfg.Spread.MaxHops, a.cfg.Spread.Threshold, a.cfg.Spread.Limit)
	if err != nil {
		return ActivateResult{}, err
	}
	return ActivateResult{InputConcepts: concepts, Activation: activation}, nil
}

// Score ranks facts against a query, exposing the full per-dimension
// breakdown used by §4.3's scoring engine.
func (a *API) Score(ctx context.Context, query string, facts []store.Fact) ([]scoring.ScoredFact, error) {
	return a.scorer.Score(ctx, query, facts)
}

// Strengthen applies a bounded delta to an edge, returning its new
// strength.
func (a *API) Strengthen(conceptA, conceptB string, delta float64) (float64, error) {
	return a.graph.Strengthen(conceptA, conceptB, delta)
}

// Reindex rebuilds concept indexing from every stored fact, returning the
// resulting link count.
func (a *API) Reindex() (int, error) {
	return a.graph.Reindex(a.cfg)
}

// ListProfiles returns every profile, optionally filtered by type.
func (a *API) ListProfiles(profileType string) ([]store.Profile, error) {
	return a.store.ListProfiles(profileType)
}

// UpsertFact creates or updates a fact, enforcing the store's invariants.
func (a *API) UpsertFact(f store.Fact) (store.Fact, error) {
	return a.store.UpsertFact(f)
}

// DeleteFact removes a fact and cascades the removal into the concept
// graph: since links may be shared with other facts, the cheapest correct
// way to drop only the edges the deleted fact uniquely contributed is to
// rebuild the graph from whatever facts remain, rather than guess at
// per-edge ownership.
func (a *API) DeleteFact(profile, key string) (bool, error) {
	deleted, err := a.store.DeleteFact(profile, key)
	if err != nil {
		return false, err
	}
	if deleted {
		if _, err := a.graph.Reindex(a.cfg); err != nil {
			return true, err
		}
	}
	return deleted, nil
}
