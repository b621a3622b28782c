// Package graphstate holds the server's current graph view. The graph
// itself is not safe for concurrent mutation, so the state rebuilds a
// fresh graph from the store and swaps it in atomically; readers always
// see a complete, immutable build.
package graphstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/factfeed/factfeed/pkg/graph"
	"github.com/factfeed/factfeed/pkg/store"
)

// State is the shared, rebuild-on-demand graph view.
type State struct {
	store    store.FactStore
	daysBack int

	mu      sync.RWMutex
	graph   *graph.Graph
	builtAt time.Time
}

// New creates a state over the given store window. The initial graph is
// empty until the first Rebuild.
func New(s store.FactStore, daysBack int) *State {
	return &State{
		store:    s,
		daysBack: daysBack,
		graph:    graph.New(),
	}
}

// Rebuild loads the stored window, builds a fresh graph with derived
// co-investments and swaps it in.
func (s *State) Rebuild(ctx context.Context) error {
	investments, err := s.store.LoadInvestments(ctx, s.daysBack)
	if err != nil {
		return fmt.Errorf("failed to load investments: %w", err)
	}

	g := graph.New().BuildFromInvestments(investments)
	g.DeriveCoInvestments(graph.DeriveConfig{})

	s.mu.Lock()
	s.graph = g
	s.builtAt = time.Now().UTC()
	s.mu.Unlock()
	return nil
}

// Graph returns the current build. The returned graph must be treated
// as read-only.
func (s *State) Graph() *graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// BuiltAt returns when the current build was swapped in; zero before the
// first successful Rebuild.
func (s *State) BuiltAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.builtAt
}
