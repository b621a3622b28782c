package graph

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/factfeed/factfeed/pkg/common"
)

// DeriveConfig holds the knobs for derivation rules.
type DeriveConfig struct {
	// MaxSourcesPerEdge bounds how much provenance a derived edge
	// accumulates, keeping exports readable. Zero means the default.
	MaxSourcesPerEdge int
}

const defaultMaxSourcesPerEdge = 4

func coInvestEdgeID(a, b string) string {
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	fp := strings.Join([]string{string(EdgeCoInvestedWith), lo, hi}, "|")
	sum := sha1.Sum([]byte(fp))
	return "edge:" + hex.EncodeToString(sum[:])[:16]
}

// DeriveCoInvestments synthesizes co_invested_with edges: for each
// investee with two or more distinct investors, every investor pair gets
// one canonical undirected edge carrying the union of the underlying
// primary edges' provenance.
//
// Complexity is O(sum over investees of k^2) in the number k of distinct
// investors per investee. Fan-in is small for news-scale data, but this
// is quadratic and worth knowing about.
//
// Calling this repeatedly is safe: an investee already counted on a pair
// edge is never counted again, and derived_from/sources only grow by
// genuinely new entries. Returns the number of newly created edges; 0 on
// an empty graph.
func (g *Graph) DeriveCoInvestments(cfg DeriveConfig) int {
	maxSources := cfg.MaxSourcesPerEdge
	if maxSources <= 0 {
		maxSources = defaultMaxSourcesPerEdge
	}

	// Group primary edges by investee, in insertion order.
	byInvestee := make(map[string][]*Edge)
	var investeeOrder []string
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		if e.Kind != EdgeInvestedIn {
			continue
		}
		if _, ok := byInvestee[e.Dst]; !ok {
			investeeOrder = append(investeeOrder, e.Dst)
		}
		byInvestee[e.Dst] = append(byInvestee[e.Dst], e)
	}

	created := 0

	for _, investeeID := range investeeOrder {
		edges := byInvestee[investeeID]

		underlyingByInvestor := make(map[string][]*Edge)
		for _, e := range edges {
			underlyingByInvestor[e.Src] = append(underlyingByInvestor[e.Src], e)
		}

		investors := make([]string, 0, len(underlyingByInvestor))
		for src := range underlyingByInvestor {
			investors = append(investors, src)
		}
		if len(investors) < 2 {
			continue
		}
		sort.Strings(investors)

		investeeName := investeeID
		if node := g.nodes[investeeID]; node != nil {
			investeeName = node.Name
		}

		for i := 0; i < len(investors); i++ {
			for j := i + 1; j < len(investors); j++ {
				a, b := investors[i], investors[j]

				underlying := append(
					append([]*Edge(nil), underlyingByInvestor[a]...),
					underlyingByInvestor[b]...,
				)
				derivedFrom := make([]string, 0, len(underlying))
				var evidence []common.FactSource
				for _, ue := range underlying {
					derivedFrom = append(derivedFrom, ue.ID)
					evidence = append(evidence, ue.Sources...)
				}

				edgeID := coInvestEdgeID(a, b)
				if existing, ok := g.edges[edgeID]; ok {
					existing.addSharedInvestee(investeeName)
					existing.mergeDerivedFrom(derivedFrom)
					existing.mergeSources(evidence, maxSources)
					continue
				}

				lo, hi := a, b
				if hi < lo {
					lo, hi = hi, lo
				}
				edge := &Edge{
					ID:   edgeID,
					Kind: EdgeCoInvestedWith,
					Src:  lo,
					Dst:  hi,
					Attrs: EdgeAttrs{
						SharedInvestees: []string{investeeName},
						SharedCount:     1,
					},
					DerivedFrom: derivedFrom,
				}
				edge.mergeSources(evidence, maxSources)
				g.edges[edgeID] = edge
				g.edgeOrder = append(g.edgeOrder, edgeID)
				created++
			}
		}
	}

	return created
}

// CoInvestorPair names the two endpoints of a derived edge.
type CoInvestorPair struct {
	NameA string `json:"name_a"`
	NameB string `json:"name_b"`
	Edge  *Edge  `json:"edge"`
}

// TopCoInvestorPairs returns derived pairs sorted descending by shared
// investee count. Ties keep edge insertion order (stable sort), so the
// result is deterministic for a given build sequence.
func (g *Graph) TopCoInvestorPairs(limit int) []CoInvestorPair {
	var pairs []CoInvestorPair
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		if e.Kind != EdgeCoInvestedWith {
			continue
		}
		a, b := g.nodes[e.Src], g.nodes[e.Dst]
		if a == nil || b == nil {
			continue
		}
		pairs = append(pairs, CoInvestorPair{NameA: a.Name, NameB: b.Name, Edge: e})
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Edge.Attrs.SharedCount > pairs[j].Edge.Attrs.SharedCount
	})

	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
