// Package graph holds the in-memory, evidence-preserving knowledge
// graph. Nodes are companies, primary edges are admitted investment
// facts, derived edges are synthesized relationships that carry the
// provenance of the facts they were derived from.
//
// The graph does not re-check grounding; callers validate facts before
// adding them (see pkg/validate). It is rebuilt fresh each run, usually
// from facts loaded back out of the store, and is not safe for
// concurrent mutation.
package graph

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/factfeed/factfeed/pkg/common"
)

// NodeKind discriminates node types. Companies are the only kind today.
type NodeKind string

const NodeCompany NodeKind = "company"

// EdgeKind discriminates edge types.
type EdgeKind string

const (
	// EdgeInvestedIn is a primary edge, one per admitted investment fact.
	EdgeInvestedIn EdgeKind = "invested_in"
	// EdgeCoInvestedWith is derived from two or more primary edges that
	// share an investee. Undirected; endpoints are stored canonically.
	EdgeCoInvestedWith EdgeKind = "co_invested_with"
)

// Node is a materialized company inside the graph.
type Node struct {
	ID    string            `json:"id"`
	Kind  NodeKind          `json:"kind"`
	Name  string            `json:"name"`
	Attrs map[string]string `json:"attrs"`
}

// EdgeAttrs carries the typed payload of an edge. Primary and derived
// edges use disjoint subsets of the fields.
type EdgeAttrs struct {
	AmountMUSD float64      `json:"amount_m_usd,omitempty"`
	Stage      common.Stage `json:"stage,omitempty"`
	Date       string       `json:"date,omitempty"`

	SharedInvestees []string `json:"shared_investees,omitempty"`
	SharedCount     int      `json:"shared_count,omitempty"`
}

// Edge is a typed relationship between two nodes, with full provenance.
type Edge struct {
	ID          string              `json:"id"`
	Kind        EdgeKind            `json:"kind"`
	Src         string              `json:"src"`
	Dst         string              `json:"dst"`
	Attrs       EdgeAttrs           `json:"attrs"`
	Sources     []common.FactSource `json:"sources"`
	DerivedFrom []string            `json:"derived_from,omitempty"`
}

// mergeSources set-unions new provenance into the edge. Sources already
// present (by identity tuple) are kept untouched; nothing is ever
// removed. A limit of 0 means unbounded.
func (e *Edge) mergeSources(add []common.FactSource, limit int) {
	seen := make(map[string]struct{}, len(e.Sources))
	for _, s := range e.Sources {
		seen[s.Key()] = struct{}{}
	}
	for _, s := range add {
		if limit > 0 && len(e.Sources) >= limit {
			return
		}
		if _, ok := seen[s.Key()]; ok {
			continue
		}
		seen[s.Key()] = struct{}{}
		e.Sources = append(e.Sources, s)
	}
}

// mergeDerivedFrom set-unions underlying primary edge IDs.
func (e *Edge) mergeDerivedFrom(ids []string) {
	seen := make(map[string]struct{}, len(e.DerivedFrom))
	for _, id := range e.DerivedFrom {
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		e.DerivedFrom = append(e.DerivedFrom, id)
	}
}

// addSharedInvestee appends the investee to the shared list and bumps
// the count, but only when it is not already counted. This is what makes
// repeated derivation passes idempotent.
func (e *Edge) addSharedInvestee(name string) bool {
	for _, existing := range e.Attrs.SharedInvestees {
		if existing == name {
			return false
		}
	}
	e.Attrs.SharedInvestees = append(e.Attrs.SharedInvestees, name)
	e.Attrs.SharedCount++
	return true
}

// Graph is a small in-memory property graph with provenance. Iteration
// helpers and exports walk nodes and edges in insertion order, so output
// is stable for identical input.
type Graph struct {
	nodes map[string]*Node
	edges map[string]*Edge

	nodeOrder []string
	edgeOrder []string

	companyKeyToNodeID map[string]string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:              make(map[string]*Node),
		edges:              make(map[string]*Edge),
		companyKeyToNodeID: make(map[string]string),
	}
}

func companyNodeID(key string) string {
	sum := sha1.Sum([]byte(key))
	return "company:" + hex.EncodeToString(sum[:])[:12]
}

// UpsertCompany returns the node ID for the company, creating the node
// on first reference. Lookup is by normalized name; attributes from
// later observations of an existing company are not merged in.
func (g *Graph) UpsertCompany(c common.Company) (string, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return "", fmt.Errorf("company name required")
	}

	key := common.NormalizeName(name)
	if existing, ok := g.companyKeyToNodeID[key]; ok {
		return existing, nil
	}

	attrs := make(map[string]string)
	if c.Sector != "" {
		attrs["sector"] = c.Sector
	}
	if c.Website != "" {
		attrs["website"] = c.Website
	}

	nodeID := companyNodeID(key)
	g.nodes[nodeID] = &Node{ID: nodeID, Kind: NodeCompany, Name: name, Attrs: attrs}
	g.nodeOrder = append(g.nodeOrder, nodeID)
	g.companyKeyToNodeID[key] = nodeID
	return nodeID, nil
}

func investmentEdgeID(investorID, investeeID string, inv common.Investment) string {
	dateISO := ""
	if !inv.Date.IsZero() {
		dateISO = inv.Date.Format(time.RFC3339)
	}
	fp := strings.Join([]string{
		string(EdgeInvestedIn),
		investorID,
		investeeID,
		fmt.Sprintf("%g", inv.Amount),
		string(inv.Stage),
		dateISO,
	}, "|")
	sum := sha1.Sum([]byte(fp))
	return "edge:" + hex.EncodeToString(sum[:])[:16]
}

// AddInvestment upserts both endpoint companies and materializes the
// fact as a primary edge. Re-adding a fact that resolves to an existing
// edge merges its sources; provenance accumulates, it is never
// overwritten. Returns the edge ID either way.
func (g *Graph) AddInvestment(inv common.Investment) (string, error) {
	investorID, err := g.UpsertCompany(inv.Investor)
	if err != nil {
		return "", fmt.Errorf("invalid investor: %w", err)
	}
	investeeID, err := g.UpsertCompany(inv.Investee)
	if err != nil {
		return "", fmt.Errorf("invalid investee: %w", err)
	}

	edgeID := investmentEdgeID(investorID, investeeID, inv)

	if existing, ok := g.edges[edgeID]; ok {
		existing.mergeSources(inv.Sources, 0)
		return edgeID, nil
	}

	dateISO := ""
	if !inv.Date.IsZero() {
		dateISO = inv.Date.Format(time.RFC3339)
	}

	g.edges[edgeID] = &Edge{
		ID:   edgeID,
		Kind: EdgeInvestedIn,
		Src:  investorID,
		Dst:  investeeID,
		Attrs: EdgeAttrs{
			AmountMUSD: inv.Amount,
			Stage:      inv.Stage,
			Date:       dateISO,
		},
		Sources: append([]common.FactSource(nil), inv.Sources...),
	}
	g.edgeOrder = append(g.edgeOrder, edgeID)
	return edgeID, nil
}

// BuildFromInvestments adds facts in order, skipping entries without
// company names. Order of the input does not affect the final graph
// content, only intermediate return values.
func (g *Graph) BuildFromInvestments(investments []common.Investment) *Graph {
	for _, inv := range investments {
		if _, err := g.AddInvestment(inv); err != nil {
			continue
		}
	}
	return g
}

// Node returns the node by ID, or nil.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges of the given kind.
func (g *Graph) EdgeCount(kind EdgeKind) int {
	n := 0
	for _, id := range g.edgeOrder {
		if g.edges[id].Kind == kind {
			n++
		}
	}
	return n
}

func (g *Graph) nodeIDFor(companyName string) (string, bool) {
	id, ok := g.companyKeyToNodeID[common.NormalizeName(companyName)]
	return id, ok
}

// InvestmentsFor returns every primary edge touching the named company,
// as investor or investee. Unknown names yield an empty slice.
func (g *Graph) InvestmentsFor(companyName string) []*Edge {
	nodeID, ok := g.nodeIDFor(companyName)
	if !ok {
		return nil
	}
	var out []*Edge
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		if e.Kind != EdgeInvestedIn {
			continue
		}
		if e.Src == nodeID || e.Dst == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// Neighbor pairs a neighboring company's name with the connecting edge.
type Neighbor struct {
	Name string
	Edge *Edge
}

// InvestorsOf returns the companies that invested into the named
// company. Unknown names yield an empty slice.
func (g *Graph) InvestorsOf(companyName string) []Neighbor {
	nodeID, ok := g.nodeIDFor(companyName)
	if !ok {
		return nil
	}
	var out []Neighbor
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		if e.Kind != EdgeInvestedIn || e.Dst != nodeID {
			continue
		}
		if investor := g.nodes[e.Src]; investor != nil {
			out = append(out, Neighbor{Name: investor.Name, Edge: e})
		}
	}
	return out
}

// PortfolioOf returns the companies the named investor put money into.
// Unknown names yield an empty slice.
func (g *Graph) PortfolioOf(investorName string) []Neighbor {
	nodeID, ok := g.nodeIDFor(investorName)
	if !ok {
		return nil
	}
	var out []Neighbor
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		if e.Kind != EdgeInvestedIn || e.Src != nodeID {
			continue
		}
		if investee := g.nodes[e.Dst]; investee != nil {
			out = append(out, Neighbor{Name: investee.Name, Edge: e})
		}
	}
	return out
}
