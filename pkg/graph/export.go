package graph

import (
	"fmt"
	"strings"

	"github.com/factfeed/factfeed/pkg/common"
)

// Document is the structured export of a graph. Nodes and edges appear
// in insertion order, so serializing the same graph state twice yields
// identical bytes.
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Export snapshots the graph into a Document. The snapshot owns its own
// slices; mutating the graph afterwards does not affect it.
func (g *Graph) Export() Document {
	doc := Document{
		Nodes: make([]Node, 0, len(g.nodeOrder)),
		Edges: make([]Edge, 0, len(g.edgeOrder)),
	}
	for _, id := range g.nodeOrder {
		n := *g.nodes[id]
		attrs := make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			attrs[k] = v
		}
		n.Attrs = attrs
		doc.Nodes = append(doc.Nodes, n)
	}
	for _, id := range g.edgeOrder {
		e := *g.edges[id]
		e.Sources = append([]common.FactSource(nil), e.Sources...)
		e.DerivedFrom = append([]string(nil), e.DerivedFrom...)
		e.Attrs.SharedInvestees = append([]string(nil), e.Attrs.SharedInvestees...)
		doc.Edges = append(doc.Edges, e)
	}
	return doc
}

// DOT renders the graph as a Graphviz digraph for quick visualization.
// Output is deterministic for identical graph state.
func (g *Graph) DOT() string {
	lines := []string{
		"digraph factfeed_kg {",
		"  rankdir=LR;",
		"  node [shape=box];",
	}

	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		safeName := strings.ReplaceAll(n.Name, `"`, "'")
		lines = append(lines, fmt.Sprintf("  %q [label=%q];", n.ID, safeName))
	}

	for _, id := range g.edgeOrder {
		e := g.edges[id]
		label := string(e.Kind)
		if e.Kind == EdgeInvestedIn && e.Attrs.AmountMUSD > 0 {
			label = fmt.Sprintf("%s ($%.1fM)", label, e.Attrs.AmountMUSD)
		}
		lines = append(lines, fmt.Sprintf("  %q -> %q [label=%q];", e.Src, e.Dst, label))
	}

	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}
