package graph

import (
	"strings"
	"testing"
	"time"

	"github.com/factfeed/factfeed/pkg/common"
)

var testDate = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

func investment(investor, investee string, amount float64) common.Investment {
	return common.Investment{
		Investor: common.Company{Name: investor, Sector: "VC Firm"},
		Investee: common.Company{Name: investee, Sector: "AI"},
		Amount:   amount,
		Stage:    common.StageSeriesA,
		Date:     testDate,
		Sources: []common.FactSource{{
			SourceName: "TechCrunch",
			URL:        "https://example.com/" + common.NormalizeName(investor) + "-" + common.NormalizeName(investee),
		}},
		Confidence: 0.9,
	}
}

func TestUpsertCompany(t *testing.T) {
	t.Parallel()

	g := New()

	id1, err := g.UpsertCompany(common.Company{Name: "DeepThink AI", Sector: "AI"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(id1, "company:") {
		t.Fatalf("id %q missing prefix", id1)
	}

	// Same normalized name maps to the same node.
	id2, err := g.UpsertCompany(common.Company{Name: "  deepthink   ai "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("got distinct ids %q and %q for the same company", id1, id2)
	}
	if g.NodeCount() != 1 {
		t.Fatalf("got %d nodes, want 1", g.NodeCount())
	}

	if _, err := g.UpsertCompany(common.Company{Name: "   "}); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestAddInvestmentMergesSources(t *testing.T) {
	t.Parallel()

	g := New()
	inv := investment("Acme Ventures", "DeepThink AI", 40)

	id1, err := g.AddInvestment(inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The same fact from a second outlet merges provenance on the edge.
	again := inv
	again.Sources = []common.FactSource{{
		SourceName: "VentureBeat",
		URL:        "https://example.com/other",
	}}
	id2, err := g.AddInvestment(again)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("same fact produced distinct edges %q and %q", id1, id2)
	}
	if g.EdgeCount(EdgeInvestedIn) != 1 {
		t.Fatalf("got %d primary edges, want 1", g.EdgeCount(EdgeInvestedIn))
	}

	edge := g.edges[id1]
	if len(edge.Sources) != 2 {
		t.Fatalf("got %d sources on edge, want 2", len(edge.Sources))
	}

	// Replaying the exact same fact changes nothing.
	if _, err := g.AddInvestment(inv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edge.Sources) != 2 {
		t.Fatalf("replay grew sources to %d", len(edge.Sources))
	}
}

func TestCoInvestmentScenario(t *testing.T) {
	t.Parallel()

	// Two investors back the same company: three nodes, two primary
	// edges, one derived edge connecting the investors.
	g := New().BuildFromInvestments([]common.Investment{
		investment("Acme Ventures", "DeepThink AI", 40),
		investment("Beta Capital", "DeepThink AI", 25),
	})

	created := g.DeriveCoInvestments(DeriveConfig{})
	if created != 1 {
		t.Fatalf("got %d derived edges, want 1", created)
	}
	if g.NodeCount() != 3 {
		t.Fatalf("got %d nodes, want 3", g.NodeCount())
	}
	if g.EdgeCount(EdgeInvestedIn) != 2 {
		t.Fatalf("got %d primary edges, want 2", g.EdgeCount(EdgeInvestedIn))
	}
	if g.EdgeCount(EdgeCoInvestedWith) != 1 {
		t.Fatalf("got %d derived edges, want 1", g.EdgeCount(EdgeCoInvestedWith))
	}

	pairs := g.TopCoInvestorPairs(10)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	pair := pairs[0]
	if pair.Edge.Attrs.SharedCount != 1 {
		t.Fatalf("shared_count = %d, want 1", pair.Edge.Attrs.SharedCount)
	}
	if len(pair.Edge.Attrs.SharedInvestees) != 1 || pair.Edge.Attrs.SharedInvestees[0] != "DeepThink AI" {
		t.Fatalf("shared_investees = %v", pair.Edge.Attrs.SharedInvestees)
	}
	if len(pair.Edge.DerivedFrom) != 2 {
		t.Fatalf("derived_from has %d entries, want 2", len(pair.Edge.DerivedFrom))
	}
	if len(pair.Edge.Sources) != 2 {
		t.Fatalf("derived edge carries %d sources, want 2", len(pair.Edge.Sources))
	}
}

func TestDeriveCoInvestmentsIdempotent(t *testing.T) {
	t.Parallel()

	g := New().BuildFromInvestments([]common.Investment{
		investment("Acme Ventures", "DeepThink AI", 40),
		investment("Beta Capital", "DeepThink AI", 25),
	})

	if created := g.DeriveCoInvestments(DeriveConfig{}); created != 1 {
		t.Fatalf("first pass created %d edges, want 1", created)
	}
	if created := g.DeriveCoInvestments(DeriveConfig{}); created != 0 {
		t.Fatalf("second pass created %d edges, want 0", created)
	}

	pairs := g.TopCoInvestorPairs(10)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if got := pairs[0].Edge.Attrs.SharedCount; got != 1 {
		t.Fatalf("shared_count inflated to %d after repeat derivation", got)
	}
}

func TestDeriveCoInvestmentsEmptyGraph(t *testing.T) {
	t.Parallel()

	if created := New().DeriveCoInvestments(DeriveConfig{}); created != 0 {
		t.Fatalf("got %d, want 0", created)
	}
}

func TestDeriveCountsShareAcrossInvestees(t *testing.T) {
	t.Parallel()

	// The same pair backs two companies: one edge, shared_count 2.
	g := New().BuildFromInvestments([]common.Investment{
		investment("Acme Ventures", "DeepThink AI", 40),
		investment("Beta Capital", "DeepThink AI", 25),
		investment("Acme Ventures", "VisionWorks", 10),
		investment("Beta Capital", "VisionWorks", 12),
	})

	if created := g.DeriveCoInvestments(DeriveConfig{}); created != 1 {
		t.Fatalf("created %d edges, want 1", created)
	}
	pairs := g.TopCoInvestorPairs(10)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if got := pairs[0].Edge.Attrs.SharedCount; got != 2 {
		t.Fatalf("shared_count = %d, want 2", got)
	}
}

func TestDerivedSourceCap(t *testing.T) {
	t.Parallel()

	// Many investee overlaps funnel lots of provenance onto the pair
	// edge; the cap keeps it bounded.
	var investments []common.Investment
	for _, investee := range []string{"A Labs", "B Labs", "C Labs", "D Labs", "E Labs"} {
		investments = append(investments,
			investment("Acme Ventures", investee, 10),
			investment("Beta Capital", investee, 10),
		)
	}
	g := New().BuildFromInvestments(investments)
	g.DeriveCoInvestments(DeriveConfig{})

	pairs := g.TopCoInvestorPairs(10)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if got := len(pairs[0].Edge.Sources); got > 4 {
		t.Fatalf("derived edge carries %d sources, cap is 4", got)
	}
}

func TestTopCoInvestorPairsOrdering(t *testing.T) {
	t.Parallel()

	g := New().BuildFromInvestments([]common.Investment{
		// Acme+Beta share two investees, Acme+Gamma share one.
		investment("Acme Ventures", "DeepThink AI", 40),
		investment("Beta Capital", "DeepThink AI", 25),
		investment("Acme Ventures", "VisionWorks", 10),
		investment("Beta Capital", "VisionWorks", 12),
		investment("Acme Ventures", "SpeechCore", 8),
		investment("Gamma Partners", "SpeechCore", 9),
	})
	g.DeriveCoInvestments(DeriveConfig{})

	pairs := g.TopCoInvestorPairs(0)
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(pairs))
	}
	if pairs[0].Edge.Attrs.SharedCount < pairs[1].Edge.Attrs.SharedCount {
		t.Fatal("pairs not sorted by shared_count descending")
	}

	limited := g.TopCoInvestorPairs(1)
	if len(limited) != 1 {
		t.Fatalf("limit ignored, got %d pairs", len(limited))
	}
	if limited[0].Edge.Attrs.SharedCount != 2 {
		t.Fatalf("top pair shared_count = %d, want 2", limited[0].Edge.Attrs.SharedCount)
	}
}

func TestQueriesUnknownName(t *testing.T) {
	t.Parallel()

	g := New().BuildFromInvestments([]common.Investment{
		investment("Acme Ventures", "DeepThink AI", 40),
	})

	if got := g.InvestmentsFor("Nobody Inc"); len(got) != 0 {
		t.Fatalf("got %d edges for unknown name", len(got))
	}
	if got := g.InvestorsOf("Nobody Inc"); len(got) != 0 {
		t.Fatalf("got %d investors for unknown name", len(got))
	}
	if got := g.PortfolioOf("Nobody Inc"); len(got) != 0 {
		t.Fatalf("got %d portfolio entries for unknown name", len(got))
	}
}

func TestNeighborQueries(t *testing.T) {
	t.Parallel()

	g := New().BuildFromInvestments([]common.Investment{
		investment("Acme Ventures", "DeepThink AI", 40),
		investment("Acme Ventures", "VisionWorks", 10),
		investment("Beta Capital", "DeepThink AI", 25),
	})

	investors := g.InvestorsOf("deepthink ai")
	if len(investors) != 2 {
		t.Fatalf("got %d investors, want 2", len(investors))
	}
	if investors[0].Name != "Acme Ventures" || investors[1].Name != "Beta Capital" {
		t.Fatalf("investors = %v", []string{investors[0].Name, investors[1].Name})
	}

	portfolio := g.PortfolioOf("Acme Ventures")
	if len(portfolio) != 2 {
		t.Fatalf("got %d portfolio entries, want 2", len(portfolio))
	}

	touching := g.InvestmentsFor("Acme Ventures")
	if len(touching) != 2 {
		t.Fatalf("got %d edges, want 2", len(touching))
	}
}
