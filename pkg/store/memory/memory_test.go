package memory

import (
	"context"
	"testing"
	"time"

	"github.com/factfeed/factfeed/pkg/common"
)

var testNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func testStore() *FactMemoryStorage {
	s := NewFactMemoryStorage()
	s.now = func() time.Time { return testNow }
	return s
}

func testInvestment(investor, investee string, daysAgo int) common.Investment {
	return common.Investment{
		Investor: common.Company{Name: investor},
		Investee: common.Company{Name: investee},
		Amount:   40,
		Stage:    common.StageSeriesA,
		Date:     testNow.AddDate(0, 0, -daysAgo),
		Sources: []common.FactSource{{
			SourceName: "TechCrunch",
			URL:        "https://example.com/article",
		}},
		Confidence: 0.9,
	}
}

func testEvent(name string, daysAhead int) common.Event {
	return common.Event{
		Name:      name,
		EventType: "Conference",
		Date:      testNow.AddDate(0, 0, daysAhead),
		URL:       "https://example.com/" + common.NormalizeName(name),
		Sources: []common.FactSource{{
			SourceName: "Organizer site",
			URL:        "https://example.com/" + common.NormalizeName(name),
		}},
		Confidence: 0.8,
	}
}

func TestUpsertInvestmentsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := testStore()
	inv := testInvestment("Acme Ventures", "DeepThink AI", 3)

	stats, err := s.UpsertInvestments(ctx, []common.Investment{inv})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FactsInserted != 1 || stats.SourcesInserted != 1 {
		t.Fatalf("first upsert stats = %+v", stats)
	}

	// Same fact again: nothing genuinely new.
	stats, err = s.UpsertInvestments(ctx, []common.Investment{inv})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FactsInserted != 0 || stats.SourcesInserted != 0 {
		t.Fatalf("replay stats = %+v", stats)
	}

	loaded, err := s.LoadInvestments(ctx, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d facts, want 1", len(loaded))
	}
	if len(loaded[0].Sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(loaded[0].Sources))
	}
}

func TestUpsertAddsNewSourcesToExistingFact(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := testStore()
	inv := testInvestment("Acme Ventures", "DeepThink AI", 3)

	if _, err := s.UpsertInvestments(ctx, []common.Investment{inv}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same fact reported by a second outlet: the fact row stays, the new
	// source attaches.
	second := inv
	second.Sources = []common.FactSource{{
		SourceName: "VentureBeat",
		URL:        "https://example.com/other",
	}}
	stats, err := s.UpsertInvestments(ctx, []common.Investment{second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FactsInserted != 0 || stats.SourcesInserted != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	loaded, err := s.LoadInvestments(ctx, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d facts, want 1", len(loaded))
	}
	if len(loaded[0].Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(loaded[0].Sources))
	}
}

func TestLoadInvestmentsWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := testStore()

	recent := testInvestment("Acme Ventures", "DeepThink AI", 5)
	old := testInvestment("Beta Capital", "VisionWorks", 60)
	if _, err := s.UpsertInvestments(ctx, []common.Investment{old, recent}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := s.LoadInvestments(ctx, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d facts, want 1", len(loaded))
	}
	if loaded[0].Investee.Name != "DeepThink AI" {
		t.Fatalf("window kept %q", loaded[0].Investee.Name)
	}

	// A wider window includes both, most recent first.
	loaded, err = s.LoadInvestments(ctx, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d facts, want 2", len(loaded))
	}
	if loaded[0].Investee.Name != "DeepThink AI" {
		t.Fatal("not sorted most recent first")
	}
}

func TestLoadEventsWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := testStore()

	soon := testEvent("AI Infra Summit", 10)
	far := testEvent("LLM World Congress", 200)
	if _, err := s.UpsertEvents(ctx, []common.Event{far, soon}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := s.LoadEvents(ctx, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d events, want 1", len(loaded))
	}
	if loaded[0].Name != "AI Infra Summit" {
		t.Fatalf("window kept %q", loaded[0].Name)
	}

	loaded, err = s.LoadEvents(ctx, 365)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d events, want 2", len(loaded))
	}
	if loaded[0].Name != "AI Infra Summit" {
		t.Fatal("not sorted soonest first")
	}
}

func TestUpsertEventsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := testStore()
	e := testEvent("AI Infra Summit", 10)

	for range 3 {
		if _, err := s.UpsertEvents(ctx, []common.Event{e}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	loaded, err := s.LoadEvents(ctx, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d events, want 1", len(loaded))
	}
	if len(loaded[0].Sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(loaded[0].Sources))
	}
}

func TestDescriptionChangeDoesNotDuplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := testStore()

	inv := testInvestment("Acme Ventures", "DeepThink AI", 3)
	if _, err := s.UpsertInvestments(ctx, []common.Investment{inv}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A later scrape with different wording is the same fact; the first
	// observed content wins.
	reworded := inv
	reworded.Details = "completely different details"
	reworded.Confidence = 0.5
	stats, err := s.UpsertInvestments(ctx, []common.Investment{reworded})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FactsInserted != 0 {
		t.Fatalf("reworded fact inserted again: %+v", stats)
	}

	loaded, err := s.LoadInvestments(ctx, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d facts, want 1", len(loaded))
	}
	if loaded[0].Confidence != 0.9 {
		t.Fatalf("existing row overwritten, confidence = %v", loaded[0].Confidence)
	}
}
