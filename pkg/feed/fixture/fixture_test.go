package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const investmentsFixture = `[
  {
    "investor": {"name": "Acme Ventures", "sector": "VC Firm"},
    "investee": {"name": "DeepThink AI", "sector": "AI"},
    "amount_m_usd": 40,
    "stage": "Series B",
    "date": "2026-07-01T00:00:00Z",
    "sources": [
      {"source_name": "TechCrunch", "url": "https://example.com/article"}
    ],
    "confidence": 0.9
  }
]`

const eventsFixture = `[
  {
    "name": "AI Infra Summit",
    "event_type": "Conference",
    "date": "2026-10-01T09:00:00Z",
    "topics": ["LLM"],
    "sources": [
      {"source_name": "Organizer site", "url": "https://example.com/summit"}
    ],
    "confidence": 0.8
  }
]`

func TestFetchFromFixtureDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "investments.json"), []byte(investmentsFixture), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "events.json"), []byte(eventsFixture), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src := New(dir)
	ctx := context.Background()

	investments, err := src.FetchInvestments(ctx, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(investments) != 1 {
		t.Fatalf("got %d investments, want 1", len(investments))
	}
	if investments[0].Investee.Name != "DeepThink AI" || investments[0].Amount != 40 {
		t.Fatalf("decoded investment = %+v", investments[0])
	}

	events, err := src.FetchEvents(ctx, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Name != "AI Infra Summit" {
		t.Fatalf("decoded event = %+v", events[0])
	}
}

func TestMissingFilesYieldEmpty(t *testing.T) {
	t.Parallel()

	src := New(t.TempDir())
	ctx := context.Background()

	investments, err := src.FetchInvestments(ctx, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(investments) != 0 {
		t.Fatalf("got %d investments from empty dir", len(investments))
	}

	events, err := src.FetchEvents(ctx, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("got %d events from empty dir", len(events))
	}
}

func TestMalformedFixtureErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "investments.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := New(dir).FetchInvestments(context.Background(), 30); err == nil {
		t.Fatal("expected error for malformed fixture")
	}
}
