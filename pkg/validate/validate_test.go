package validate

import (
	"slices"
	"testing"
	"time"

	"github.com/factfeed/factfeed/pkg/common"
)

var testNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func groundedSource() []common.FactSource {
	return []common.FactSource{{
		SourceName: "TechCrunch",
		URL:        "https://example.com/article",
	}}
}

func validInvestment() common.Investment {
	return common.Investment{
		Investor:   common.Company{Name: "Acme Ventures"},
		Investee:   common.Company{Name: "DeepThink AI"},
		Amount:     40,
		Stage:      common.StageSeriesB,
		Date:       testNow.AddDate(0, 0, -3),
		Sources:    groundedSource(),
		Confidence: 0.9,
	}
}

func validEvent() common.Event {
	return common.Event{
		Name:       "AI Infra Summit",
		EventType:  "Conference",
		Date:       testNow.AddDate(0, 0, 30),
		Topics:     []string{"LLM", "Robotics"},
		Sources:    groundedSource(),
		Confidence: 0.8,
	}
}

func TestValidateInvestment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*common.Investment)
		wantOK      bool
		wantReasons []string
	}{
		{
			name:   "valid_passes",
			mutate: func(inv *common.Investment) {},
			wantOK: true,
		},
		{
			name:        "missing_investee_name",
			mutate:      func(inv *common.Investment) { inv.Investee.Name = "  " },
			wantReasons: []string{"missing investee name"},
		},
		{
			name:        "missing_investor_name",
			mutate:      func(inv *common.Investment) { inv.Investor.Name = "" },
			wantReasons: []string{"missing investor name"},
		},
		{
			name:        "zero_amount",
			mutate:      func(inv *common.Investment) { inv.Amount = 0 },
			wantReasons: []string{"amount must be > 0"},
		},
		{
			name:        "negative_amount",
			mutate:      func(inv *common.Investment) { inv.Amount = -5 },
			wantReasons: []string{"amount must be > 0"},
		},
		{
			name:        "missing_date",
			mutate:      func(inv *common.Investment) { inv.Date = time.Time{} },
			wantReasons: []string{"missing date"},
		},
		{
			name:        "future_date_beyond_skew",
			mutate:      func(inv *common.Investment) { inv.Date = testNow.AddDate(0, 0, 3) },
			wantReasons: []string{"date is in the future"},
		},
		{
			name:   "future_date_within_skew_passes",
			mutate: func(inv *common.Investment) { inv.Date = testNow.Add(36 * time.Hour) },
			wantOK: true,
		},
		{
			name:        "no_sources",
			mutate:      func(inv *common.Investment) { inv.Sources = nil },
			wantReasons: []string{"missing grounding (source url or evidence quote)"},
		},
		{
			name: "source_without_url_or_quote",
			mutate: func(inv *common.Investment) {
				inv.Sources = []common.FactSource{{SourceName: "TechCrunch"}}
			},
			wantReasons: []string{"missing grounding (source url or evidence quote)"},
		},
		{
			name: "quote_alone_grounds",
			mutate: func(inv *common.Investment) {
				inv.Sources = []common.FactSource{{SourceName: "TechCrunch", EvidenceQuote: "raised $40M"}}
			},
			wantOK: true,
		},
		{
			name:        "confidence_above_one",
			mutate:      func(inv *common.Investment) { inv.Confidence = 1.2 },
			wantReasons: []string{"confidence must be within [0,1]"},
		},
		{
			name:        "confidence_below_zero",
			mutate:      func(inv *common.Investment) { inv.Confidence = -0.1 },
			wantReasons: []string{"confidence must be within [0,1]"},
		},
		{
			name: "all_reasons_accumulate",
			mutate: func(inv *common.Investment) {
				inv.Investee.Name = ""
				inv.Amount = 0
				inv.Sources = nil
			},
			wantReasons: []string{
				"missing investee name",
				"amount must be > 0",
				"missing grounding (source url or evidence quote)",
			},
		},
	}

	v := Default()
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			inv := validInvestment()
			tc.mutate(&inv)
			res := v.ValidateInvestment(inv, testNow)

			if tc.wantOK {
				if !res.OK {
					t.Fatalf("expected valid, got reasons %v", res.Reasons)
				}
				return
			}
			if res.OK {
				t.Fatal("expected rejection, got OK")
			}
			for _, want := range tc.wantReasons {
				if !slices.Contains(res.Reasons, want) {
					t.Fatalf("reasons %v missing %q", res.Reasons, want)
				}
			}
		})
	}
}

func TestValidateEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*common.Event)
		wantOK      bool
		wantReasons []string
	}{
		{
			name:   "valid_passes",
			mutate: func(e *common.Event) {},
			wantOK: true,
		},
		{
			name:        "missing_name",
			mutate:      func(e *common.Event) { e.Name = "" },
			wantReasons: []string{"missing event name"},
		},
		{
			name: "not_ai_related",
			mutate: func(e *common.Event) {
				e.Name = "Regional Pottery Expo"
				e.Topics = []string{"ceramics"}
			},
			wantReasons: []string{"event does not appear AI-related"},
		},
		{
			name: "topic_match_passes",
			mutate: func(e *common.Event) {
				e.Name = "Autumn Builders Meetup"
				e.Topics = []string{"computer vision"}
			},
			wantOK: true,
		},
		{
			name: "description_match_passes",
			mutate: func(e *common.Event) {
				e.Name = "Autumn Builders Meetup"
				e.Topics = nil
				e.Description = "Talks on machine learning systems"
			},
			wantOK: true,
		},
		{
			name:        "missing_date",
			mutate:      func(e *common.Event) { e.Date = time.Time{} },
			wantReasons: []string{"missing event date"},
		},
		{
			name:        "past_beyond_grace",
			mutate:      func(e *common.Event) { e.Date = testNow.AddDate(0, 0, -4) },
			wantReasons: []string{"event date is in the past"},
		},
		{
			name:   "past_within_grace_passes",
			mutate: func(e *common.Event) { e.Date = testNow.AddDate(0, 0, -2) },
			wantOK: true,
		},
		{
			name:   "far_future_passes",
			mutate: func(e *common.Event) { e.Date = testNow.AddDate(1, 0, 0) },
			wantOK: true,
		},
		{
			name:        "no_grounding",
			mutate:      func(e *common.Event) { e.Sources = nil },
			wantReasons: []string{"missing grounding (source url or evidence quote)"},
		},
		{
			name:        "confidence_out_of_range",
			mutate:      func(e *common.Event) { e.Confidence = 2 },
			wantReasons: []string{"confidence must be within [0,1]"},
		},
	}

	v := Default()
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			e := validEvent()
			tc.mutate(&e)
			res := v.ValidateEvent(e, testNow)

			if tc.wantOK {
				if !res.OK {
					t.Fatalf("expected valid, got reasons %v", res.Reasons)
				}
				return
			}
			if res.OK {
				t.Fatal("expected rejection, got OK")
			}
			for _, want := range tc.wantReasons {
				if !slices.Contains(res.Reasons, want) {
					t.Fatalf("reasons %v missing %q", res.Reasons, want)
				}
			}
		})
	}
}

func TestFilterInvestmentsPreservesOrder(t *testing.T) {
	t.Parallel()

	good1 := validInvestment()
	good1.Investee.Name = "First AI"
	bad := validInvestment()
	bad.Sources = nil
	good2 := validInvestment()
	good2.Investee.Name = "Second AI"

	valid, invalid := Default().FilterInvestments([]common.Investment{good1, bad, good2}, testNow)

	if len(valid) != 2 || len(invalid) != 1 {
		t.Fatalf("got %d valid, %d invalid", len(valid), len(invalid))
	}
	if valid[0].Investee.Name != "First AI" || valid[1].Investee.Name != "Second AI" {
		t.Fatalf("order not preserved: %v", valid)
	}
	if len(invalid[0].Result.Reasons) == 0 {
		t.Fatal("rejected item has no reasons")
	}
}

func TestFilterEvents(t *testing.T) {
	t.Parallel()

	good := validEvent()
	stale := validEvent()
	stale.Date = testNow.AddDate(0, -2, 0)

	valid, invalid := Default().FilterEvents([]common.Event{good, stale}, testNow)

	if len(valid) != 1 || len(invalid) != 1 {
		t.Fatalf("got %d valid, %d invalid", len(valid), len(invalid))
	}
	if !slices.Contains(invalid[0].Result.Reasons, "event date is in the past") {
		t.Fatalf("unexpected reasons %v", invalid[0].Result.Reasons)
	}
}
