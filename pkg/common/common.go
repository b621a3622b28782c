package common

import (
	"fmt"
	"strings"
	"time"
)

// Stage describes the maturity of a funding round.
type Stage string

const (
	StageSeed        Stage = "Seed"
	StageSeriesA     Stage = "Series A"
	StageSeriesB     Stage = "Series B"
	StageSeriesC     Stage = "Series C"
	StageSeriesDPlus Stage = "Series D+"
	StageAcquisition Stage = "Acquisition"
	StageIPO         Stage = "IPO"
)

// ParseStage maps a stored stage string back onto a known Stage.
// Unknown or empty values degrade to Series A so historical rows stay
// loadable even if upstream formats change.
func ParseStage(s string) Stage {
	switch Stage(s) {
	case StageSeed, StageSeriesA, StageSeriesB, StageSeriesC,
		StageSeriesDPlus, StageAcquisition, StageIPO:
		return Stage(s)
	}
	return StageSeriesA
}

// FactSource is the provenance record for a claim. A claim is grounded
// only when at least one of its sources carries a source name together
// with a URL or a literal evidence quote.
type FactSource struct {
	SourceName    string     `json:"source_name"`
	URL           string     `json:"url,omitempty"`
	RetrievedAt   *time.Time `json:"retrieved_at,omitempty"`
	EvidenceQuote string     `json:"evidence_quote,omitempty"`
}

// Grounds reports whether this single source is sufficient evidence on
// its own.
func (s FactSource) Grounds() bool {
	return s.SourceName != "" && (s.URL != "" || s.EvidenceQuote != "")
}

// Key returns the identity tuple used to dedupe sources wherever they
// are merged or persisted.
func (s FactSource) Key() string {
	return s.SourceName + "|" + s.URL + "|" + s.EvidenceQuote
}

// HasGrounding reports whether any source in the list grounds the claim.
func HasGrounding(sources []FactSource) bool {
	for _, s := range sources {
		if s.Grounds() {
			return true
		}
	}
	return false
}

// MergeSources appends the sources from add that are not already present
// in dst, deduped by the (source name, url, evidence quote) tuple.
// Existing entries are never dropped or reordered.
func MergeSources(dst, add []FactSource) []FactSource {
	seen := make(map[string]struct{}, len(dst))
	for _, s := range dst {
		seen[s.Key()] = struct{}{}
	}
	for _, s := range add {
		if _, ok := seen[s.Key()]; ok {
			continue
		}
		seen[s.Key()] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}

// Company represents an organization in the AI ecosystem. Companies are
// identified by their normalized name only; no fuzzy matching is applied.
type Company struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Sector      string `json:"sector,omitempty"`
	Website     string `json:"website,omitempty"`
	FoundedYear int    `json:"founded_year,omitempty"`
}

// Investment is a relationship fact: investor put Amount (millions USD)
// into investee at a given stage and date. It enters the graph or the
// store only after passing the grounding validator.
type Investment struct {
	Investor    Company      `json:"investor"`
	Investee    Company      `json:"investee"`
	Amount      float64      `json:"amount_m_usd"`
	Stage       Stage        `json:"stage"`
	Date        time.Time    `json:"date"`
	Details     string       `json:"details,omitempty"`
	KeyInsights []string     `json:"key_insights,omitempty"`
	Sources     []FactSource `json:"sources"`
	Confidence  float64      `json:"confidence"`
}

// FormatAmount renders the amount the way it appears in digests.
func (inv Investment) FormatAmount() string {
	if inv.Amount >= 1000 {
		return fmt.Sprintf("$%.1fB", inv.Amount/1000)
	}
	return fmt.Sprintf("$%.1fM", inv.Amount)
}

// Event is a standalone fact: a conference, meetup, workshop, webinar or
// hackathon relevant to the AI space.
type Event struct {
	Name            string       `json:"name"`
	EventType       string       `json:"event_type"`
	Date            time.Time    `json:"date"`
	Location        string       `json:"location,omitempty"`
	Description     string       `json:"description,omitempty"`
	URL             string       `json:"url,omitempty"`
	Organizer       string       `json:"organizer,omitempty"`
	Topics          []string     `json:"topics,omitempty"`
	TargetAudience  string       `json:"target_audience,omitempty"`
	Cost            string       `json:"cost,omitempty"`
	RegistrationURL string       `json:"registration_url,omitempty"`
	Sources         []FactSource `json:"sources"`
	Confidence      float64      `json:"confidence"`
}

// IsUpcoming reports whether the event lies in the future relative to now.
func (e Event) IsUpcoming(now time.Time) bool {
	return e.Date.After(now)
}

// Groundable is the capability shared by both fact kinds so validation
// and reporting can be written once against it.
type Groundable interface {
	FactSources() []FactSource
	FactConfidence() float64
}

func (inv Investment) FactSources() []FactSource { return inv.Sources }
func (inv Investment) FactConfidence() float64   { return inv.Confidence }

func (e Event) FactSources() []FactSource { return e.Sources }
func (e Event) FactConfidence() float64   { return e.Confidence }

// NormalizeName produces the identity key for a company or event name:
// case-folded with runs of whitespace collapsed to single spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
