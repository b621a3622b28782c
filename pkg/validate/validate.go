// Package validate decides whether a scraped claim is admissible.
//
// Principle: if a claim cannot be backed by a source plus a URL or an
// evidence quote, it does not enter the graph or the store. Validation
// is rules-first and deterministic; it reports reasons, it never errors.
package validate

import (
	"strings"
	"time"

	"github.com/factfeed/factfeed/pkg/common"
)

// Result is the outcome of validating one candidate fact. Reasons lists
// every failed rule, not just the first, so batch ingestion can report an
// exhaustive diagnosis per rejected item.
type Result struct {
	OK      bool
	Reasons []string
}

// Config carries the validation thresholds. Zero values fall back to the
// defaults used in production.
type Config struct {
	// MaxFutureSkew is how far an investment date may sit past "now"
	// before it is considered fabricated. Covers clock skew between us
	// and the publishing feed.
	MaxFutureSkew time.Duration

	// MaxPastGrace is how long after its date an event is still worth
	// admitting. Events further in the past are stale.
	MaxPastGrace time.Duration

	// Keywords is matched against the combined event name+description.
	Keywords []string

	// TopicKeywords is matched against the event topic tags.
	TopicKeywords []string
}

var defaultKeywords = []string{
	"ai",
	"artificial intelligence",
	"machine learning",
	"ml",
	"deep learning",
	"llm",
	"large language model",
	"generative ai",
	"genai",
	"gpt",
	"agents",
	"agentic",
}

var defaultTopicKeywords = []string{
	"ai",
	"genai",
	"llm",
	"nlp",
	"computer vision",
	"robotics",
	"ai safety",
}

// Validator applies the grounding rules. It holds no mutable state and
// is safe for concurrent use.
type Validator struct {
	cfg Config
}

// New creates a Validator, filling unset Config fields with defaults.
func New(cfg Config) *Validator {
	if cfg.MaxFutureSkew == 0 {
		cfg.MaxFutureSkew = 2 * 24 * time.Hour
	}
	if cfg.MaxPastGrace == 0 {
		cfg.MaxPastGrace = 3 * 24 * time.Hour
	}
	if cfg.Keywords == nil {
		cfg.Keywords = defaultKeywords
	}
	if cfg.TopicKeywords == nil {
		cfg.TopicKeywords = defaultTopicKeywords
	}
	return &Validator{cfg: cfg}
}

// Default returns a Validator with production thresholds.
func Default() *Validator {
	return New(Config{})
}

// ValidateInvestment checks a candidate investment fact against "now".
func (v *Validator) ValidateInvestment(inv common.Investment, now time.Time) Result {
	var reasons []string

	if strings.TrimSpace(inv.Investee.Name) == "" {
		reasons = append(reasons, "missing investee name")
	}
	if strings.TrimSpace(inv.Investor.Name) == "" {
		reasons = append(reasons, "missing investor name")
	}

	if inv.Amount <= 0 {
		reasons = append(reasons, "amount must be > 0")
	}

	if inv.Date.IsZero() {
		reasons = append(reasons, "missing date")
	} else if inv.Date.After(now.Add(v.cfg.MaxFutureSkew)) {
		reasons = append(reasons, "date is in the future")
	}

	if !common.HasGrounding(inv.Sources) {
		reasons = append(reasons, "missing grounding (source url or evidence quote)")
	}

	if inv.Confidence < 0 || inv.Confidence > 1 {
		reasons = append(reasons, "confidence must be within [0,1]")
	}

	return Result{OK: len(reasons) == 0, Reasons: reasons}
}

// ValidateEvent checks a candidate event fact against "now". Future
// dates are unrestricted since events are forward-looking.
func (v *Validator) ValidateEvent(e common.Event, now time.Time) Result {
	var reasons []string

	if strings.TrimSpace(e.Name) == "" {
		reasons = append(reasons, "missing event name")
	}

	if !v.looksAIRelated(e) {
		reasons = append(reasons, "event does not appear AI-related")
	}

	if e.Date.IsZero() {
		reasons = append(reasons, "missing event date")
	} else if e.Date.Before(now.Add(-v.cfg.MaxPastGrace)) {
		reasons = append(reasons, "event date is in the past")
	}

	if !common.HasGrounding(e.Sources) {
		reasons = append(reasons, "missing grounding (source url or evidence quote)")
	}

	if e.Confidence < 0 || e.Confidence > 1 {
		reasons = append(reasons, "confidence must be within [0,1]")
	}

	return Result{OK: len(reasons) == 0, Reasons: reasons}
}

func (v *Validator) looksAIRelated(e common.Event) bool {
	combined := strings.ToLower(e.Name + " " + e.Description)
	for _, k := range v.cfg.Keywords {
		if strings.Contains(combined, k) {
			return true
		}
	}
	topics := strings.ToLower(strings.Join(e.Topics, " "))
	for _, k := range v.cfg.TopicKeywords {
		if strings.Contains(topics, k) {
			return true
		}
	}
	return false
}

// RejectedInvestment pairs a rejected candidate with its diagnosis.
type RejectedInvestment struct {
	Investment common.Investment
	Result     Result
}

// RejectedEvent pairs a rejected candidate with its diagnosis.
type RejectedEvent struct {
	Event  common.Event
	Result Result
}

// FilterInvestments splits candidates into accepted facts and rejected
// ones with reasons, preserving input order.
func (v *Validator) FilterInvestments(candidates []common.Investment, now time.Time) ([]common.Investment, []RejectedInvestment) {
	var valid []common.Investment
	var invalid []RejectedInvestment
	for _, inv := range candidates {
		res := v.ValidateInvestment(inv, now)
		if res.OK {
			valid = append(valid, inv)
		} else {
			invalid = append(invalid, RejectedInvestment{Investment: inv, Result: res})
		}
	}
	return valid, invalid
}

// FilterEvents splits candidates into accepted facts and rejected ones
// with reasons, preserving input order.
func (v *Validator) FilterEvents(candidates []common.Event, now time.Time) ([]common.Event, []RejectedEvent) {
	var valid []common.Event
	var invalid []RejectedEvent
	for _, e := range candidates {
		res := v.ValidateEvent(e, now)
		if res.OK {
			valid = append(valid, e)
		} else {
			invalid = append(invalid, RejectedEvent{Event: e, Result: res})
		}
	}
	return valid, invalid
}
