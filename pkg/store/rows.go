package store

import (
	"encoding/json"
	"time"

	"github.com/factfeed/factfeed/pkg/common"
)

// Row representations shared by every backend. Timestamps travel as
// ISO-8601 text so historical rows written by older formats stay
// loadable; decoding degrades to documented defaults instead of failing.

// InvestmentRow is the persisted shape of an investment fact.
type InvestmentRow struct {
	ID                  string
	InvestorName        string
	InvesteeName        string
	AmountMUSD          float64
	Stage               string
	Date                string
	InvesteeSector      string
	InvesteeDescription string
	InvestorSector      string
	Details             string
	Confidence          float64
	IngestedAt          string
}

// EventRow is the persisted shape of an event fact.
type EventRow struct {
	ID              string
	Name            string
	EventType       string
	Date            string
	Location        string
	Description     string
	URL             string
	Organizer       string
	TopicsJSON      string
	TargetAudience  string
	Cost            string
	RegistrationURL string
	Confidence      float64
	IngestedAt      string
}

// SourceRow is the persisted shape of one provenance record. Missing url
// and evidence quote are stored as empty strings, not NULLs, so the
// uniqueness tuple actually dedupes.
type SourceRow struct {
	ParentType    string
	ParentID      string
	SourceName    string
	URL           string
	RetrievedAt   string
	EvidenceQuote string
}

// Key returns the uniqueness tuple of a source row. RetrievedAt is
// deliberately excluded: re-fetching the same evidence later is not new
// provenance.
func (r SourceRow) Key() string {
	return r.ParentType + "|" + r.ParentID + "|" + r.SourceName + "|" + r.URL + "|" + r.EvidenceQuote
}

// UTCNowISO formats now the way ingested_at is stored.
func UTCNowISO(now time.Time) string {
	return now.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05") + "Z"
}

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ParseStoredTime decodes a stored timestamp, returning fallback for
// empty or malformed input. Historical rows must remain loadable even if
// upstream formats evolved, so this never errors.
func ParseStoredTime(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}

// EncodeInvestment flattens a fact into its row plus source rows.
// ingestedAt is only used when the fact row turns out to be new; an
// existing row keeps its first-ingested timestamp forever.
func EncodeInvestment(inv common.Investment, ingestedAt time.Time) (InvestmentRow, []SourceRow) {
	id := common.InvestmentFactID(inv)
	row := InvestmentRow{
		ID:                  id,
		InvestorName:        inv.Investor.Name,
		InvesteeName:        inv.Investee.Name,
		AmountMUSD:          inv.Amount,
		Stage:               string(inv.Stage),
		Date:                encodeTime(inv.Date),
		InvesteeSector:      inv.Investee.Sector,
		InvesteeDescription: inv.Investee.Description,
		InvestorSector:      inv.Investor.Sector,
		Details:             inv.Details,
		Confidence:          inv.Confidence,
		IngestedAt:          UTCNowISO(ingestedAt),
	}
	return row, encodeSources(ParentInvestment, id, inv.Sources)
}

// EncodeEvent flattens a fact into its row plus source rows.
func EncodeEvent(e common.Event, ingestedAt time.Time) (EventRow, []SourceRow) {
	id := common.EventFactID(e)
	topics := e.Topics
	if topics == nil {
		topics = []string{}
	}
	topicsJSON, _ := json.Marshal(topics)
	row := EventRow{
		ID:              id,
		Name:            e.Name,
		EventType:       e.EventType,
		Date:            encodeTime(e.Date),
		Location:        e.Location,
		Description:     e.Description,
		URL:             e.URL,
		Organizer:       e.Organizer,
		TopicsJSON:      string(topicsJSON),
		TargetAudience:  e.TargetAudience,
		Cost:            e.Cost,
		RegistrationURL: e.RegistrationURL,
		Confidence:      e.Confidence,
		IngestedAt:      UTCNowISO(ingestedAt),
	}
	return row, encodeSources(ParentEvent, id, e.Sources)
}

func encodeSources(parentType, parentID string, sources []common.FactSource) []SourceRow {
	rows := make([]SourceRow, 0, len(sources))
	for _, s := range sources {
		retrieved := ""
		if s.RetrievedAt != nil {
			retrieved = encodeTime(*s.RetrievedAt)
		}
		rows = append(rows, SourceRow{
			ParentType:    parentType,
			ParentID:      parentID,
			SourceName:    s.SourceName,
			URL:           s.URL,
			RetrievedAt:   retrieved,
			EvidenceQuote: s.EvidenceQuote,
		})
	}
	return rows
}

// DecodeInvestment rebuilds a typed fact from its rows. Malformed stage
// degrades to Series A, malformed date to now; neither raises.
func DecodeInvestment(row InvestmentRow, sources []SourceRow, now time.Time) common.Investment {
	investorSector := row.InvestorSector
	if investorSector == "" {
		investorSector = "VC Firm"
	}
	investeeSector := row.InvesteeSector
	if investeeSector == "" {
		investeeSector = "AI"
	}
	return common.Investment{
		Investor: common.Company{
			Name:        row.InvestorName,
			Description: "Investor in " + row.InvesteeName,
			Sector:      investorSector,
		},
		Investee: common.Company{
			Name:        row.InvesteeName,
			Description: row.InvesteeDescription,
			Sector:      investeeSector,
		},
		Amount:     row.AmountMUSD,
		Stage:      common.ParseStage(row.Stage),
		Date:       ParseStoredTime(row.Date, now),
		Details:    row.Details,
		Sources:    decodeSources(sources),
		Confidence: row.Confidence,
	}
}

// DecodeEvent rebuilds a typed fact from its rows with the same
// degradation rules as DecodeInvestment.
func DecodeEvent(row EventRow, sources []SourceRow, now time.Time) common.Event {
	var topics []string
	if row.TopicsJSON != "" {
		// Malformed topics degrade to none.
		_ = json.Unmarshal([]byte(row.TopicsJSON), &topics)
	}
	eventType := row.EventType
	if eventType == "" {
		eventType = "Event"
	}
	audience := row.TargetAudience
	if audience == "" {
		audience = "All"
	}
	return common.Event{
		Name:            row.Name,
		EventType:       eventType,
		Date:            ParseStoredTime(row.Date, now),
		Location:        row.Location,
		Description:     row.Description,
		URL:             row.URL,
		Organizer:       row.Organizer,
		Topics:          topics,
		TargetAudience:  audience,
		Cost:            row.Cost,
		RegistrationURL: row.RegistrationURL,
		Sources:         decodeSources(sources),
		Confidence:      row.Confidence,
	}
}

func decodeSources(rows []SourceRow) []common.FactSource {
	out := make([]common.FactSource, 0, len(rows))
	for _, r := range rows {
		var retrievedAt *time.Time
		if r.RetrievedAt != "" {
			if t := ParseStoredTime(r.RetrievedAt, time.Time{}); !t.IsZero() {
				retrievedAt = &t
			}
		}
		out = append(out, common.FactSource{
			SourceName:    r.SourceName,
			URL:           r.URL,
			RetrievedAt:   retrievedAt,
			EvidenceQuote: r.EvidenceQuote,
		})
	}
	return out
}
