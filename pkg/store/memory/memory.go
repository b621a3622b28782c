// Package memory implements the fact store in process memory. It mirrors
// the durable backend's semantics row for row, which makes it the
// reference implementation for idempotence tests and a zero-dependency
// backend for local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/factfeed/factfeed/pkg/common"
	"github.com/factfeed/factfeed/pkg/store"
)

// FactMemoryStorage implements store.FactStore without external state.
// Safe for concurrent use.
type FactMemoryStorage struct {
	mu sync.Mutex

	investments     map[string]store.InvestmentRow
	investmentOrder []string
	events          map[string]store.EventRow
	eventOrder      []string

	sourceKeys  map[string]struct{}
	sourceRows  []store.SourceRow
	now         func() time.Time
}

// NewFactMemoryStorage returns an empty store.
func NewFactMemoryStorage() *FactMemoryStorage {
	return &FactMemoryStorage{
		investments: make(map[string]store.InvestmentRow),
		events:      make(map[string]store.EventRow),
		sourceKeys:  make(map[string]struct{}),
		now:         time.Now,
	}
}

// UpsertInvestments inserts facts and sources in input order. Already
// present fact rows are left untouched, including their ingested_at.
func (s *FactMemoryStorage) UpsertInvestments(ctx context.Context, investments []common.Investment) (store.UpsertStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats store.UpsertStats
	for _, inv := range investments {
		row, sourceRows := store.EncodeInvestment(inv, s.now())
		if _, exists := s.investments[row.ID]; !exists {
			s.investments[row.ID] = row
			s.investmentOrder = append(s.investmentOrder, row.ID)
			stats.FactsInserted++
		}
		stats.SourcesInserted += s.insertSources(sourceRows)
	}
	return stats, nil
}

// UpsertEvents is the symmetric operation for event facts.
func (s *FactMemoryStorage) UpsertEvents(ctx context.Context, events []common.Event) (store.UpsertStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats store.UpsertStats
	for _, e := range events {
		row, sourceRows := store.EncodeEvent(e, s.now())
		if _, exists := s.events[row.ID]; !exists {
			s.events[row.ID] = row
			s.eventOrder = append(s.eventOrder, row.ID)
			stats.FactsInserted++
		}
		stats.SourcesInserted += s.insertSources(sourceRows)
	}
	return stats, nil
}

func (s *FactMemoryStorage) insertSources(rows []store.SourceRow) int {
	inserted := 0
	for _, r := range rows {
		key := r.Key()
		if _, exists := s.sourceKeys[key]; exists {
			continue
		}
		s.sourceKeys[key] = struct{}{}
		s.sourceRows = append(s.sourceRows, r)
		inserted++
	}
	return inserted
}

// LoadInvestments reconstructs facts for the past daysBack days, most
// recent first. Undated rows sort last.
func (s *FactMemoryStorage) LoadInvestments(ctx context.Context, daysBack int) ([]common.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, -daysBack).Format(time.RFC3339)

	var rows []store.InvestmentRow
	for _, id := range s.investmentOrder {
		row := s.investments[id]
		if row.Date == "" || row.Date >= cutoff {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })

	out := make([]common.Investment, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.DecodeInvestment(row, s.sourcesFor(store.ParentInvestment, row.ID), now))
	}
	return out, nil
}

// LoadEvents reconstructs facts for the coming daysAhead days, soonest
// first. Undated rows sort first.
func (s *FactMemoryStorage) LoadEvents(ctx context.Context, daysAhead int) ([]common.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, daysAhead).Format(time.RFC3339)

	var rows []store.EventRow
	for _, id := range s.eventOrder {
		row := s.events[id]
		if row.Date == "" || row.Date <= cutoff {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })

	out := make([]common.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.DecodeEvent(row, s.sourcesFor(store.ParentEvent, row.ID), now))
	}
	return out, nil
}

func (s *FactMemoryStorage) sourcesFor(parentType, parentID string) []store.SourceRow {
	var out []store.SourceRow
	for _, r := range s.sourceRows {
		if r.ParentType == parentType && r.ParentID == parentID {
			out = append(out, r)
		}
	}
	return out
}
