// Package store persists validated, grounded facts across runs. The
// durable store is the single source of truth for "have we seen this
// fact before"; the in-memory graph is rebuilt from it each run.
//
// Inserts are idempotent at the row level: a fact id observed N times
// yields exactly one fact row, and at most one source row per distinct
// (source name, url, evidence quote) tuple. Existing rows are never
// overwritten, which preserves first-observed history even when a later
// scrape disagrees on a non-identity field.
package store

import (
	"context"

	"github.com/factfeed/factfeed/pkg/common"
)

// UpsertStats reports what an upsert call genuinely added. The counts
// are order-sensitive per call; the final store content is not.
type UpsertStats struct {
	FactsInserted   int
	SourcesInserted int
}

// Add accumulates stats across batches.
func (s *UpsertStats) Add(other UpsertStats) {
	s.FactsInserted += other.FactsInserted
	s.SourcesInserted += other.SourcesInserted
}

// FactStore is the durable persistence boundary for grounded facts.
type FactStore interface {
	// UpsertInvestments inserts each fact only if its id is absent and
	// each attached source only if its tuple is new, in input order.
	UpsertInvestments(ctx context.Context, investments []common.Investment) (UpsertStats, error)

	// UpsertEvents is the symmetric operation for event facts.
	UpsertEvents(ctx context.Context, events []common.Event) (UpsertStats, error)

	// LoadInvestments reconstructs facts whose date falls within the
	// past daysBack days (undated rows included), most recent first.
	LoadInvestments(ctx context.Context, daysBack int) ([]common.Investment, error)

	// LoadEvents reconstructs facts whose date falls within the coming
	// daysAhead days (undated rows included), soonest first.
	LoadEvents(ctx context.Context, daysAhead int) ([]common.Event, error)
}

// Parent type discriminators for source rows.
const (
	ParentInvestment = "investment"
	ParentEvent      = "event"
)
