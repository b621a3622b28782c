package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/factfeed/factfeed/internal/storage"
	"github.com/factfeed/factfeed/internal/util"
	"github.com/factfeed/factfeed/pkg/common"
	"github.com/factfeed/factfeed/pkg/feed"
	"github.com/factfeed/factfeed/pkg/graph"
	"github.com/factfeed/factfeed/pkg/leaselock"
	"github.com/factfeed/factfeed/pkg/logger"
	"github.com/factfeed/factfeed/pkg/store"
	"github.com/factfeed/factfeed/pkg/validate"
)

const (
	ingestLeaseKey = "fact_ingest"

	defaultDaysBack  = 30
	defaultDaysAhead = 90
)

// RefreshDeps bundles everything one ingestion pass needs. Snapshots may
// be nil when snapshot publishing is disabled.
type RefreshDeps struct {
	Store     store.FactStore
	Locks     *leaselock.Client
	Validator *validate.Validator
	Snapshots *storage.SnapshotPublisher

	InvestmentSources []feed.InvestmentSource
	EventSources      []feed.EventSource
}

// ProcessInvestmentRefresh runs one investment ingestion pass: fetch
// candidates, validate, persist the survivors, then rebuild the graph
// from the stored window and publish a snapshot. The whole pass runs
// under the shared ingest lease so concurrent workers never interleave
// writes with the reload.
func ProcessInvestmentRefresh(ctx context.Context, deps RefreshDeps, msg string) error {
	var data RefreshMsg
	if err := json.Unmarshal([]byte(msg), &data); err != nil {
		return fmt.Errorf("failed to parse refresh message: %w", err)
	}
	daysBack := data.DaysBack
	if daysBack <= 0 {
		daysBack = defaultDaysBack
	}

	return deps.Locks.WithLease(ctx, ingestLeaseKey, leaselock.Options{Wait: true}, func(ctx context.Context) error {
		candidates := fetchInvestments(ctx, deps.InvestmentSources, daysBack)

		now := time.Now().UTC()
		accepted, rejected := deps.Validator.FilterInvestments(candidates, now)
		for _, r := range rejected {
			logger.Warn("[Refresh] Rejected investment",
				"correlation_id", data.CorrelationID,
				"investor", r.Investment.Investor.Name,
				"investee", r.Investment.Investee.Name,
				"reasons", r.Result.Reasons,
			)
		}

		stats, err := deps.Store.UpsertInvestments(ctx, accepted)
		if err != nil {
			return fmt.Errorf("failed to persist investments: %w", err)
		}

		stored, err := deps.Store.LoadInvestments(ctx, daysBack)
		if err != nil {
			return fmt.Errorf("failed to reload investments: %w", err)
		}

		g := graph.New().BuildFromInvestments(stored)
		derived := g.DeriveCoInvestments(graph.DeriveConfig{})

		if deps.Snapshots != nil {
			exportJSON, err := json.Marshal(g.Export())
			if err != nil {
				return fmt.Errorf("failed to encode graph export: %w", err)
			}
			err = util.RetryErrWithContext(ctx, 3, func(ctx context.Context) error {
				return deps.Snapshots.Publish(ctx, exportJSON, g.DOT())
			})
			if err != nil {
				logger.Error("[Refresh] Snapshot upload failed", "correlation_id", data.CorrelationID, "err", err)
			}
		}

		logger.Info("[Refresh] Investment pass complete",
			"correlation_id", data.CorrelationID,
			"candidates", len(candidates),
			"accepted", len(accepted),
			"rejected", len(rejected),
			"facts_inserted", stats.FactsInserted,
			"sources_inserted", stats.SourcesInserted,
			"nodes", g.NodeCount(),
			"edges", g.EdgeCount(graph.EdgeInvestedIn),
			"derived_edges", derived,
		)
		return nil
	})
}

// ProcessEventRefresh runs one event ingestion pass. Events do not feed
// the graph, so the pass ends at persistence.
func ProcessEventRefresh(ctx context.Context, deps RefreshDeps, msg string) error {
	var data RefreshMsg
	if err := json.Unmarshal([]byte(msg), &data); err != nil {
		return fmt.Errorf("failed to parse refresh message: %w", err)
	}
	daysAhead := data.DaysAhead
	if daysAhead <= 0 {
		daysAhead = defaultDaysAhead
	}

	return deps.Locks.WithLease(ctx, ingestLeaseKey, leaselock.Options{Wait: true}, func(ctx context.Context) error {
		candidates := fetchEvents(ctx, deps.EventSources, daysAhead)

		now := time.Now().UTC()
		accepted, rejected := deps.Validator.FilterEvents(candidates, now)
		for _, r := range rejected {
			logger.Warn("[Refresh] Rejected event",
				"correlation_id", data.CorrelationID,
				"name", r.Event.Name,
				"reasons", r.Result.Reasons,
			)
		}

		stats, err := deps.Store.UpsertEvents(ctx, accepted)
		if err != nil {
			return fmt.Errorf("failed to persist events: %w", err)
		}

		logger.Info("[Refresh] Event pass complete",
			"correlation_id", data.CorrelationID,
			"candidates", len(candidates),
			"accepted", len(accepted),
			"rejected", len(rejected),
			"facts_inserted", stats.FactsInserted,
			"sources_inserted", stats.SourcesInserted,
		)
		return nil
	})
}

// fetchInvestments queries every source concurrently. A failing source
// degrades to an empty contribution; results keep source registration
// order so the downstream pass stays deterministic.
func fetchInvestments(ctx context.Context, sources []feed.InvestmentSource, daysBack int) []common.Investment {
	results := make([][]common.Investment, len(sources))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			got, err := src.FetchInvestments(ctx, daysBack)
			if err != nil {
				logger.Error("[Refresh] Investment source failed", "source", src.Name(), "err", err)
				return nil
			}
			mu.Lock()
			results[i] = got
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var out []common.Investment
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// fetchEvents is the symmetric helper for event sources.
func fetchEvents(ctx context.Context, sources []feed.EventSource, daysAhead int) []common.Event {
	results := make([][]common.Event, len(sources))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			got, err := src.FetchEvents(ctx, daysAhead)
			if err != nil {
				logger.Error("[Refresh] Event source failed", "source", src.Name(), "err", err)
				return nil
			}
			mu.Lock()
			results[i] = got
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var out []common.Event
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}
