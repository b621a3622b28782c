// Package pgx implements the durable fact store on PostgreSQL.
//
// INSERT ... ON CONFLICT DO NOTHING is the unit of atomicity: a fact id
// is inserted exactly once no matter how many concurrent writers observe
// it, and no partial fact/source write is visible to readers.
package pgx

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/factfeed/factfeed/internal/util"
	"github.com/factfeed/factfeed/pkg/common"
	"github.com/factfeed/factfeed/pkg/logger"
	"github.com/factfeed/factfeed/pkg/store"
)

type pgxConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// FactDBStorage implements store.FactStore on a pgx connection or pool.
type FactDBStorage struct {
	conn pgxConn
	now  func() time.Time
}

// NewFactDBStorage wraps an existing connection. The caller owns the
// connection lifecycle.
func NewFactDBStorage(conn pgxConn) *FactDBStorage {
	return &FactDBStorage{conn: conn, now: time.Now}
}

const insertInvestmentSQL = `
	INSERT INTO investments (
	  id, investor_name, investee_name, amount_m_usd, stage, date,
	  investee_sector, investee_description, investor_sector, details,
	  confidence, ingested_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	ON CONFLICT (id) DO NOTHING`

const insertEventSQL = `
	INSERT INTO events (
	  id, name, event_type, date, location, description, url, organizer,
	  topics_json, target_audience, cost, registration_url, confidence,
	  ingested_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	ON CONFLICT (id) DO NOTHING`

const insertSourceSQL = `
	INSERT INTO sources (
	  parent_type, parent_id, source_name, url, retrieved_at, evidence_quote
	) VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (parent_type, parent_id, source_name, url, evidence_quote) DO NOTHING`

// UpsertInvestments inserts facts and their sources in input order
// inside one transaction. Existing fact rows keep their original
// content, including the first ingested_at.
func (s *FactDBStorage) UpsertInvestments(ctx context.Context, investments []common.Investment) (store.UpsertStats, error) {
	var stats store.UpsertStats
	if len(investments) == 0 {
		return stats, nil
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, inv := range investments {
		row, sourceRows := store.EncodeInvestment(inv, s.now())

		tag, err := tx.Exec(ctx, insertInvestmentSQL,
			row.ID,
			util.SanitizePostgresText(row.InvestorName),
			util.SanitizePostgresText(row.InvesteeName),
			row.AmountMUSD,
			row.Stage,
			row.Date,
			util.SanitizePostgresText(row.InvesteeSector),
			util.SanitizePostgresText(row.InvesteeDescription),
			util.SanitizePostgresText(row.InvestorSector),
			util.SanitizePostgresText(row.Details),
			row.Confidence,
			row.IngestedAt,
		)
		if err != nil {
			return store.UpsertStats{}, fmt.Errorf("failed to insert investment %s: %w", row.ID, err)
		}
		stats.FactsInserted += int(tag.RowsAffected())

		inserted, err := s.insertSources(ctx, tx, sourceRows)
		if err != nil {
			return store.UpsertStats{}, err
		}
		stats.SourcesInserted += inserted
	}

	if err := tx.Commit(ctx); err != nil {
		return store.UpsertStats{}, fmt.Errorf("failed to commit investments: %w", err)
	}

	logger.Debug("[Store] Upserted investments", "candidates", len(investments), "inserted", stats.FactsInserted, "sources_inserted", stats.SourcesInserted)
	return stats, nil
}

// UpsertEvents is the symmetric operation for event facts.
func (s *FactDBStorage) UpsertEvents(ctx context.Context, events []common.Event) (store.UpsertStats, error) {
	var stats store.UpsertStats
	if len(events) == 0 {
		return stats, nil
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range events {
		row, sourceRows := store.EncodeEvent(e, s.now())

		tag, err := tx.Exec(ctx, insertEventSQL,
			row.ID,
			util.SanitizePostgresText(row.Name),
			row.EventType,
			row.Date,
			util.SanitizePostgresText(row.Location),
			util.SanitizePostgresText(row.Description),
			util.SanitizePostgresText(row.URL),
			util.SanitizePostgresText(row.Organizer),
			util.SanitizePostgresText(row.TopicsJSON),
			row.TargetAudience,
			row.Cost,
			util.SanitizePostgresText(row.RegistrationURL),
			row.Confidence,
			row.IngestedAt,
		)
		if err != nil {
			return store.UpsertStats{}, fmt.Errorf("failed to insert event %s: %w", row.ID, err)
		}
		stats.FactsInserted += int(tag.RowsAffected())

		inserted, err := s.insertSources(ctx, tx, sourceRows)
		if err != nil {
			return store.UpsertStats{}, err
		}
		stats.SourcesInserted += inserted
	}

	if err := tx.Commit(ctx); err != nil {
		return store.UpsertStats{}, fmt.Errorf("failed to commit events: %w", err)
	}

	logger.Debug("[Store] Upserted events", "candidates", len(events), "inserted", stats.FactsInserted, "sources_inserted", stats.SourcesInserted)
	return stats, nil
}

func (s *FactDBStorage) insertSources(ctx context.Context, tx pgx.Tx, rows []store.SourceRow) (int, error) {
	inserted := 0
	for _, sr := range rows {
		tag, err := tx.Exec(ctx, insertSourceSQL,
			sr.ParentType,
			sr.ParentID,
			util.SanitizePostgresText(sr.SourceName),
			util.SanitizePostgresText(sr.URL),
			sr.RetrievedAt,
			util.SanitizePostgresText(sr.EvidenceQuote),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert source for %s: %w", sr.ParentID, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// LoadInvestments reconstructs facts for the past daysBack days,
// most recent first. Undated rows are included.
func (s *FactDBStorage) LoadInvestments(ctx context.Context, daysBack int) ([]common.Investment, error) {
	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, -daysBack).Format(time.RFC3339)

	rows, err := s.conn.Query(ctx, `
		SELECT id, investor_name, investee_name, amount_m_usd, stage, date,
		       investee_sector, investee_description, investor_sector,
		       details, confidence, ingested_at
		FROM investments
		WHERE date = '' OR date >= $1
		ORDER BY date DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments: %w", err)
	}
	defer rows.Close()

	var ids []string
	var factRows []store.InvestmentRow
	for rows.Next() {
		var r store.InvestmentRow
		err := rows.Scan(
			&r.ID, &r.InvestorName, &r.InvesteeName, &r.AmountMUSD, &r.Stage,
			&r.Date, &r.InvesteeSector, &r.InvesteeDescription,
			&r.InvestorSector, &r.Details, &r.Confidence, &r.IngestedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment row: %w", err)
		}
		ids = append(ids, r.ID)
		factRows = append(factRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read investments: %w", err)
	}

	sourcesByParent, err := s.loadSources(ctx, store.ParentInvestment, ids)
	if err != nil {
		return nil, err
	}

	investments := make([]common.Investment, 0, len(factRows))
	for _, r := range factRows {
		investments = append(investments, store.DecodeInvestment(r, sourcesByParent[r.ID], now))
	}
	return investments, nil
}

// LoadEvents reconstructs facts for the coming daysAhead days, soonest
// first. Undated rows are included.
func (s *FactDBStorage) LoadEvents(ctx context.Context, daysAhead int) ([]common.Event, error) {
	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, daysAhead).Format(time.RFC3339)

	rows, err := s.conn.Query(ctx, `
		SELECT id, name, event_type, date, location, description, url,
		       organizer, topics_json, target_audience, cost,
		       registration_url, confidence, ingested_at
		FROM events
		WHERE date = '' OR date <= $1
		ORDER BY date ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var ids []string
	var factRows []store.EventRow
	for rows.Next() {
		var r store.EventRow
		err := rows.Scan(
			&r.ID, &r.Name, &r.EventType, &r.Date, &r.Location,
			&r.Description, &r.URL, &r.Organizer, &r.TopicsJSON,
			&r.TargetAudience, &r.Cost, &r.RegistrationURL, &r.Confidence,
			&r.IngestedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ids = append(ids, r.ID)
		factRows = append(factRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	sourcesByParent, err := s.loadSources(ctx, store.ParentEvent, ids)
	if err != nil {
		return nil, err
	}

	events := make([]common.Event, 0, len(factRows))
	for _, r := range factRows {
		events = append(events, store.DecodeEvent(r, sourcesByParent[r.ID], now))
	}
	return events, nil
}

func (s *FactDBStorage) loadSources(ctx context.Context, parentType string, parentIDs []string) (map[string][]store.SourceRow, error) {
	out := make(map[string][]store.SourceRow, len(parentIDs))
	if len(parentIDs) == 0 {
		return out, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT parent_id, source_name, url, retrieved_at, evidence_quote
		FROM sources
		WHERE parent_type = $1 AND parent_id = ANY($2)
		ORDER BY id ASC`, parentType, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r := store.SourceRow{ParentType: parentType}
		if err := rows.Scan(&r.ParentID, &r.SourceName, &r.URL, &r.RetrievedAt, &r.EvidenceQuote); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		out[r.ParentID] = append(out[r.ParentID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}
	return out, nil
}
