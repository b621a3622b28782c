// Package feed defines the boundary between fact sources and the
// ingestion core. Sources produce candidate facts; whether a candidate
// is admitted is decided downstream by the grounding validator, never by
// the source itself.
package feed

import (
	"context"

	"github.com/factfeed/factfeed/pkg/common"
)

// InvestmentSource delivers candidate investment facts. A failing fetch
// is reported as an error and degrades only this source, not the pass.
type InvestmentSource interface {
	Name() string
	FetchInvestments(ctx context.Context, daysBack int) ([]common.Investment, error)
}

// EventSource delivers candidate event facts.
type EventSource interface {
	Name() string
	FetchEvents(ctx context.Context, daysAhead int) ([]common.Event, error)
}
