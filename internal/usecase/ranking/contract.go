package ranking

import (
	"context"
	"time"

	"github.com/shopsense/searchcore/internal/domain"
)

// EngagementReader supplies time-stamped behavioral aggregates.
type EngagementReader interface {
	// Collect returns per-product engagement for a query; records share the
	// query-level search impressions.
	Collect(ctx context.Context, query string, productIDs []string, now time.Time) (map[string]domain.EngagementRecord, error)
	// CategoryRecord returns category-wide engagement for cold-start scoring.
	CategoryRecord(ctx context.Context, category string, now time.Time) (domain.EngagementRecord, error)
}
