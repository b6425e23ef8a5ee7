// Package engagement persists the behavioral event log as Redis sorted sets
// scored by event time, and reads it back as time-stamped aggregates.
package engagement

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopsense/searchcore/internal/db"
	"github.com/shopsense/searchcore/internal/domain"
)

// store is the sorted-set surface this repository needs.
type store interface {
	ZAdd(ctx context.Context, key string, members []db.ZMember) error
	ZRangeByScore(ctx context.Context, key string, min, max float64) ([]db.ZMember, error)
	ZRemRangeByScore(ctx context.Context, key string, min, max float64) error
}

// Repository is the append-only event log. Writes never overwrite; each event
// is one sorted-set member scored by its unix-millisecond timestamp.
type Repository struct {
	store     store
	keyPrefix string
	retention time.Duration
}

// New creates an engagement repository. retention bounds both reads and the
// opportunistic trim on write.
func New(s store, keyPrefix string, retention time.Duration) *Repository {
	return &Repository{store: s, keyPrefix: keyPrefix, retention: retention}
}

// QueryKey normalizes a raw query into a stable digest used in log keys, so
// "Blue Shoes " and "blue shoes" share one history.
func QueryKey(query string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:8])
}

func (r *Repository) searchKey(qkey string) string {
	return fmt.Sprintf("%seng:q:%s:%s", r.keyPrefix, qkey, domain.EventSearch)
}

func (r *Repository) productKey(qkey, productID string, t domain.EventType) string {
	return fmt.Sprintf("%seng:q:%s:p:%s:%s", r.keyPrefix, qkey, productID, t)
}

func (r *Repository) categoryKey(category string, t domain.EventType) string {
	return fmt.Sprintf("%seng:cat:%s:%s", r.keyPrefix, strings.ToLower(category), t)
}

// RecordSearch appends a search impression for a query. category may be empty;
// when set, the impression also feeds the category aggregate used for
// cold-start scoring.
func (r *Repository) RecordSearch(ctx context.Context, ev *domain.Event, category string) error {
	keys := []string{r.searchKey(QueryKey(ev.Query))}
	if category != "" {
		keys = append(keys, r.categoryKey(category, domain.EventSearch))
	}
	return r.append(ctx, keys, ev)
}

// RecordInteraction appends a click, cart, or purchase against a
// (query, product) pair and mirrors it into the product's category aggregate.
func (r *Repository) RecordInteraction(ctx context.Context, ev *domain.Event, category string) error {
	keys := []string{r.productKey(QueryKey(ev.Query), ev.ProductID, ev.Type)}
	if category != "" {
		keys = append(keys, r.categoryKey(category, ev.Type))
	}
	return r.append(ctx, keys, ev)
}

func (r *Repository) append(ctx context.Context, keys []string, ev *domain.Event) error {
	member := []db.ZMember{{Member: ev.ID, Score: float64(ev.Timestamp.UnixMilli())}}
	cutoff := float64(ev.Timestamp.Add(-r.retention).UnixMilli())
	for _, key := range keys {
		if err := r.store.ZAdd(ctx, key, member); err != nil {
			return fmt.Errorf("append event %s: %w", ev.ID, err)
		}
		// Trim as we go; reads are window-bounded anyway, this just caps
		// set growth.
		if err := r.store.ZRemRangeByScore(ctx, key, math.Inf(-1), cutoff); err != nil {
			return fmt.Errorf("trim event log %s: %w", key, err)
		}
	}
	return nil
}

// Collect returns per-product engagement for a query over the retention
// window. Every record shares the query-level search impressions so ratio
// denominators agree across products.
func (r *Repository) Collect(
	ctx context.Context, query string, productIDs []string, now time.Time,
) (map[string]domain.EngagementRecord, error) {
	qkey := QueryKey(query)
	min := float64(now.Add(-r.retention).UnixMilli())
	max := float64(now.UnixMilli())

	searches, err := r.timestamps(ctx, r.searchKey(qkey), min, max)
	if err != nil {
		return nil, err
	}

	records := make(map[string]domain.EngagementRecord, len(productIDs))
	for _, id := range productIDs {
		rec := domain.EngagementRecord{Searches: searches}
		if rec.Clicks, err = r.timestamps(ctx, r.productKey(qkey, id, domain.EventClick), min, max); err != nil {
			return nil, err
		}
		if rec.Carts, err = r.timestamps(ctx, r.productKey(qkey, id, domain.EventCart), min, max); err != nil {
			return nil, err
		}
		if rec.Purchases, err = r.timestamps(ctx, r.productKey(qkey, id, domain.EventPurchase), min, max); err != nil {
			return nil, err
		}
		records[id] = rec
	}
	return records, nil
}

// CategoryRecord returns the aggregate engagement of a whole category,
// backing cold-start scoring for products with no history on a query.
func (r *Repository) CategoryRecord(
	ctx context.Context, category string, now time.Time,
) (domain.EngagementRecord, error) {
	min := float64(now.Add(-r.retention).UnixMilli())
	max := float64(now.UnixMilli())

	var rec domain.EngagementRecord
	var err error
	if rec.Searches, err = r.timestamps(ctx, r.categoryKey(category, domain.EventSearch), min, max); err != nil {
		return domain.EngagementRecord{}, err
	}
	if rec.Clicks, err = r.timestamps(ctx, r.categoryKey(category, domain.EventClick), min, max); err != nil {
		return domain.EngagementRecord{}, err
	}
	if rec.Carts, err = r.timestamps(ctx, r.categoryKey(category, domain.EventCart), min, max); err != nil {
		return domain.EngagementRecord{}, err
	}
	if rec.Purchases, err = r.timestamps(ctx, r.categoryKey(category, domain.EventPurchase), min, max); err != nil {
		return domain.EngagementRecord{}, err
	}
	return rec, nil
}

func (r *Repository) timestamps(ctx context.Context, key string, min, max float64) ([]time.Time, error) {
	members, err := r.store.ZRangeByScore(ctx, key, min, max)
	if err != nil {
		return nil, fmt.Errorf("read event log %s: %w", key, err)
	}
	if len(members) == 0 {
		return nil, nil
	}
	ts := make([]time.Time, len(members))
	for i, m := range members {
		ts[i] = time.UnixMilli(int64(m.Score))
	}
	return ts, nil
}
