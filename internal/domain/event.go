package domain

import "time"

// EventType classifies a behavioral event.
type EventType string

// Behavioral event types consumed from the ingestion path.
const (
	EventSearch   EventType = "search"
	EventClick    EventType = "click"
	EventCart     EventType = "cart"
	EventPurchase EventType = "purchase"
)

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	switch t {
	case EventSearch, EventClick, EventCart, EventPurchase:
		return true
	}
	return false
}

// Event is a single behavioral observation appended to the event log.
type Event struct {
	ID        string
	Type      EventType
	ProductID string
	Query     string
	SessionID string
	Timestamp time.Time
}

// EngagementRecord aggregates event timestamps for one (query, product) pair.
// Searches are query-level (one search covers all shown products); clicks, carts,
// and purchases are specific to the product. Records are re-aggregated on read
// from the append-only log and never mutated in place.
type EngagementRecord struct {
	Searches  []time.Time
	Clicks    []time.Time
	Carts     []time.Time
	Purchases []time.Time
}

// Empty reports whether the record carries no signal at all.
func (r *EngagementRecord) Empty() bool {
	return len(r.Searches) == 0 && !r.Interactions()
}

// Interactions reports whether the record has product-level signal. A record
// with searches but no interactions is still a cold start for the product.
func (r *EngagementRecord) Interactions() bool {
	return len(r.Clicks) > 0 || len(r.Carts) > 0 || len(r.Purchases) > 0
}
