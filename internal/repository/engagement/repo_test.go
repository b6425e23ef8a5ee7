package engagement

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopsense/searchcore/internal/db"
	"github.com/shopsense/searchcore/internal/domain"
)

// fakeZSets is an in-memory sorted-set store.
type fakeZSets struct {
	sets map[string]map[string]float64
}

func newFakeZSets() *fakeZSets {
	return &fakeZSets{sets: map[string]map[string]float64{}}
}

func (f *fakeZSets) ZAdd(_ context.Context, key string, members []db.ZMember) error {
	set, ok := f.sets[key]
	if !ok {
		set = map[string]float64{}
		f.sets[key] = set
	}
	for _, m := range members {
		set[m.Member] = m.Score
	}
	return nil
}

func (f *fakeZSets) ZRangeByScore(_ context.Context, key string, min, max float64) ([]db.ZMember, error) {
	var out []db.ZMember
	for member, score := range f.sets[key] {
		if score >= min && score <= max {
			out = append(out, db.ZMember{Member: member, Score: score})
		}
	}
	return out, nil
}

func (f *fakeZSets) ZRemRangeByScore(_ context.Context, key string, min, max float64) error {
	for member, score := range f.sets[key] {
		if score >= min && score <= max {
			delete(f.sets[key], member)
		}
	}
	return nil
}

func event(id string, t domain.EventType, query, productID string, ts time.Time) *domain.Event {
	return &domain.Event{ID: id, Type: t, Query: query, ProductID: productID, Timestamp: ts}
}

func TestQueryKey_Normalization(t *testing.T) {
	a := QueryKey("Blue Shoes")
	b := QueryKey("  blue   SHOES ")
	if a != b {
		t.Errorf("normalized queries should share a key: %s != %s", a, b)
	}
	if QueryKey("blue shoes") == QueryKey("red shoes") {
		t.Error("different queries share a key")
	}
}

func TestRecordAndCollect(t *testing.T) {
	ctx := context.Background()
	store := newFakeZSets()
	repo := New(store, "t:", 90*24*time.Hour)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// Two searches, one click on p1, one purchase on p2.
	mustRecordSearch(t, repo, event("e1", domain.EventSearch, "blue shoes", "", now.Add(-time.Hour)), "shoes")
	mustRecordSearch(t, repo, event("e2", domain.EventSearch, "Blue Shoes", "", now.Add(-2*time.Hour)), "shoes")
	mustRecordInteraction(t, repo, event("e3", domain.EventClick, "blue shoes", "p1", now.Add(-time.Hour)), "shoes")
	mustRecordInteraction(t, repo, event("e4", domain.EventPurchase, "blue shoes", "p2", now.Add(-time.Minute)), "shoes")

	records, err := repo.Collect(ctx, "blue shoes", []string{"p1", "p2", "p3"}, now)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	// Search impressions are query-level and shared across products.
	for _, id := range []string{"p1", "p2", "p3"} {
		if got := len(records[id].Searches); got != 2 {
			t.Errorf("%s searches: got %d, want 2", id, got)
		}
	}
	if len(records["p1"].Clicks) != 1 || len(records["p1"].Purchases) != 0 {
		t.Errorf("p1 interactions wrong: %+v", records["p1"])
	}
	if len(records["p2"].Purchases) != 1 || len(records["p2"].Clicks) != 0 {
		t.Errorf("p2 interactions wrong: %+v", records["p2"])
	}
	p3 := records["p3"]
	if p3.Interactions() {
		t.Error("p3 should have no interactions")
	}

	// Category aggregates mirror every event.
	cat, err := repo.CategoryRecord(ctx, "shoes", now)
	if err != nil {
		t.Fatalf("category record: %v", err)
	}
	if len(cat.Searches) != 2 || len(cat.Clicks) != 1 || len(cat.Purchases) != 1 {
		t.Errorf("category aggregate wrong: %+v", cat)
	}
}

func TestCollect_WindowExcludesExpired(t *testing.T) {
	ctx := context.Background()
	store := newFakeZSets()
	retention := 90 * 24 * time.Hour
	repo := New(store, "t:", retention)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	fresh := event("fresh", domain.EventClick, "shoes", "p1", now.Add(-24*time.Hour))
	stale := event("stale", domain.EventClick, "shoes", "p1", now.Add(-retention-24*time.Hour))
	mustRecordInteraction(t, repo, stale, "")
	mustRecordInteraction(t, repo, fresh, "")

	records, err := repo.Collect(ctx, "shoes", []string{"p1"}, now)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got := len(records["p1"].Clicks); got != 1 {
		t.Errorf("clicks in window: got %d, want 1", got)
	}
}

func TestRecord_TrimsPastRetention(t *testing.T) {
	ctx := context.Background()
	store := newFakeZSets()
	retention := 90 * 24 * time.Hour
	repo := New(store, "t:", retention)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	old := event("old", domain.EventClick, "shoes", "p1", now.Add(-retention-48*time.Hour))
	mustRecordInteraction(t, repo, old, "")
	// A later write trims members older than its own retention cutoff.
	recent := event("recent", domain.EventClick, "shoes", "p1", now)
	mustRecordInteraction(t, repo, recent, "")

	key := repo.productKey(QueryKey("shoes"), "p1", domain.EventClick)
	members, err := store.ZRangeByScore(ctx, key, math.Inf(-1), math.Inf(1))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(members) != 1 || members[0].Member != "recent" {
		t.Errorf("trim failed, members: %+v", members)
	}
}

func TestCollect_EmptyLog(t *testing.T) {
	repo := New(newFakeZSets(), "t:", time.Hour)
	records, err := repo.Collect(context.Background(), "never seen", []string{"p1"}, time.Now())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	p1 := records["p1"]
	if !p1.Empty() {
		t.Errorf("expected empty record, got %+v", records["p1"])
	}
}

func mustRecordSearch(t *testing.T, repo *Repository, ev *domain.Event, category string) {
	t.Helper()
	if err := repo.RecordSearch(context.Background(), ev, category); err != nil {
		t.Fatalf("record search: %v", err)
	}
}

func mustRecordInteraction(t *testing.T, repo *Repository, ev *domain.Event, category string) {
	t.Helper()
	if err := repo.RecordInteraction(context.Background(), ev, category); err != nil {
		t.Fatalf("record interaction: %v", err)
	}
}
