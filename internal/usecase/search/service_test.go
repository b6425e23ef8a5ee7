package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopsense/searchcore/internal/domain"
	"github.com/shopsense/searchcore/internal/domain/constraint"
	"github.com/shopsense/searchcore/internal/usecase/ranking"
)

// --- Mocks ---

type mockEmbedder struct {
	vector   []float32
	err      error
	calls    int
	lastText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.lastText = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vector}, nil
}

type mockRetriever struct {
	candidates []domain.Candidate
	err        error
	lastK      int
}

func (m *mockRetriever) Nearest(_ context.Context, _ []float32, k int) ([]domain.Candidate, error) {
	m.lastK = k
	return m.candidates, m.err
}

type mockProducts struct {
	byID     map[string]*domain.Product
	multiErr error
	scanned  []*domain.Product
	scanErr  error
	scanCap  int
}

func (m *mockProducts) GetMulti(_ context.Context, ids []string) ([]*domain.Product, error) {
	if m.multiErr != nil {
		return nil, m.multiErr
	}
	out := make([]*domain.Product, len(ids))
	for i, id := range ids {
		out[i] = m.byID[id]
	}
	return out, nil
}

func (m *mockProducts) Scan(_ context.Context, max int) ([]*domain.Product, error) {
	m.scanCap = max
	return m.scanned, m.scanErr
}

// passthroughRanker scores by similarity so tests control order via retrieval.
type passthroughRanker struct {
	lastQuery      string
	lastCandidates []ranking.Scored
}

func (m *passthroughRanker) Rank(_ context.Context, query string, candidates []ranking.Scored) []ranking.Ranked {
	m.lastQuery = query
	m.lastCandidates = candidates
	out := make([]ranking.Ranked, len(candidates))
	for i, c := range candidates {
		out[i] = ranking.Ranked{Product: c.Product, Similarity: c.Similarity, Score: c.Similarity}
	}
	return out
}

func testService(e *mockEmbedder, r *mockRetriever, p *mockProducts, rk Ranker) *Service {
	return New(Config{
		DefaultLimit:               10,
		MaxLimit:                   100,
		CandidateMultiplier:        10,
		FallbackScanCap:            500,
		EngagementExplainThreshold: 0.7,
	}, e, r, p, rk)
}

func shoe(id string, price, rating float64) *domain.Product {
	return &domain.Product{ID: id, Title: "shoe " + id, Price: price, Rating: rating, Category: "shoes"}
}

func TestSearch_PipelineFiltersAndExplains(t *testing.T) {
	embedder := &mockEmbedder{vector: []float32{0.1, 0.2}}
	retriever := &mockRetriever{candidates: []domain.Candidate{
		{ProductID: "cheap", Similarity: 0.9, Rank: 0},
		{ProductID: "pricey", Similarity: 0.85, Rank: 1},
		{ProductID: "ghost", Similarity: 0.8, Rank: 2},
	}}
	products := &mockProducts{byID: map[string]*domain.Product{
		"cheap":  shoe("cheap", 2999, 4.3),
		"pricey": shoe("pricey", 8999, 4.8),
		// "ghost" has an index entry but no hash.
	}}
	ranker := &passthroughRanker{}
	svc := testService(embedder, retriever, products, ranker)

	res, err := svc.Search(context.Background(), &Request{
		Query: "running shoes under 5000 with rating above 4",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Fallback {
		t.Error("semantic path marked as fallback")
	}
	if res.Cleaned != "running shoes" {
		t.Errorf("cleaned query: got %q", res.Cleaned)
	}
	if embedder.lastText != "running shoes" {
		t.Errorf("embedded text: got %q, want cleaned query", embedder.lastText)
	}
	if len(res.Items) != 1 {
		t.Fatalf("items: got %d, want 1 (price filter and missing metadata)", len(res.Items))
	}
	item := res.Items[0]
	if item.Product.ID != "cheap" {
		t.Errorf("survivor: got %s", item.Product.ID)
	}
	if item.Explanation == "" {
		t.Error("missing explanation")
	}
	if ranker.lastQuery != "running shoes under 5000 with rating above 4" {
		t.Errorf("ranker query: got %q", ranker.lastQuery)
	}
}

func TestSearch_EmptyQueryReturnsEmptyResult(t *testing.T) {
	embedder := &mockEmbedder{}
	products := &mockProducts{scanned: []*domain.Product{shoe("a", 100, 4)}}
	svc := testService(embedder, &mockRetriever{}, products, &passthroughRanker{})

	res, err := svc.Search(context.Background(), &Request{Query: "   "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Errorf("items: got %v, want empty slice", res.Items)
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times for an empty query", embedder.calls)
	}
	if products.scanCap != 0 {
		t.Error("catalog scanned despite no constraints")
	}
}

func TestSearch_EmptyQueryWithConstraintsScansCatalog(t *testing.T) {
	embedder := &mockEmbedder{}
	products := &mockProducts{scanned: []*domain.Product{
		shoe("a", 2999, 4.5),
		shoe("b", 9999, 4.5),
	}}
	svc := testService(embedder, &mockRetriever{}, products, &passthroughRanker{})

	max := 5000.0
	res, err := svc.Search(context.Background(), &Request{
		Query:       "",
		Constraints: &constraint.Constraints{PriceMax: &max},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Fallback {
		t.Fatal("constraint-only result not marked as fallback")
	}
	if len(res.Items) != 1 || res.Items[0].Product.ID != "a" {
		t.Fatalf("constraint filtering: got %+v", res.Items)
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times for an empty query", embedder.calls)
	}
}

func TestSearch_LimitClampAndFetchWidth(t *testing.T) {
	retriever := &mockRetriever{}
	svc := testService(&mockEmbedder{vector: []float32{1}}, retriever, &mockProducts{}, &passthroughRanker{})

	if _, err := svc.Search(context.Background(), &Request{Query: "shoes", Limit: 1000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retriever.lastK != 100*10 {
		t.Errorf("fetch width: got %d, want clamped limit x multiplier", retriever.lastK)
	}

	if _, err := svc.Search(context.Background(), &Request{Query: "shoes"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retriever.lastK != 10*10 {
		t.Errorf("default fetch width: got %d, want 100", retriever.lastK)
	}
}

func TestSearch_TruncatesToLimit(t *testing.T) {
	var candidates []domain.Candidate
	byID := map[string]*domain.Product{}
	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("p%d", i)
		candidates = append(candidates, domain.Candidate{ProductID: id, Similarity: 0.9, Rank: i})
		byID[id] = shoe(id, 100, 4)
	}
	svc := testService(
		&mockEmbedder{vector: []float32{1}},
		&mockRetriever{candidates: candidates},
		&mockProducts{byID: byID},
		&passthroughRanker{},
	)

	res, err := svc.Search(context.Background(), &Request{Query: "shoes", Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 5 {
		t.Errorf("items: got %d, want 5", len(res.Items))
	}
}

func TestSearch_ExplicitConstraintsOverrideExtracted(t *testing.T) {
	products := &mockProducts{byID: map[string]*domain.Product{
		"a": shoe("a", 2500, 4),
		"b": shoe("b", 4500, 4),
	}}
	svc := testService(
		&mockEmbedder{vector: []float32{1}},
		&mockRetriever{candidates: []domain.Candidate{
			{ProductID: "a", Similarity: 0.9},
			{ProductID: "b", Similarity: 0.8},
		}},
		products,
		&passthroughRanker{},
	)

	max := 3000.0
	res, err := svc.Search(context.Background(), &Request{
		Query:       "shoes under 5000",
		Constraints: &constraint.Constraints{PriceMax: &max},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Product.ID != "a" {
		t.Fatalf("explicit price_max not applied: %+v", res.Items)
	}
	if res.Constraints.PriceMax == nil || *res.Constraints.PriceMax != 3000 {
		t.Errorf("effective constraints: got %v", res.Constraints.PriceMax)
	}
}

func TestSearch_EmbeddingFailureFallsBack(t *testing.T) {
	products := &mockProducts{scanned: []*domain.Product{
		shoe("a", 2999, 4.5),
		shoe("b", 9999, 4.5),
	}}
	svc := testService(
		&mockEmbedder{err: domain.ErrEmbeddingProviderError},
		&mockRetriever{},
		products,
		&passthroughRanker{},
	)

	res, err := svc.Search(context.Background(), &Request{Query: "shoes under 5000"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Fallback {
		t.Fatal("expected fallback result")
	}
	if len(res.Items) != 1 || res.Items[0].Product.ID != "a" {
		t.Errorf("fallback filtering: got %+v", res.Items)
	}
	if products.scanCap != 500 {
		t.Errorf("scan cap: got %d, want 500", products.scanCap)
	}
}

func TestSearch_RetrievalUnavailableFallsBack(t *testing.T) {
	products := &mockProducts{scanned: []*domain.Product{shoe("a", 100, 4)}}
	svc := testService(
		&mockEmbedder{vector: []float32{1}},
		&mockRetriever{err: fmt.Errorf("%w: index gone", domain.ErrRetrievalUnavailable)},
		products,
		&passthroughRanker{},
	)

	res, err := svc.Search(context.Background(), &Request{Query: "shoes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Fallback {
		t.Fatal("expected fallback result")
	}
}

func TestSearch_NoMatchesIsEmptyNotError(t *testing.T) {
	svc := testService(
		&mockEmbedder{vector: []float32{1}},
		&mockRetriever{},
		&mockProducts{},
		&passthroughRanker{},
	)

	res, err := svc.Search(context.Background(), &Request{Query: "quantum yodel machine"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 0 {
		t.Errorf("items: got %d, want 0", len(res.Items))
	}
}

func TestSearch_MetadataErrorFailsRequest(t *testing.T) {
	svc := testService(
		&mockEmbedder{vector: []float32{1}},
		&mockRetriever{candidates: []domain.Candidate{{ProductID: "a", Similarity: 0.9}}},
		&mockProducts{multiErr: errors.New("store down")},
		&passthroughRanker{},
	)

	if _, err := svc.Search(context.Background(), &Request{Query: "shoes"}); err == nil {
		t.Fatal("expected error when metadata load fails entirely")
	}
}
