package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopsense/searchcore/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	upserted   *domain.Product
	vector     []float32
	upsertErr  error
	getProduct *domain.Product
	getErr     error
}

func (m *mockStore) Upsert(_ context.Context, p *domain.Product, vector []float32) error {
	m.upserted = p
	m.vector = vector
	return m.upsertErr
}

func (m *mockStore) Get(_ context.Context, _ string) (*domain.Product, error) {
	return m.getProduct, m.getErr
}

type mockEmbedder struct {
	vector   []float32
	err      error
	lastText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.lastText = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vector}, nil
}

func validProduct() *domain.Product {
	return &domain.Product{
		ID:          "p1",
		Title:       "Trail runner",
		Description: "Cushioned running shoe",
		Price:       2999,
		Rating:      4.3,
	}
}

func TestUpsert_EmbedsTitleAndDescription(t *testing.T) {
	store := &mockStore{}
	embedder := &mockEmbedder{vector: []float32{1, 2}}
	svc := New(store, embedder)

	if err := svc.Upsert(context.Background(), validProduct()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if embedder.lastText != "Trail runner. Cushioned running shoe" {
		t.Errorf("embedded text: %q", embedder.lastText)
	}
	if store.upserted == nil || len(store.vector) != 2 {
		t.Errorf("store not called with vector: %+v", store)
	}
}

func TestUpsert_TitleOnlyWhenNoDescription(t *testing.T) {
	embedder := &mockEmbedder{vector: []float32{1}}
	svc := New(&mockStore{}, embedder)

	p := validProduct()
	p.Description = ""
	if err := svc.Upsert(context.Background(), p); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if embedder.lastText != "Trail runner" {
		t.Errorf("embedded text: %q", embedder.lastText)
	}
}

func TestUpsert_Validation(t *testing.T) {
	svc := New(&mockStore{}, &mockEmbedder{vector: []float32{1}})

	tests := []struct {
		name   string
		mutate func(*domain.Product)
	}{
		{"missing id", func(p *domain.Product) { p.ID = " " }},
		{"missing title", func(p *domain.Product) { p.Title = "" }},
		{"negative price", func(p *domain.Product) { p.Price = -1 }},
		{"rating above scale", func(p *domain.Product) { p.Rating = 5.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProduct()
			tt.mutate(p)
			if err := svc.Upsert(context.Background(), p); !errors.Is(err, domain.ErrInvalidRequest) {
				t.Errorf("got %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestUpsert_EmbeddingFailure(t *testing.T) {
	svc := New(&mockStore{}, &mockEmbedder{err: domain.ErrEmbeddingProviderError})

	err := svc.Upsert(context.Background(), validProduct())
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("got %v, want provider error", err)
	}
}

func TestGet_RequiresID(t *testing.T) {
	svc := New(&mockStore{}, &mockEmbedder{})
	if _, err := svc.Get(context.Background(), ""); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("got %v, want ErrInvalidRequest", err)
	}
}
