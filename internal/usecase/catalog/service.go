// Package catalog manages product writes: validation, embedding, and
// persistence into the indexed hash namespace.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopsense/searchcore/internal/domain"
)

// Store persists products with their vectors.
type Store interface {
	Upsert(ctx context.Context, p *domain.Product, vector []float32) error
	Get(ctx context.Context, id string) (*domain.Product, error)
}

// Service embeds and stores catalog entries.
type Service struct {
	store    Store
	embedder domain.Embedder
}

// New creates a catalog service.
func New(store Store, embedder domain.Embedder) *Service {
	return &Service{store: store, embedder: embedder}
}

// Upsert validates a product, embeds its text, and writes both in one hash.
// Re-upserting re-embeds; the index picks up the new vector in place.
func (s *Service) Upsert(ctx context.Context, p *domain.Product) error {
	if err := validate(p); err != nil {
		return err
	}

	emb, err := s.embedder.Embed(ctx, embedText(p))
	if err != nil {
		return fmt.Errorf("embed product %s: %w", p.ID, err)
	}
	return s.store.Upsert(ctx, p, emb.Embedding)
}

// Get loads one product.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidRequest)
	}
	return s.store.Get(ctx, id)
}

// embedText is the embedded document: title carries most signal, description
// adds context.
func embedText(p *domain.Product) string {
	if p.Description == "" {
		return p.Title
	}
	return p.Title + ". " + p.Description
}

func validate(p *domain.Product) error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("%w: product id is required", domain.ErrInvalidRequest)
	case strings.TrimSpace(p.Title) == "":
		return fmt.Errorf("%w: product title is required", domain.ErrInvalidRequest)
	case p.Price < 0:
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidRequest)
	case p.Rating < 0 || p.Rating > 5:
		return fmt.Errorf("%w: rating must be between 0 and 5", domain.ErrInvalidRequest)
	}
	return nil
}
