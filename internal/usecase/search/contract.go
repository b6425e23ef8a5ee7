package search

import (
	"context"

	"github.com/shopsense/searchcore/internal/domain"
	"github.com/shopsense/searchcore/internal/usecase/ranking"
)

// Retriever returns nearest-neighbor candidates from the vector index.
type Retriever interface {
	Nearest(ctx context.Context, vector []float32, k int) ([]domain.Candidate, error)
}

// ProductReader loads catalog metadata for candidates and enumerates the
// catalog for the non-semantic fallback.
type ProductReader interface {
	GetMulti(ctx context.Context, ids []string) ([]*domain.Product, error)
	Scan(ctx context.Context, max int) ([]*domain.Product, error)
}

// Ranker orders constraint-satisfying candidates.
type Ranker interface {
	Rank(ctx context.Context, query string, candidates []ranking.Scored) []ranking.Ranked
}
