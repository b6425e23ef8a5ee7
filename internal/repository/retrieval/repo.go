// Package retrieval adapts the vector index to candidate retrieval.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopsense/searchcore/internal/db"
	"github.com/shopsense/searchcore/internal/domain"
)

// searcher is the narrow index surface this repository needs.
type searcher interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repository retrieves nearest-neighbor product candidates from the vector index.
type Repository struct {
	store      searcher
	indexName  string
	keyPrefix  string
	dimensions int
}

// New creates a retrieval repository. keyPrefix is the hash key namespace the
// index covers, e.g. "searchcore:product:".
func New(store searcher, indexName, keyPrefix string, dimensions int) *Repository {
	return &Repository{store: store, indexName: indexName, keyPrefix: keyPrefix, dimensions: dimensions}
}

// EnsureIndex creates the HNSW product index if it does not exist yet.
func (r *Repository) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:     r.indexName,
		Prefixes: []string{r.keyPrefix},
		Fields: []db.IndexField{
			{Name: "vector", Type: db.IndexFieldVector, VectorDim: r.dimensions},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", r.indexName, err)
	}
	return nil
}

// Nearest returns up to k candidates ordered by descending similarity.
// Any index failure is reported as domain.ErrRetrievalUnavailable so callers
// can fall back to non-semantic retrieval.
func (r *Repository) Nearest(ctx context.Context, vector []float32, k int) ([]domain.Candidate, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"__vector_score"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRetrievalUnavailable, err)
	}

	candidates := make([]domain.Candidate, 0, len(res.Entries))
	for i, e := range res.Entries {
		candidates = append(candidates, domain.Candidate{
			ProductID:  strings.TrimPrefix(e.Key, r.keyPrefix),
			Similarity: e.Score,
			Rank:       i,
		})
	}
	return candidates, nil
}
