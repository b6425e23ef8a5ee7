// Package search orchestrates the query pipeline: intent extraction,
// constraint merging, semantic retrieval, filtering, ranking, and explanation.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shopsense/searchcore/internal/domain"
	"github.com/shopsense/searchcore/internal/domain/constraint"
	"github.com/shopsense/searchcore/internal/domain/explain"
	"github.com/shopsense/searchcore/internal/domain/intent"
	"github.com/shopsense/searchcore/internal/logger"
	"github.com/shopsense/searchcore/internal/metrics"
	"github.com/shopsense/searchcore/internal/usecase/ranking"
)

// Config holds orchestration limits.
type Config struct {
	DefaultLimit int
	MaxLimit     int
	// CandidateMultiplier widens retrieval beyond the page size so filtering
	// still fills a page.
	CandidateMultiplier int
	// FallbackScanCap bounds the catalog scan on the non-semantic path.
	FallbackScanCap int
	// EngagementExplainThreshold gates the engagement clause in explanations.
	EngagementExplainThreshold float64
}

// Request is one search invocation. Explicit constraints, when present, take
// precedence over whatever the query text implies.
type Request struct {
	Query       string
	Constraints *constraint.Constraints
	Limit       int
}

// Item is one explained, ranked result.
type Item struct {
	Product         *domain.Product
	Score           float64
	Similarity      float64
	EngagementRatio float64
	ColdStart       bool
	Explanation     string
}

// Result is a completed search. Fallback marks results produced without
// semantic retrieval. An empty Items slice is a valid outcome, not an error.
type Result struct {
	Items       []Item
	Cleaned     string
	Constraints constraint.Constraints
	Fallback    bool
}

// Service runs the search pipeline.
type Service struct {
	cfg       Config
	embedder  domain.Embedder
	retriever Retriever
	products  ProductReader
	ranker    Ranker
}

// New creates the search orchestrator.
func New(cfg Config, embedder domain.Embedder, retriever Retriever, products ProductReader, ranker Ranker) *Service {
	return &Service{cfg: cfg, embedder: embedder, retriever: retriever, products: products, ranker: ranker}
}

// Search executes the full pipeline. Retrieval or embedding failures degrade
// to a constraint-only catalog scan instead of failing the request.
func (s *Service) Search(ctx context.Context, req *Request) (*Result, error) {
	log := logger.FromContext(ctx)

	query := strings.TrimSpace(req.Query)
	limit := req.Limit
	switch {
	case limit <= 0:
		limit = s.cfg.DefaultLimit
	case limit > s.cfg.MaxLimit:
		limit = s.cfg.MaxLimit
	}

	var extracted intent.Result
	if query != "" {
		extracted = intent.Extract(query)
	}
	merged := constraint.Merge(extracted.Constraints, req.Constraints)
	if query == "" && merged.Empty() {
		// Nothing to retrieve and nothing to filter by.
		return &Result{Items: []Item{}, Constraints: merged}, nil
	}
	if merged.Conflict {
		log.Info("conflicting price bounds in query, keeping both", zap.String("query", query))
	}

	embedText := extracted.Cleaned
	if embedText == "" {
		embedText = query
	}

	var (
		scored   []ranking.Scored
		fallback bool
		err      error
	)
	if query == "" {
		// Constraint-only request: no text to embed, filter the catalog directly.
		scored, err = s.fallbackScan(ctx, &merged)
		fallback = true
	} else {
		scored, fallback, err = s.retrieve(ctx, embedText, limit, &merged)
	}
	if err != nil {
		return nil, err
	}

	mode := "semantic"
	if fallback {
		mode = "fallback"
	}
	metrics.ObserveSearch(mode, len(scored))

	ranked := s.ranker.Rank(ctx, query, scored)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	items := make([]Item, len(ranked))
	for i, r := range ranked {
		items[i] = Item{
			Product:         r.Product,
			Score:           r.Score,
			Similarity:      r.Similarity,
			EngagementRatio: r.EngagementRatio,
			ColdStart:       r.ColdStart,
			Explanation: explain.Build(explain.Input{
				Query:           embedText,
				Constraints:     merged,
				Similarity:      r.Similarity,
				EngagementRatio: r.EngagementRatio,
				ColdStart:       r.ColdStart,
				Fallback:        fallback,
			}, s.cfg.EngagementExplainThreshold),
		}
	}

	return &Result{
		Items:       items,
		Cleaned:     extracted.Cleaned,
		Constraints: merged,
		Fallback:    fallback,
	}, nil
}

// retrieve produces constraint-satisfying scored candidates, degrading from
// the semantic path to a bounded catalog scan when embedding or the vector
// index is unavailable.
func (s *Service) retrieve(
	ctx context.Context, embedText string, limit int, merged *constraint.Constraints,
) ([]ranking.Scored, bool, error) {
	log := logger.FromContext(ctx)

	emb, err := s.embedder.Embed(ctx, embedText)
	if err != nil {
		log.Warn("embedding failed, using fallback retrieval", zap.Error(err))
		scored, ferr := s.fallbackScan(ctx, merged)
		return scored, true, ferr
	}

	fetchK := limit * s.cfg.CandidateMultiplier
	candidates, err := s.retriever.Nearest(ctx, emb.Embedding, fetchK)
	if err != nil {
		if !errors.Is(err, domain.ErrRetrievalUnavailable) {
			return nil, false, err
		}
		log.Warn("vector index unavailable, using fallback retrieval", zap.Error(err))
		scored, ferr := s.fallbackScan(ctx, merged)
		return scored, true, ferr
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ProductID
	}
	products, err := s.products.GetMulti(ctx, ids)
	if err != nil {
		return nil, false, fmt.Errorf("load candidate metadata: %w", err)
	}

	scored := make([]ranking.Scored, 0, len(candidates))
	for i, c := range candidates {
		p := products[i]
		if p == nil {
			// Index entry without a hash, likely a partially deleted product.
			log.Warn("skipping candidate without metadata", zap.String("product_id", c.ProductID))
			continue
		}
		if !merged.Satisfies(p) {
			continue
		}
		scored = append(scored, ranking.Scored{Product: p, Similarity: c.Similarity})
	}
	return scored, false, nil
}

// fallbackScan filters a bounded catalog enumeration by constraints. All
// survivors share a neutral similarity so engagement alone decides order.
func (s *Service) fallbackScan(ctx context.Context, merged *constraint.Constraints) ([]ranking.Scored, error) {
	products, err := s.products.Scan(ctx, s.cfg.FallbackScanCap)
	if err != nil {
		return nil, fmt.Errorf("fallback scan: %w", err)
	}
	scored := make([]ranking.Scored, 0, len(products))
	for _, p := range products {
		if !merged.Satisfies(p) {
			continue
		}
		scored = append(scored, ranking.Scored{Product: p, Similarity: 1})
	}
	return scored, nil
}
