// Package ranking combines semantic similarity with decayed behavioral
// engagement into the final result order.
package ranking

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/shopsense/searchcore/internal/domain"
	"github.com/shopsense/searchcore/internal/logger"
)

// Weights is the per-event-type weight table.
type Weights struct {
	Search   float64
	Click    float64
	Cart     float64
	Purchase float64
}

// Config holds every ranking parameter; nothing here is hard-coded in the
// scoring path.
type Config struct {
	Weights             Weights
	BoostFactor         float64
	MaxEngagement       float64
	DecayBase           float64
	DecayPeriodDays     float64
	ColdStartConfidence float64
	ExplorationRate     float64
	ExplorationBoost    float64
}

// Scored is a constraint-satisfying candidate entering ranking.
type Scored struct {
	Product    *domain.Product
	Similarity float64
}

// Ranked is a fully scored result.
type Ranked struct {
	Product         *domain.Product
	Similarity      float64
	EngagementRatio float64
	ColdStart       bool
	Explored        bool
	Score           float64
}

// Service ranks candidates. now and randFloat are injectable for tests.
type Service struct {
	cfg        Config
	engagement EngagementReader
	now        func() time.Time
	randFloat  func() float64
}

// New creates a ranking service with wall-clock time and the global
// rand source.
func New(cfg Config, engagement EngagementReader) *Service {
	return &Service{
		cfg:        cfg,
		engagement: engagement,
		now:        time.Now,
		randFloat:  rand.Float64,
	}
}

// Rank orders candidates by similarity multiplied with an engagement boost.
// Ordering is stable: candidates with equal scores keep their retrieval order.
// An unavailable engagement store degrades to similarity-only ranking rather
// than failing the search.
func (s *Service) Rank(ctx context.Context, query string, candidates []Scored) []Ranked {
	log := logger.FromContext(ctx)
	now := s.now()

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.Product.ID
	}

	records, err := s.engagement.Collect(ctx, query, ids, now)
	if err != nil {
		log.Warn("engagement unavailable, ranking on similarity only", zap.Error(err))
		records = nil
	}

	categoryRatios := make(map[string]float64)
	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		r := Ranked{Product: c.Product, Similarity: c.Similarity}
		rec := records[c.Product.ID]

		switch {
		case records == nil:
			// Degraded: no behavioral signal at all.
		case rec.Interactions():
			r.EngagementRatio = s.ratio(rec, now)
		default:
			r.ColdStart = true
			r.EngagementRatio = s.coldStartRatio(ctx, c.Product.Category, categoryRatios, now)
			if s.randFloat() < s.cfg.ExplorationRate {
				r.Explored = true
				r.EngagementRatio += s.cfg.ExplorationBoost
			}
		}

		boost := 1 + r.EngagementRatio*s.cfg.BoostFactor
		r.Score = c.Similarity * boost
		ranked[i] = r
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// ratio is decayed weighted engagement over decayed search impressions,
// clamped so a single hot product cannot outgrow the boost cap.
func (s *Service) ratio(rec domain.EngagementRecord, now time.Time) float64 {
	searches := decayedCount(rec.Searches, now, s.cfg.DecayBase, s.cfg.DecayPeriodDays)
	if searches == 0 {
		return 0
	}
	engagement := s.cfg.Weights.Click*decayedCount(rec.Clicks, now, s.cfg.DecayBase, s.cfg.DecayPeriodDays) +
		s.cfg.Weights.Cart*decayedCount(rec.Carts, now, s.cfg.DecayBase, s.cfg.DecayPeriodDays) +
		s.cfg.Weights.Purchase*decayedCount(rec.Purchases, now, s.cfg.DecayBase, s.cfg.DecayPeriodDays)

	ratio := engagement / searches
	if ratio > s.cfg.MaxEngagement {
		ratio = s.cfg.MaxEngagement
	}
	return ratio
}

// coldStartRatio borrows the category-wide ratio at reduced confidence.
// Ratios are memoized per category within one ranking pass.
func (s *Service) coldStartRatio(
	ctx context.Context, category string, cache map[string]float64, now time.Time,
) float64 {
	if category == "" {
		return 0
	}
	if ratio, ok := cache[category]; ok {
		return ratio
	}

	var ratio float64
	rec, err := s.engagement.CategoryRecord(ctx, category, now)
	if err != nil {
		logger.FromContext(ctx).Warn("category engagement unavailable",
			zap.String("category", category), zap.Error(err))
	} else {
		ratio = s.ratio(rec, now) * s.cfg.ColdStartConfidence
	}
	cache[category] = ratio
	return ratio
}
