package chi

import (
	"time"

	"github.com/shopsense/searchcore/internal/domain"
	"github.com/shopsense/searchcore/internal/domain/constraint"
)

type constraintsDTO struct {
	PriceMin   *float64 `json:"price_min,omitempty"`
	PriceMax   *float64 `json:"price_max,omitempty"`
	RatingMin  *float64 `json:"rating_min,omitempty"`
	Category   string   `json:"category,omitempty"`
	Brand      string   `json:"brand,omitempty"`
	Attributes []string `json:"attributes,omitempty"`
	FuzzyPrice bool     `json:"fuzzy_price,omitempty"`
	Conflict   bool     `json:"conflict,omitempty"`
}

func (d *constraintsDTO) toDomain() *constraint.Constraints {
	if d == nil {
		return nil
	}
	return &constraint.Constraints{
		PriceMin:   d.PriceMin,
		PriceMax:   d.PriceMax,
		RatingMin:  d.RatingMin,
		Category:   d.Category,
		Brand:      d.Brand,
		Attributes: d.Attributes,
	}
}

func constraintsToDTO(c constraint.Constraints) constraintsDTO {
	return constraintsDTO{
		PriceMin:   c.PriceMin,
		PriceMax:   c.PriceMax,
		RatingMin:  c.RatingMin,
		Category:   c.Category,
		Brand:      c.Brand,
		Attributes: c.Attributes,
		FuzzyPrice: c.FuzzyPrice,
		Conflict:   c.Conflict,
	}
}

type searchRequest struct {
	Query       string          `json:"query"`
	Limit       int             `json:"limit,omitempty"`
	Constraints *constraintsDTO `json:"constraints,omitempty"`
}

type productDTO struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating"`
	Category    string   `json:"category,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Attributes  []string `json:"attributes,omitempty"`
}

func productToDTO(p *domain.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Rating:      p.Rating,
		Category:    p.Category,
		Brand:       p.Brand,
		Attributes:  p.Attributes,
	}
}

// searchResultDTO is a flat result row: product fields alongside the scores.
type searchResultDTO struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Price           float64  `json:"price"`
	Rating          float64  `json:"rating"`
	Category        string   `json:"category,omitempty"`
	Brand           string   `json:"brand,omitempty"`
	Attributes      []string `json:"attributes,omitempty"`
	Score           float64  `json:"score"`
	SimilarityScore float64  `json:"similarity_score"`
	EngagementRatio float64  `json:"engagement_ratio"`
	ColdStart       bool     `json:"cold_start,omitempty"`
	Explanation     string   `json:"explanation"`
}

type searchResponse struct {
	Query        string            `json:"query"`
	CleanedQuery string            `json:"cleaned_query"`
	Constraints  constraintsDTO    `json:"constraints"`
	Fallback     bool              `json:"fallback,omitempty"`
	Count        int               `json:"count"`
	Results      []searchResultDTO `json:"results"`
}

type eventRequest struct {
	Type      string     `json:"type"`
	Query     string     `json:"query"`
	ProductID string     `json:"product_id,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type productUpsertRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating"`
	Category    string   `json:"category,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Attributes  []string `json:"attributes,omitempty"`
}

type healthResponse struct {
	Healthy    bool              `json:"healthy"`
	Components map[string]string `json:"components"`
}
