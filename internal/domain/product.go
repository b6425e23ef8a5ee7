package domain

import "strings"

// Product is a read-only catalog snapshot used for filtering, ranking, and explanation.
// It is fetched per request from the metadata store and never mutated by the core.
type Product struct {
	ID          string
	Title       string
	Description string
	Price       float64
	Rating      float64
	Category    string
	Brand       string
	Attributes  []string
}

// HasAttribute reports whether the product carries the attribute (case-insensitive).
func (p *Product) HasAttribute(attr string) bool {
	for _, a := range p.Attributes {
		if strings.EqualFold(a, attr) {
			return true
		}
	}
	return false
}

// Candidate is a product returned by semantic retrieval, prior to filtering and ranking.
// Rank preserves the original retrieval position for stable tie-breaking.
type Candidate struct {
	ProductID  string
	Similarity float64
	Rank       int
}
