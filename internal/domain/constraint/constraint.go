// Package constraint holds the structured filter model shared by the intent
// extractor, the merger, and the candidate filter. A nil pointer field means
// "no constraint", never zero.
package constraint

import (
	"strings"

	"github.com/shopsense/searchcore/internal/domain"
)

// Constraints is one provenance-neutral set of structured filters. Two
// transient instances exist per request (extracted from text, explicit from
// the caller); Merge folds them into the single effective value the pipeline
// uses.
type Constraints struct {
	PriceMin   *float64
	PriceMax   *float64
	RatingMin  *float64
	Category   string
	Brand      string
	Attributes []string
	FuzzyPrice bool
	Conflict   bool
}

// Empty reports whether no constraint field is set. Flags alone do not count:
// a conflict over absent bounds cannot filter anything.
func (c *Constraints) Empty() bool {
	return c.PriceMin == nil && c.PriceMax == nil && c.RatingMin == nil &&
		c.Category == "" && c.Brand == "" && len(c.Attributes) == 0
}

// Merge reconciles text-extracted constraints with explicitly supplied
// filters. Explicit fields win field-by-field; unset explicit fields fall back
// to extracted values. Conflict is the OR of both sources plus a fresh check
// of the effective bounds, and is never silently dropped.
func Merge(extracted Constraints, explicit *Constraints) Constraints {
	eff := extracted

	if explicit != nil {
		if explicit.PriceMin != nil {
			eff.PriceMin = explicit.PriceMin
		}
		if explicit.PriceMax != nil {
			eff.PriceMax = explicit.PriceMax
		}
		if explicit.RatingMin != nil {
			eff.RatingMin = explicit.RatingMin
		}
		if explicit.Category != "" {
			eff.Category = explicit.Category
		}
		if explicit.Brand != "" {
			eff.Brand = explicit.Brand
		}
		if len(explicit.Attributes) > 0 {
			eff.Attributes = explicit.Attributes
		}
		eff.FuzzyPrice = eff.FuzzyPrice || explicit.FuzzyPrice
		eff.Conflict = eff.Conflict || explicit.Conflict
	}

	if eff.PriceMin != nil && eff.PriceMax != nil && *eff.PriceMin > *eff.PriceMax {
		eff.Conflict = true
	}

	return eff
}

// PriceBounds returns the bounds to filter with. When the stored pair is
// inverted the values are swapped here; the originals stay on the struct for
// display and explanation.
func (c *Constraints) PriceBounds() (lo, hi *float64) {
	lo, hi = c.PriceMin, c.PriceMax
	if lo != nil && hi != nil && *lo > *hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// Satisfies reports whether the product passes every set constraint field.
// Unset fields always pass. Category and brand compare exactly,
// case-insensitively; attributes require every requested attribute to be
// present on the product.
func (c *Constraints) Satisfies(p *domain.Product) bool {
	lo, hi := c.PriceBounds()
	if lo != nil && p.Price < *lo {
		return false
	}
	if hi != nil && p.Price > *hi {
		return false
	}
	if c.RatingMin != nil && p.Rating < *c.RatingMin {
		return false
	}
	if c.Category != "" && !strings.EqualFold(c.Category, p.Category) {
		return false
	}
	if c.Brand != "" && !strings.EqualFold(c.Brand, p.Brand) {
		return false
	}
	for _, attr := range c.Attributes {
		if !p.HasAttribute(attr) {
			return false
		}
	}
	return true
}
