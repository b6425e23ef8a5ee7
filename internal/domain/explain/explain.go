// Package explain derives human-readable result justifications strictly from
// the factors the ranking step actually used. It never re-derives scores and
// never mentions a constraint that was not set.
package explain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopsense/searchcore/internal/domain/constraint"
)

// Input is the factor snapshot for one ranked result, produced by the ranking
// step and consumed here unchanged.
type Input struct {
	Query           string
	Constraints     constraint.Constraints
	Similarity      float64
	EngagementRatio float64
	ColdStart       bool
	// Fallback marks results from the constraint-only path, where no
	// similarity is available.
	Fallback bool
}

// Build assembles the explanation in fixed clause order: semantic match,
// satisfied constraints, engagement (above the threshold only, phrased
// qualitatively), closing relevance percentage.
func Build(in Input, engagementThreshold float64) string {
	var clauses []string

	if in.Fallback {
		clauses = append(clauses, "relevance unavailable, filtered by criteria only")
	} else if in.Query != "" {
		clauses = append(clauses, fmt.Sprintf("matches your search for %q", in.Query))
	}

	if clause := priceClause(&in.Constraints); clause != "" {
		clauses = append(clauses, clause)
	}
	if in.Constraints.RatingMin != nil {
		clauses = append(clauses, "rated "+trimFloat(*in.Constraints.RatingMin)+" or higher")
	}
	if in.Constraints.Category != "" {
		clauses = append(clauses, "in the "+in.Constraints.Category+" category")
	}
	if in.Constraints.Brand != "" {
		clauses = append(clauses, "from "+in.Constraints.Brand)
	}

	if !in.ColdStart && in.EngagementRatio > engagementThreshold {
		clauses = append(clauses, "frequently chosen by shoppers who ran this search")
	}

	if !in.Fallback {
		pct := int(math.Round(in.Similarity * 100))
		clauses = append(clauses, strconv.Itoa(pct)+"% relevance match")
	}

	if len(clauses) == 0 {
		return "Matched your criteria."
	}

	text := strings.Join(clauses, "; ")
	return strings.ToUpper(text[:1]) + text[1:] + "."
}

// priceClause phrases the applied price bounds. A conflicting pair is stated
// openly with the swapped bounds actually used for filtering.
func priceClause(c *constraint.Constraints) string {
	if c.PriceMin == nil && c.PriceMax == nil {
		return ""
	}

	lo, hi := c.PriceBounds()
	switch {
	case c.Conflict && lo != nil && hi != nil:
		return fmt.Sprintf("your price bounds conflicted (min %s exceeds max %s), so results are priced between %s and %s",
			trimFloat(*c.PriceMin), trimFloat(*c.PriceMax), trimFloat(*lo), trimFloat(*hi))
	case lo != nil && hi != nil:
		return fmt.Sprintf("priced between %s and %s", trimFloat(*lo), trimFloat(*hi))
	case hi != nil:
		return "priced under " + trimFloat(*hi)
	default:
		return "priced above " + trimFloat(*lo)
	}
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
