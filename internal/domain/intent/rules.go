package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopsense/searchcore/internal/domain/constraint"
)

// rule inspects the query text, records any constraints it recognizes, and
// returns the text with its matched spans removed. Rules are independent and
// composed left-to-right.
type rule func(text string, c *constraint.Constraints) string

// Rating runs before price: "rating above 4" must never be read as a lower
// price bound.
var rules = []rule{
	ratingRule,
	priceRule,
	fuzzyPriceRule,
	categoryRule,
	brandRule,
	attributeRule,
}

// number matches an amount with an optional currency marker and thousands
// separators; the capture group is the numeric part.
const number = `(?:[₹$€£]\s*|rs\.?\s*)?(\d+(?:,\d{3})*(?:\.\d+)?)`

var (
	rangePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:between|from)\s+` + number + `\s+(?:and|to)\s+` + number + `\b`),
		regexp.MustCompile(`(?i)\bin\s+the\s+range\s+of\s+` + number + `\s+to\s+` + number + `\b`),
	}
	upperPattern = regexp.MustCompile(
		`(?i)\b(?:under|below|less\s+than|cheaper\s+than|up\s*to|at\s+most|within|` +
			`max(?:imum)?(?:\s+of)?|not\s+more\s+than)\s+` + number + `\b`)
	lowerPattern = regexp.MustCompile(
		`(?i)\b(?:over|above|more\s+than|at\s+least|starting\s+(?:from|at)|` +
			`min(?:imum)?(?:\s+of)?)\s+` + number + `\b`)
	approxPattern = regexp.MustCompile(
		`(?i)\b(?:around|about|approx(?:imately)?|near)\s+` + number + `\b`)

	connective = `(?:(?:with|and)\s+)?`

	ratingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b` + connective +
			`(?:rating|rated)\s+(?:above|over|more\s+than|at\s+least)\s+(\d+(?:\.\d+)?)\b`),
		regexp.MustCompile(`(?i)\b` + connective + `at\s+least\s+(\d+(?:\.\d+)?)\s+stars?\b`),
		regexp.MustCompile(`(?i)\b` + connective + `(\d+(?:\.\d+)?)\+\s*(?:stars?|rating)\b`),
		regexp.MustCompile(`(?i)\b` + connective + `rating\s+(?:of\s+)?(\d+(?:\.\d+)?)\+`),
	}
	highRatedPattern = regexp.MustCompile(`(?i)\b` + connective + `(?:highly|best|top)[-\s]rated\b`)

	wordPattern = regexp.MustCompile(`[a-zA-Z]+`)
)

// highlyRatedMin is the implied threshold for "highly rated" style phrasing.
const highlyRatedMin = 4.5

// approxMargin widens an approximate price into an upper bound: "around X"
// becomes price_max = X * approxMargin with the fuzzy flag set.
const approxMargin = 1.2

func parseAmount(s string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return v
}

// cutSpan removes text[start:end], leaving a single space so surrounding
// tokens do not fuse.
func cutSpan(text string, start, end int) string {
	return text[:start] + " " + text[end:]
}

func ratingRule(text string, c *constraint.Constraints) string {
	for _, p := range ratingPatterns {
		loc := p.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		v := parseAmount(text[loc[2]:loc[3]])
		if v < 0 {
			v = 0
		}
		if v > 5 {
			v = 5
		}
		c.RatingMin = &v
		return cutSpan(text, loc[0], loc[1])
	}

	if loc := highRatedPattern.FindStringIndex(text); loc != nil {
		v := highlyRatedMin
		c.RatingMin = &v
		return cutSpan(text, loc[0], loc[1])
	}

	return text
}

func priceRule(text string, c *constraint.Constraints) string {
	for _, p := range rangePatterns {
		loc := p.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		lo := parseAmount(text[loc[2]:loc[3]])
		hi := parseAmount(text[loc[4]:loc[5]])
		c.PriceMin, c.PriceMax = &lo, &hi
		if lo > hi {
			c.Conflict = true
		}
		return cutSpan(text, loc[0], loc[1])
	}

	// Upper and lower bounds may both appear; both are kept so a conflicting
	// pair is flagged rather than silently discarded.
	if loc := upperPattern.FindStringSubmatchIndex(text); loc != nil {
		hi := parseAmount(text[loc[2]:loc[3]])
		c.PriceMax = &hi
		text = cutSpan(text, loc[0], loc[1])
	}
	if loc := lowerPattern.FindStringSubmatchIndex(text); loc != nil {
		lo := parseAmount(text[loc[2]:loc[3]])
		c.PriceMin = &lo
		text = cutSpan(text, loc[0], loc[1])
	}
	if c.PriceMin != nil && c.PriceMax != nil {
		if *c.PriceMin > *c.PriceMax {
			c.Conflict = true
		}
		return text
	}
	if c.PriceMin != nil || c.PriceMax != nil {
		return text
	}

	if loc := approxPattern.FindStringSubmatchIndex(text); loc != nil {
		hi := parseAmount(text[loc[2]:loc[3]]) * approxMargin
		c.PriceMax = &hi
		c.FuzzyPrice = true
		text = cutSpan(text, loc[0], loc[1])
	}

	return text
}

func fuzzyPriceRule(text string, c *constraint.Constraints) string {
	for _, w := range wordPattern.FindAllString(text, -1) {
		if _, ok := fuzzyPriceKeywords[strings.ToLower(w)]; ok {
			c.FuzzyPrice = true
			break
		}
	}
	return text
}

// categoryRule matches the category vocabulary but keeps the token in the
// text: "shoes" is both a filter and the semantic core of the query.
func categoryRule(text string, c *constraint.Constraints) string {
	if c.Category != "" {
		return text
	}
	for _, w := range wordPattern.FindAllString(text, -1) {
		lw := strings.ToLower(w)
		if cat, ok := categorySynonyms[lw]; ok {
			c.Category = cat
			return text
		}
		if _, ok := knownCategories[lw]; ok {
			c.Category = lw
			return text
		}
	}
	return text
}

func brandRule(text string, c *constraint.Constraints) string {
	if c.Brand != "" {
		return text
	}
	for _, w := range wordPattern.FindAllString(text, -1) {
		lw := strings.ToLower(w)
		if _, ok := knownBrands[lw]; ok {
			c.Brand = lw
			return text
		}
	}
	return text
}

func attributeRule(text string, c *constraint.Constraints) string {
	seen := make(map[string]struct{}, len(c.Attributes))
	for _, a := range c.Attributes {
		seen[a] = struct{}{}
	}
	for _, w := range wordPattern.FindAllString(text, -1) {
		lw := strings.ToLower(w)
		if _, ok := knownAttributes[lw]; !ok {
			continue
		}
		if _, dup := seen[lw]; dup {
			continue
		}
		seen[lw] = struct{}{}
		c.Attributes = append(c.Attributes, lw)
	}
	return text
}
