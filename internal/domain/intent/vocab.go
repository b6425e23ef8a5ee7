package intent

// Category vocabulary, normalized. Tokens here stay in the cleaned query
// because they carry semantic meaning for retrieval.
var knownCategories = map[string]struct{}{
	"shoes":       {},
	"headphones":  {},
	"laptop":      {},
	"electronics": {},
	"accessories": {},
	"clothing":    {},
	"watches":     {},
	"bags":        {},
	"furniture":   {},
	"books":       {},
}

// categorySynonyms maps colloquial tokens onto normalized categories.
var categorySynonyms = map[string]string{
	"sneakers":   "shoes",
	"footwear":   "shoes",
	"earphones":  "headphones",
	"earbuds":    "headphones",
	"mobile":     "electronics",
	"smartphone": "electronics",
	"phone":      "electronics",
}

// Brand vocabulary, matched case-insensitively.
var knownBrands = map[string]struct{}{
	"nike":    {},
	"adidas":  {},
	"puma":    {},
	"sony":    {},
	"apple":   {},
	"samsung": {},
	"lg":      {},
	"dell":    {},
	"hp":      {},
	"lenovo":  {},
	"asus":    {},
	"bose":    {},
	"jbl":     {},
	"boat":    {},
	"realme":  {},
}

// Attribute vocabulary. Deliberately small: an extracted attribute becomes a
// hard subset filter, so only tokens that reliably name product attributes
// belong here.
var knownAttributes = map[string]struct{}{
	"black":      {},
	"white":      {},
	"red":        {},
	"blue":       {},
	"green":      {},
	"grey":       {},
	"gray":       {},
	"silver":     {},
	"gold":       {},
	"wireless":   {},
	"bluetooth":  {},
	"waterproof": {},
	"leather":    {},
	"cotton":     {},
	"portable":   {},
	"foldable":   {},
}

// Fuzzy price keywords set the fuzzy_price flag without a numeric bound.
var fuzzyPriceKeywords = map[string]struct{}{
	"cheap":       {},
	"budget":      {},
	"affordable":  {},
	"economical":  {},
	"inexpensive": {},
	"premium":     {},
	"expensive":   {},
	"luxury":      {},
}
