// Package intent turns free-form query text into a cleaned semantic query
// plus structured constraints. Extraction is deterministic and pure: it never
// filters or ranks, and re-running it on its own cleaned output finds no
// further constraints.
package intent

import (
	"regexp"
	"strings"

	"github.com/shopsense/searchcore/internal/domain/constraint"
)

// Result is the immutable outcome of one extraction pass.
type Result struct {
	// Cleaned is the query with constraint spans removed, remaining tokens in
	// original order.
	Cleaned string
	// Constraints carries everything recognized in the text.
	Constraints constraint.Constraints
}

var whitespace = regexp.MustCompile(`\s+`)

// Connectives left dangling once a constraint span is cut out of the text.
var danglingWords = map[string]struct{}{
	"with": {}, "and": {}, "for": {}, "in": {}, "at": {}, "of": {}, "the": {},
}

// Extract parses raw query text into a cleaned query and extracted
// constraints. Price and rating spans are removed from the text;
// category, brand, and attribute tokens stay because they carry the
// semantic meaning retrieval needs.
func Extract(query string) Result {
	var c constraint.Constraints

	text := query
	for _, r := range rules {
		text = r(text, &c)
	}

	return Result{
		Cleaned:     tidy(text),
		Constraints: c,
	}
}

// tidy collapses whitespace and strips connectives left dangling at either
// end after span removal ("running shoes with" -> "running shoes").
func tidy(text string) string {
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	words := strings.Fields(text)

	for len(words) > 0 {
		if _, ok := danglingWords[strings.ToLower(words[len(words)-1])]; !ok {
			break
		}
		words = words[:len(words)-1]
	}
	for len(words) > 0 {
		if _, ok := danglingWords[strings.ToLower(words[0])]; !ok {
			break
		}
		words = words[1:]
	}

	return strings.Join(words, " ")
}
