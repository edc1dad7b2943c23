package retrieval

import "strings"

const (
	expansionSkipThreshold = 3
	expansionMaxSources    = 2
)

// Expander rewrites weak queries with the institutional synonym table.
type Expander struct {
	vocab *Vocabulary
}

func NewExpander(vocab *Vocabulary) *Expander {
	return &Expander{vocab: vocab}
}

// MaybeExpand is single shot: it only looks at the query it is given, so the
// caller must not feed an expanded query back in.
func (e *Expander) MaybeExpand(query string, sourcesFound int) (bool, string) {
	if sourcesFound >= expansionSkipThreshold {
		return false, query
	}

	normalized := strings.Join(Tokens(query), " ")
	var phrases []string
	for _, entry := range e.vocab.expansions {
		if strings.Contains(normalized, entry.Key) {
			phrases = append(phrases, entry.Phrase)
		}
	}
	if len(phrases) == 0 || sourcesFound >= expansionMaxSources {
		return false, query
	}
	return true, strings.TrimSpace(query) + " " + strings.Join(phrases, " ")
}
