package retrieval

import (
	"sort"
	"strings"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

const (
	minKeywordTokenLen  = 3
	maxTermOccurrences  = 3
	keywordBoostFactor  = 1.5
	keywordBudgetFactor = 2
)

// KeywordTerm is a normalised search term. Weight is its word count, so
// phrase matches outweigh single tokens.
type KeywordTerm struct {
	Text   string
	Weight float64
}

// KeywordTerms derives the keyword search terms for a query: significant
// query tokens followed by priority terms contained in the query.
func (v *Vocabulary) KeywordTerms(query string) []KeywordTerm {
	tokens := Tokens(query)
	seen := make(map[string]struct{}, len(tokens))
	terms := make([]KeywordTerm, 0, len(tokens))

	add := func(text string) {
		if _, ok := seen[text]; ok {
			return
		}
		seen[text] = struct{}{}
		terms = append(terms, KeywordTerm{Text: text, Weight: float64(len(strings.Fields(text)))})
	}

	for _, token := range tokens {
		if len([]rune(token)) < minKeywordTokenLen || v.isStopWord(token) {
			continue
		}
		add(token)
	}
	for _, term := range v.priorityIn(strings.Join(tokens, " ")) {
		add(term)
	}
	return terms
}

// KeywordScore scores a chunk against terms: each term contributes its weight
// per whole-token occurrence in the text (capped) and once more when it equals
// a metadata keyword.
func KeywordScore(chunk domain.Chunk, terms []KeywordTerm) float64 {
	if len(terms) == 0 {
		return 0
	}
	text := padded(Tokens(chunk.Text))
	keywords := make(map[string]struct{}, len(chunk.Metadata.Keywords))
	for _, kw := range chunk.Metadata.Keywords {
		keywords[strings.Join(strings.Fields(Fold(kw)), " ")] = struct{}{}
	}

	score := 0.0
	for _, term := range terms {
		n := countPadded(text, " "+term.Text+" ")
		if n > maxTermOccurrences {
			n = maxTermOccurrences
		}
		score += term.Weight * float64(n)
		if _, ok := keywords[term.Text]; ok {
			score += term.Weight
		}
	}
	return score
}

// rankKeywordHits scores scanned chunks, drops non-matches and keeps the best
// budget hits ordered by score desc then id.
func rankKeywordHits(chunks []domain.Chunk, terms []KeywordTerm, boost bool, budget int) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(chunks))
	for _, chunk := range chunks {
		score := KeywordScore(chunk, terms)
		if score <= 0 {
			continue
		}
		if boost {
			score *= keywordBoostFactor
		}
		out = append(out, domain.Candidate{Chunk: chunk, KeywordScore: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].KeywordScore != out[j].KeywordScore {
			return out[i].KeywordScore > out[j].KeywordScore
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	if budget > 0 && len(out) > budget {
		out = out[:budget]
	}
	return out
}

func termTexts(terms []KeywordTerm) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		out = append(out, term.Text)
	}
	return out
}

// countPadded counts space-delimited occurrences, letting adjacent matches share
// their separating space.
func countPadded(haystack, needle string) int {
	n := 0
	for {
		i := strings.Index(haystack, needle)
		if i < 0 {
			return n
		}
		n++
		haystack = haystack[i+len(needle)-1:]
	}
}
