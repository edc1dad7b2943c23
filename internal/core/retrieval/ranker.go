package retrieval

import (
	"sort"
	"strings"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

const (
	weightMetadataKeyword = 2.0
	weightPriorityTerm    = 1.5
	weightSharedToken     = 0.5
	weightSectionMatch    = 1.0
	penaltyUnstructured   = -0.5
	weightSimilarity      = 3.0
	weightKeywordScore    = 0.25
)

// Ranker assigns relevance scores and orders candidates.
type Ranker struct {
	vocab *Vocabulary
}

func NewRanker(vocab *Vocabulary) *Ranker {
	return &Ranker{vocab: vocab}
}

type rankQuery struct {
	normalized string
	tokens     map[string]struct{}
}

func newRankQuery(query string) rankQuery {
	tokens := Tokens(query)
	return rankQuery{normalized: strings.Join(tokens, " "), tokens: tokenSet(tokens)}
}

// Rank returns a new slice sorted by relevance desc, chunk id asc. No candidate is dropped.
func (r *Ranker) Rank(candidates []domain.Candidate, query string) []domain.Candidate {
	q := newRankQuery(query)
	out := make([]domain.Candidate, len(candidates))
	for i, c := range candidates {
		c.RelevanceScore = r.score(c, q).Total
		out[i] = c
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RelevanceScore != out[j].RelevanceScore {
			return out[i].RelevanceScore > out[j].RelevanceScore
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	return out
}

// Explain returns the per-term breakdown for each candidate in input order.
func (r *Ranker) Explain(candidates []domain.Candidate, query string) []domain.RankedSource {
	q := newRankQuery(query)
	out := make([]domain.RankedSource, 0, len(candidates))
	for _, c := range candidates {
		b := r.score(c, q)
		c.RelevanceScore = b.Total
		out = append(out, domain.RankedSource{Candidate: c, Breakdown: b})
	}
	return out
}

func (r *Ranker) score(c domain.Candidate, q rankQuery) domain.ScoreBreakdown {
	var b domain.ScoreBreakdown
	meta := c.Chunk.Metadata

	// Each distinct folded keyword counts once; repeats in metadata add nothing.
	for _, kw := range normalizeTerms(meta.Keywords) {
		if strings.Contains(q.normalized, kw) {
			b.KeywordMetadata += weightMetadataKeyword
		}
	}

	textTokens := Tokens(c.Chunk.Text)
	b.PriorityTerms = weightPriorityTerm * float64(len(r.vocab.priorityIn(strings.Join(textTokens, " "))))

	shared := 0
	for token := range tokenSet(textTokens) {
		if _, ok := q.tokens[token]; ok {
			shared++
		}
	}
	b.TokenOverlap = weightSharedToken * float64(shared)

	for _, token := range Tokens(meta.Section) {
		if _, ok := q.tokens[token]; ok {
			b.SectionMatch = weightSectionMatch
			break
		}
	}

	if !meta.IsStructured {
		b.Structure = penaltyUnstructured
	}

	b.Semantic = weightSimilarity * c.Similarity
	b.Lexical = weightKeywordScore * c.KeywordScore
	b.Total = b.KeywordMetadata + b.PriorityTerms + b.TokenOverlap + b.SectionMatch + b.Structure + b.Semantic + b.Lexical
	return b
}
