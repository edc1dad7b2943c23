package retrieval

import (
	"strings"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

const shortQueryTokens = 2

// DefaultSearchConfig is returned for queries that match no pattern, including "".
func DefaultSearchConfig() domain.SearchConfig {
	return domain.SearchConfig{
		NResults:            5,
		SimilarityThreshold: 0.35,
		BoostKeywords:       false,
		Strategy:            domain.StrategyBalanced,
	}
}

// Optimizer picks search breadth from the shape of the query.
type Optimizer struct {
	vocab *Vocabulary
}

func NewOptimizer(vocab *Vocabulary) *Optimizer {
	return &Optimizer{vocab: vocab}
}

// Optimize never fails. Rules apply in order: broad, then specific/priority
// (overrides broad), then the short-query override on top of either.
func (o *Optimizer) Optimize(query string) domain.SearchConfig {
	cfg := DefaultSearchConfig()
	lowered := strings.ToLower(strings.TrimSpace(query))
	if lowered == "" {
		return cfg
	}

	if matchesAny(o.vocab.broad, lowered) {
		cfg = domain.SearchConfig{
			NResults:            8,
			SimilarityThreshold: 0.30,
			Strategy:            domain.StrategyBroad,
		}
	}

	priority := len(o.vocab.priorityIn(Fold(lowered))) > 0
	if priority || matchesAny(o.vocab.specific, lowered) {
		cfg = domain.SearchConfig{
			NResults:            6,
			SimilarityThreshold: 0.35,
			BoostKeywords:       priority,
			Strategy:            domain.StrategySpecific,
		}
	}

	if n := len(Tokens(lowered)); n > 0 && n <= shortQueryTokens {
		cfg.NResults = 6
		cfg.SimilarityThreshold = 0.30
	}
	return cfg
}
