package retrieval

import (
	"context"
	"log/slog"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

const (
	DefaultMinRelevance = 0.5
	minRelevantSources  = 3
)

type EngineOptions struct {
	// MinRelevance is the relevance score a ranked candidate needs to count as a source.
	MinRelevance float64
	// MaxSources caps the caller supplied limit. Zero disables the cap.
	MaxSources int
}

// Engine runs optimize, retrieve, dedupe, rank and the single expansion retry.
type Engine struct {
	optimizer *Optimizer
	retriever *Retriever
	ranker    *Ranker
	expander  *Expander

	minRelevance float64
	maxSources   int
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	Config domain.SearchConfig
	// RankQuery is the text the final ranking was computed against.
	RankQuery     string
	Expanded      bool
	ExpandedQuery string
	// Ranked holds every deduplicated candidate in final order.
	Ranked []domain.Candidate
	// Sources holds the relevant candidates truncated to the limit.
	Sources     []domain.Candidate
	Unavailable bool
	Limit       int
}

func NewEngine(vocab *Vocabulary, embedder ports.Embedder, store ports.ChunkStore, opts EngineOptions) *Engine {
	if opts.MinRelevance <= 0 {
		opts.MinRelevance = DefaultMinRelevance
	}
	return &Engine{
		optimizer:    NewOptimizer(vocab),
		retriever:    NewRetriever(embedder, store, vocab),
		ranker:       NewRanker(vocab),
		expander:     NewExpander(vocab),
		minRelevance: opts.MinRelevance,
		maxSources:   opts.MaxSources,
	}
}

// Run never returns an error: store failures are reported through
// Outcome.Unavailable and degrade to fewer or no sources.
func (e *Engine) Run(ctx context.Context, query string, limit int) Outcome {
	cfg := e.optimizer.Optimize(query)
	if limit <= 0 {
		limit = cfg.NResults
	}
	if e.maxSources > 0 && limit > e.maxSources {
		limit = e.maxSources
	}
	out := Outcome{Config: cfg, RankQuery: query, Limit: limit}

	found, err := e.retriever.Retrieve(ctx, query, cfg)
	if err != nil {
		out.Unavailable = true
	}
	ranked := e.ranker.Rank(Dedupe(found), query)
	relevant := e.relevant(ranked)

	if len(relevant) < minRelevantSources {
		if ok, expanded := e.expander.MaybeExpand(query, len(relevant)); ok {
			slog.Info("query_expanded", "strategy", cfg.Strategy, "sources_found", len(relevant))
			out.Expanded = true
			out.ExpandedQuery = expanded
			out.RankQuery = expanded

			more, err := e.retriever.Retrieve(ctx, expanded, cfg)
			if err != nil {
				out.Unavailable = true
			}
			ranked = e.ranker.Rank(Dedupe(mergeCandidates(found, more)), expanded)
			relevant = e.relevant(ranked)
		}
	}

	if len(relevant) > limit {
		relevant = relevant[:limit]
	}
	out.Ranked = ranked
	out.Sources = relevant
	return out
}

// Explain scores the first limit ranked candidates term by term.
func (e *Engine) Explain(out Outcome) []domain.RankedSource {
	ranked := out.Ranked
	if out.Limit > 0 && len(ranked) > out.Limit {
		ranked = ranked[:out.Limit]
	}
	return e.ranker.Explain(ranked, out.RankQuery)
}

func (e *Engine) relevant(ranked []domain.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(ranked))
	for _, c := range ranked {
		if c.RelevanceScore >= e.minRelevance {
			out = append(out, c)
		}
	}
	return out
}

// Err reports why an outcome has no sources: ErrRetrievalUnavailable when a store
// call failed, ErrNoRelevantResults when ranking kept nothing, nil otherwise.
func (o Outcome) Err() error {
	if len(o.Sources) > 0 {
		return nil
	}
	if o.Unavailable {
		return domain.ErrRetrievalUnavailable
	}
	return domain.ErrNoRelevantResults
}
