package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

// Retriever runs the vector and keyword searches against the chunk store and
// merges their hits by chunk id.
type Retriever struct {
	embedder ports.Embedder
	store    ports.ChunkStore
	vocab    *Vocabulary
}

func NewRetriever(embedder ports.Embedder, store ports.ChunkStore, vocab *Vocabulary) *Retriever {
	return &Retriever{embedder: embedder, store: store, vocab: vocab}
}

// Retrieve returns merged candidates ordered vector hits first. When the store
// or the embedder fails the result is empty and the error is of kind
// ErrRetrievalUnavailable; callers treat it as "no sources".
func (r *Retriever) Retrieve(ctx context.Context, query string, cfg domain.SearchConfig) ([]domain.Candidate, error) {
	if cfg.NResults <= 0 {
		cfg = DefaultSearchConfig()
	}

	var (
		vectorHits  []domain.Candidate
		keywordHits []domain.Candidate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := r.vectorSearch(gctx, query, cfg)
		vectorHits = hits
		return err
	})
	g.Go(func() error {
		hits, err := r.keywordSearch(gctx, query, cfg)
		keywordHits = hits
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Warn("retrieval_unavailable", "strategy", cfg.Strategy, "error", err)
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "retrieve", err)
	}
	return mergeCandidates(vectorHits, keywordHits), nil
}

func (r *Retriever) vectorSearch(ctx context.Context, query string, cfg domain.SearchConfig) ([]domain.Candidate, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := r.store.Nearest(ctx, vector, cfg.NResults)
	if err != nil {
		return nil, fmt.Errorf("nearest: %w", err)
	}

	out := make([]domain.Candidate, 0, len(hits))
	for _, hit := range hits {
		similarity := Similarity(hit.Distance)
		if similarity < cfg.SimilarityThreshold {
			continue
		}
		out = append(out, domain.Candidate{Chunk: hit.Chunk, Similarity: similarity})
	}
	return out, nil
}

func (r *Retriever) keywordSearch(ctx context.Context, query string, cfg domain.SearchConfig) ([]domain.Candidate, error) {
	terms := r.vocab.KeywordTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	chunks, err := r.store.ScanKeyword(ctx, termTexts(terms))
	if err != nil {
		return nil, fmt.Errorf("scan keyword: %w", err)
	}

	budget := cfg.NResults
	if cfg.BoostKeywords {
		budget *= keywordBudgetFactor
	}
	return rankKeywordHits(chunks, terms, cfg.BoostKeywords, budget), nil
}

// Similarity converts a cosine distance in [0,2] into a similarity in [0,1].
func Similarity(distance float64) float64 {
	s := 1 - distance
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// mergeCandidates unions both hit lists by chunk id, keeping the larger of
// each score when a chunk appears more than once.
func mergeCandidates(lists ...[]domain.Candidate) []domain.Candidate {
	index := make(map[string]int)
	var out []domain.Candidate
	for _, list := range lists {
		for _, c := range list {
			pos, ok := index[c.Chunk.ID]
			if !ok {
				index[c.Chunk.ID] = len(out)
				out = append(out, c)
				continue
			}
			if c.Similarity > out[pos].Similarity {
				out[pos].Similarity = c.Similarity
			}
			if c.KeywordScore > out[pos].KeywordScore {
				out[pos].KeywordScore = c.KeywordScore
			}
		}
	}
	return out
}
