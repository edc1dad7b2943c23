package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
	"github.com/kirillkom/campus-faq-assistant/internal/core/retrieval"
)

// FallbackAnswer is returned when the generation backend fails.
const FallbackAnswer = "Lo siento, en este momento no puedo generar una respuesta. " +
	"Por favor intenta nuevamente en unos minutos o acude a la Oficina de Atención Estudiantil."

type QueryUseCase struct {
	engine    *retrieval.Engine
	generator ports.AnswerGenerator
	cache     ports.AnswerCache
	queryLog  ports.QueryLog
	observer  ports.QueryObserver
}

// NewQueryUseCase wires the pipeline. cache, queryLog and observer may be nil.
func NewQueryUseCase(
	engine *retrieval.Engine,
	generator ports.AnswerGenerator,
	cache ports.AnswerCache,
	queryLog ports.QueryLog,
	observer ports.QueryObserver,
) *QueryUseCase {
	return &QueryUseCase{
		engine:    engine,
		generator: generator,
		cache:     cache,
		queryLog:  queryLog,
		observer:  observer,
	}
}

// Answer caches per normalised question and requested limit, since the limit
// bounds the sources handed to the generator.
func (uc *QueryUseCase) Answer(ctx context.Context, question string, limit int) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer", errors.New("question is required"))
	}
	started := time.Now()
	key := retrieval.QuestionHash(question)
	cacheKey := answerCacheKey(key, limit)

	if uc.cache != nil {
		if cached, ok := uc.cache.Get(ctx, cacheKey); ok {
			answer := *cached
			answer.CacheHit = true
			uc.finish(ctx, question, key, &answer, false, started)
			return &answer, nil
		}
	}

	out := uc.engine.Run(ctx, question, limit)
	if errors.Is(out.Err(), domain.ErrNoRelevantResults) {
		slog.Info("no_relevant_results", "strategy", out.Config.Strategy, "expanded", out.Expanded)
	}

	answer := &domain.Answer{
		Sources:   out.Sources,
		Strategy:  out.Config.Strategy,
		Expanded:  out.Expanded,
		NoSources: len(out.Sources) == 0,
	}
	if answer.Sources == nil {
		answer.Sources = []domain.Candidate{}
	}

	text, err := uc.generator.GenerateAnswer(ctx, question, out.Sources)
	if err != nil {
		slog.Warn("generation_failed", "strategy", out.Config.Strategy, "error", err)
		text = FallbackAnswer
		answer.Degraded = true
	}
	answer.Text = text

	if uc.cache != nil && !answer.Degraded && !out.Unavailable {
		if err := uc.cache.Set(ctx, cacheKey, answer); err != nil {
			slog.Warn("answer_cache_set_failed", "error", err)
		}
	}

	uc.finish(ctx, question, key, answer, out.Unavailable, started)
	return answer, nil
}

// Search runs retrieval and ranking only and explains every score.
func (uc *QueryUseCase) Search(ctx context.Context, query string, limit int) (*domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", errors.New("query is required"))
	}

	out := uc.engine.Run(ctx, query, limit)
	return &domain.SearchResult{
		Query:         query,
		ExpandedQuery: out.ExpandedQuery,
		Config:        out.Config,
		Expanded:      out.Expanded,
		Unavailable:   out.Unavailable,
		Sources:       uc.engine.Explain(out),
	}, nil
}

func (uc *QueryUseCase) finish(
	ctx context.Context,
	question, key string,
	answer *domain.Answer,
	unavailable bool,
	started time.Time,
) {
	event := domain.QueryEvent{
		ID:           uuid.NewString(),
		Question:     retrieval.NormalizeQuestion(question),
		QuestionHash: key,
		Strategy:     answer.Strategy,
		SourceCount:  len(answer.Sources),
		Expanded:     answer.Expanded,
		CacheHit:     answer.CacheHit,
		NoSources:    answer.NoSources,
		Degraded:     answer.Degraded,
		Duration:     time.Since(started),
		CreatedAt:    time.Now().UTC(),
	}

	if uc.observer != nil {
		uc.observer.ObserveQuery(event, unavailable)
	}
	if uc.queryLog != nil {
		if err := uc.queryLog.Record(ctx, event); err != nil {
			slog.Warn("query_event_record_failed", "error", err)
		}
	}
}

// answerCacheKey keeps the default limit (0) on the bare question hash.
func answerCacheKey(questionHash string, limit int) string {
	if limit <= 0 {
		return questionHash
	}
	return questionHash + ":" + strconv.Itoa(limit)
}
