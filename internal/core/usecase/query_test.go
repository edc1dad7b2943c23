package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
	"github.com/kirillkom/campus-faq-assistant/internal/core/retrieval"
)

func seguroStore() *chunkStoreFake {
	return &chunkStoreFake{nearest: []domain.ScoredChunk{{
		Chunk: domain.Chunk{
			ID:       "doc-1:0",
			Text:     "El seguro escolar cubre accidentes de trayecto.",
			Metadata: domain.ChunkMetadata{IsStructured: true, Section: "Seguro escolar"},
		},
		Distance: 0.2,
	}}}
}

// newQueryUseCase takes the optional collaborators as interfaces so that an
// untyped nil stays a nil interface.
func newQueryUseCase(
	t *testing.T,
	store *chunkStoreFake,
	gen *generatorFake,
	cache ports.AnswerCache,
	log ports.QueryLog,
	obs ports.QueryObserver,
) *QueryUseCase {
	t.Helper()
	engine := retrieval.NewEngine(testVocabulary(t), &embedderFake{}, store, retrieval.EngineOptions{})
	return NewQueryUseCase(engine, gen, cache, log, obs)
}

func TestQueryUseCaseAnswerRejectsEmptyQuestion(t *testing.T) {
	uc := newQueryUseCase(t, &chunkStoreFake{}, &generatorFake{}, nil, nil, nil)
	_, err := uc.Answer(context.Background(), "   ", 0)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestQueryUseCaseAnswerWithoutOptionalCollaborators(t *testing.T) {
	gen := &generatorFake{err: errors.New("ollama down")}
	uc := newQueryUseCase(t, seguroStore(), gen, nil, nil, nil)

	answer, err := uc.Answer(context.Background(), "¿Qué cubre el seguro escolar?", 0)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !answer.Degraded || answer.CacheHit {
		t.Fatalf("expected uncached degraded answer, got %+v", answer)
	}
}

func TestQueryUseCaseAnswerCachesByNormalisedQuestion(t *testing.T) {
	gen := &generatorFake{}
	cache := newCacheFake()
	log := &queryLogFake{}
	obs := &observerFake{}
	uc := newQueryUseCase(t, seguroStore(), gen, cache, log, obs)

	first, err := uc.Answer(context.Background(), "¿Qué cubre el seguro escolar?", 0)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if first.NoSources || len(first.Sources) != 1 || first.CacheHit {
		t.Fatalf("unexpected first answer: %+v", first)
	}
	if first.Strategy != domain.StrategySpecific {
		t.Fatalf("expected priority term to force specific strategy, got %s", first.Strategy)
	}

	second, err := uc.Answer(context.Background(), "que cubre el SEGURO escolar", 0)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !second.CacheHit || second.Text != first.Text {
		t.Fatalf("expected cached answer, got %+v", second)
	}
	if gen.calls != 1 {
		t.Fatalf("expected one generation call, got %d", gen.calls)
	}
	if len(log.events) != 2 || !log.events[1].CacheHit || log.events[0].QuestionHash != log.events[1].QuestionHash {
		t.Fatalf("unexpected query events: %+v", log.events)
	}
	if log.events[0].Question != "que cubre el seguro escolar" {
		t.Fatalf("expected normalised question, got %q", log.events[0].Question)
	}
	if len(obs.events) != 2 {
		t.Fatalf("expected two observed queries, got %d", len(obs.events))
	}
}

func TestQueryUseCaseAnswerCacheKeyIncludesLimit(t *testing.T) {
	gen := &generatorFake{}
	cache := newCacheFake()
	uc := newQueryUseCase(t, seguroStore(), gen, cache, nil, nil)

	for _, limit := range []int{1, 3, 3} {
		if _, err := uc.Answer(context.Background(), "¿Qué cubre el seguro escolar?", limit); err != nil {
			t.Fatalf("Answer(limit=%d) error = %v", limit, err)
		}
	}
	if gen.calls != 2 {
		t.Fatalf("expected one generation per distinct limit, got %d", gen.calls)
	}
	if len(cache.items) != 2 {
		t.Fatalf("expected two cache entries, got %d", len(cache.items))
	}
}

func TestQueryUseCaseAnswerGenerationFailureDegrades(t *testing.T) {
	cache := newCacheFake()
	uc := newQueryUseCase(t, seguroStore(), &generatorFake{err: errors.New("ollama timeout")}, cache, nil, nil)

	answer, err := uc.Answer(context.Background(), "¿Qué cubre el seguro escolar?", 0)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !answer.Degraded || answer.Text != FallbackAnswer {
		t.Fatalf("expected degraded fallback answer, got %+v", answer)
	}
	if len(cache.items) != 0 {
		t.Fatalf("degraded answers must not be cached")
	}
}

func TestQueryUseCaseAnswerWithoutSourcesStillGenerates(t *testing.T) {
	gen := &generatorFake{}
	uc := newQueryUseCase(t, &chunkStoreFake{}, gen, nil, nil, nil)

	answer, err := uc.Answer(context.Background(), "horario del gimnasio", 0)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !answer.NoSources || answer.Sources == nil || len(answer.Sources) != 0 {
		t.Fatalf("expected explicit empty sources, got %+v", answer)
	}
	if gen.calls != 1 || len(gen.sources) != 0 {
		t.Fatalf("expected generation with zero sources, got calls=%d sources=%d", gen.calls, len(gen.sources))
	}
}

func TestQueryUseCaseAnswerRetrievalUnavailable(t *testing.T) {
	cache := newCacheFake()
	obs := &observerFake{}
	store := &chunkStoreFake{nearestErr: errors.New("qdrant unreachable")}
	uc := newQueryUseCase(t, store, &generatorFake{}, cache, nil, obs)

	answer, err := uc.Answer(context.Background(), "necesito un certificado", 0)
	if err != nil {
		t.Fatalf("Answer() must not fail on retrieval errors, got %v", err)
	}
	if !answer.NoSources {
		t.Fatalf("expected no sources")
	}
	if len(cache.items) != 0 {
		t.Fatalf("answers built without retrieval must not be cached")
	}
	if len(obs.unavailable) != 1 || !obs.unavailable[0] {
		t.Fatalf("expected unavailable observation, got %v", obs.unavailable)
	}
}

func TestQueryUseCaseSearchExplainsScores(t *testing.T) {
	gen := &generatorFake{}
	uc := newQueryUseCase(t, seguroStore(), gen, nil, nil, nil)

	result, err := uc.Search(context.Background(), "seguro escolar", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Sources) != 1 {
		t.Fatalf("expected one source, got %d", len(result.Sources))
	}
	b := result.Sources[0].Breakdown
	if b.SectionMatch != 1.0 || b.Total != result.Sources[0].RelevanceScore {
		t.Fatalf("unexpected breakdown %+v", b)
	}
	if gen.calls != 0 {
		t.Fatalf("search must not call the generator")
	}

	if _, err := uc.Search(context.Background(), "", 3); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty query, got %v", err)
	}
}
