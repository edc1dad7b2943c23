package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

func TestProcessByIDSuccess(t *testing.T) {
	repo := &docRepoFake{doc: &domain.Document{ID: "doc-1", Filename: "faq.md", Category: "Beneficios"}}
	store := &chunkStoreFake{}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "text"},
		&chunkerFake{passages: []domain.Passage{
			{Section: "TNE", Text: "La TNE se solicita en Bienestar.", Structured: true},
			{Text: "Texto libre sin sección."},
		}},
		tokenCounterFake{},
		NewEnricher(testVocabulary(t)),
		&embedderFake{},
		store,
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected 2 status calls, got %d", len(repo.statusCalls))
	}
	if repo.statusCalls[0].status != domain.StatusProcessing || repo.statusCalls[1].status != domain.StatusReady {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
	if repo.readyCount != 2 || len(store.upserted) != 2 {
		t.Fatalf("expected 2 chunks indexed, got ready=%d upserted=%d", repo.readyCount, len(store.upserted))
	}

	first := store.upserted[0]
	if first.ID != "doc-1:0" || store.upserted[1].ID != "doc-1:1" {
		t.Fatalf("unexpected chunk ids %s, %s", first.ID, store.upserted[1].ID)
	}
	meta := first.Metadata
	if meta.DocumentID != "doc-1" || meta.Source != "faq.md" || meta.Section != "TNE" || !meta.IsStructured {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if meta.TokenCount != 6 {
		t.Fatalf("expected token count 6, got %d", meta.TokenCount)
	}
	if meta.Category != "Beneficios" || len(meta.Keywords) == 0 {
		t.Fatalf("expected enriched metadata, got %+v", meta)
	}
}

func TestProcessByIDMarksFailedOnExtractError(t *testing.T) {
	repo := &docRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{err: errors.New("extract fail")},
		&chunkerFake{passages: []domain.Passage{{Text: "a"}}},
		tokenCounterFake{},
		nil,
		&embedderFake{},
		&chunkStoreFake{},
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statusCalls) != 2 || repo.statusCalls[1].status != domain.StatusFailed {
		t.Fatalf("expected processing + failed status updates, got %+v", repo.statusCalls)
	}
}

func TestProcessByIDMarksFailedOnVectorMismatch(t *testing.T) {
	repo := &docRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "text"},
		&chunkerFake{passages: []domain.Passage{{Text: "a"}, {Text: "b"}}},
		tokenCounterFake{},
		nil,
		&embedderFake{vectors: [][]float32{{1}}},
		&chunkStoreFake{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
	if len(repo.statusCalls) != 2 || repo.statusCalls[1].status != domain.StatusFailed {
		t.Fatalf("expected final failed status, got %+v", repo.statusCalls)
	}
}

func TestProcessByIDFailsOnEmptyChunks(t *testing.T) {
	repo := &docRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(repo, &extractorFake{text: "   "}, &chunkerFake{}, nil, nil, &embedderFake{}, &chunkStoreFake{})

	if err := uc.ProcessByID(context.Background(), "doc-1"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestProcessByIDUpsertError(t *testing.T) {
	repo := &docRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&extractorFake{text: "text"},
		&chunkerFake{passages: []domain.Passage{{Text: "a"}}},
		nil,
		nil,
		&embedderFake{},
		&chunkStoreFake{upsertErr: errors.New("qdrant 500")},
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected error")
	}
	if repo.statusCalls[len(repo.statusCalls)-1].status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", repo.statusCalls)
	}
}
