package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	tokens    ports.TokenCounter
	enricher  *Enricher
	embedder  ports.Embedder
	store     ports.ChunkStore
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	tokens ports.TokenCounter,
	enricher *Enricher,
	embedder ports.Embedder,
	store ports.ChunkStore,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		tokens:    tokens,
		enricher:  enricher,
		embedder:  embedder,
		store:     store,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	count, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.MarkReady(ctx, documentID, count); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	chunks, err := uc.buildChunks(doc, text)
	if err != nil {
		return 0, err
	}

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return 0, err
	}

	if err := uc.store.Upsert(ctx, chunks, vectors); err != nil {
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}
	return len(chunks), nil
}

// buildChunks assigns stable ids (<document id>:<index>) and metadata.
func (uc *ProcessDocumentUseCase) buildChunks(doc *domain.Document, text string) ([]domain.Chunk, error) {
	passages := uc.chunker.Split(text)
	if len(passages) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	chunks := make([]domain.Chunk, 0, len(passages))
	for i, p := range passages {
		chunk := domain.Chunk{
			ID:   fmt.Sprintf("%s:%d", doc.ID, i),
			Text: p.Text,
			Metadata: domain.ChunkMetadata{
				DocumentID:   doc.ID,
				Source:       doc.Filename,
				Section:      p.Section,
				IsStructured: p.Structured,
			},
		}
		if uc.tokens != nil {
			chunk.Metadata.TokenCount = uc.tokens.Count(p.Text)
		}
		if uc.enricher != nil {
			chunk = uc.enricher.Enrich(chunk, doc.Category)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func (uc *ProcessDocumentUseCase) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	return vectors, nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
