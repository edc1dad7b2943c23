package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	MarkReady(ctx context.Context, id string, chunkCount int) error
	ListByStatus(ctx context.Context, status domain.DocumentStatus) ([]domain.Document, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits extracted text into section-aware passages.
type Chunker interface {
	Split(text string) []domain.Passage
}

// TokenCounter measures passage length in model tokens.
type TokenCounter interface {
	Count(text string) int
}

// ChunkStore is the nearest-neighbour index holding FAQ chunks.
// Nearest returns cosine distances in [0,2]. ScanKeyword returns every chunk
// matching at least one term; scoring and truncation are the caller's.
type ChunkStore interface {
	Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Nearest(ctx context.Context, queryVector []float32, k int) ([]domain.ScoredChunk, error)
	ScanKeyword(ctx context.Context, terms []string) ([]domain.Chunk, error)
	GetByID(ctx context.Context, id string) (*domain.Chunk, error)
	Reset(ctx context.Context) error
}

// AnswerGenerator creates the final user-facing answer.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, sources []domain.Candidate) (string, error)
}

// AnswerCache memoizes answers by normalized question hash.
type AnswerCache interface {
	Get(ctx context.Context, key string) (*domain.Answer, bool)
	Set(ctx context.Context, key string, answer *domain.Answer) error
	Purge(ctx context.Context) error
}

// QueryLog stores answered questions and aggregates them.
type QueryLog interface {
	Record(ctx context.Context, event domain.QueryEvent) error
	TopQuestions(ctx context.Context, since time.Time, limit int) ([]domain.QuestionStat, error)
}

// ReportWriter renders question statistics into a downloadable report.
type ReportWriter interface {
	WriteQuestionReport(w io.Writer, since time.Time, stats []domain.QuestionStat) error
}

// QueryObserver receives one call per answered question.
type QueryObserver interface {
	ObserveQuery(event domain.QueryEvent, retrievalUnavailable bool)
}
