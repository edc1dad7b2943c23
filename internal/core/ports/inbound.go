package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

// FAQQueryService is the inbound contract for answering and debugging FAQ queries.
type FAQQueryService interface {
	Answer(ctx context.Context, question string, limit int) (*domain.Answer, error)
	Search(ctx context.Context, query string, limit int) (*domain.SearchResult, error)
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType, category string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// MaintenanceService groups the operational actions on the index and the answer cache.
type MaintenanceService interface {
	Reindex(ctx context.Context) (int, error)
	ClearCache(ctx context.Context) error
}

// AnalyticsService reports on answered questions.
type AnalyticsService interface {
	TopQuestions(ctx context.Context, since time.Time, limit int) ([]domain.QuestionStat, error)
	Report(ctx context.Context, since time.Time, limit int, w io.Writer) error
}
