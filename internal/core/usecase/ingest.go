package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
	"github.com/kirillkom/campus-faq-assistant/internal/core/retrieval"
)

// supportedExtensions are the formats the plain text extractor can index.
var supportedExtensions = map[string]struct{}{
	".txt":      {},
	".md":       {},
	".markdown": {},
	".faq":      {},
}

type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	now     func() time.Time
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{repo: repo, storage: storage, queue: queue, now: time.Now}
}

// Upload stores the raw file, registers it as uploaded and queues it for the
// worker. A document that could not be queued is marked failed so it is not
// left waiting in "uploaded" forever.
func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	filename, mimeType, category string,
	body io.Reader,
) (*domain.Document, error) {
	const op = "upload document"

	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, errors.New("filename is required"))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := supportedExtensions[ext]; !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("unsupported file type %q", ext))
	}

	now := uc.now().UTC()
	doc := &domain.Document{
		ID:        uuid.NewString(),
		Filename:  filename,
		MimeType:  mimeType,
		Category:  strings.TrimSpace(category),
		Status:    domain.StatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.StoragePath = doc.ID + "_" + storageName(filename)

	if err := uc.storage.Save(ctx, doc.StoragePath, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		if statusErr := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusFailed, "queue: "+err.Error()); statusErr != nil {
			slog.Error("document_mark_failed_error", "document_id", doc.ID, "error", statusErr)
		}
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	slog.Info("document_uploaded", "document_id", doc.ID, "filename", filename, "category", doc.Category)
	return doc, nil
}

// storageName folds accents and keeps only [a-z0-9._-], so
// "Reglamento Académico.md" is stored as "reglamento_academico.md".
func storageName(name string) string {
	base := retrieval.Fold(filepath.Base(name))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if strings.Trim(base, "._") == "" {
		return "document.txt"
	}
	return base
}
