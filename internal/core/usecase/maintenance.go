package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

type MaintenanceUseCase struct {
	repo  ports.DocumentRepository
	store ports.ChunkStore
	cache ports.AnswerCache
	queue ports.MessageQueue
}

func NewMaintenanceUseCase(
	repo ports.DocumentRepository,
	store ports.ChunkStore,
	cache ports.AnswerCache,
	queue ports.MessageQueue,
) *MaintenanceUseCase {
	return &MaintenanceUseCase{repo: repo, store: store, cache: cache, queue: queue}
}

// Reindex drops every chunk and queues all ready documents for processing again.
// It returns the number of documents queued.
func (uc *MaintenanceUseCase) Reindex(ctx context.Context) (int, error) {
	docs, err := uc.repo.ListByStatus(ctx, domain.StatusReady)
	if err != nil {
		return 0, fmt.Errorf("list ready documents: %w", err)
	}
	if err := uc.store.Reset(ctx); err != nil {
		return 0, fmt.Errorf("reset chunk store: %w", err)
	}
	if err := uc.ClearCache(ctx); err != nil {
		return 0, err
	}

	queued := 0
	for _, doc := range docs {
		if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
			return queued, fmt.Errorf("publish reindex for %s: %w", doc.ID, err)
		}
		queued++
	}
	slog.Info("reindex_queued", "documents", queued)
	return queued, nil
}

func (uc *MaintenanceUseCase) ClearCache(ctx context.Context) error {
	if uc.cache == nil {
		return nil
	}
	if err := uc.cache.Purge(ctx); err != nil {
		return fmt.Errorf("purge answer cache: %w", err)
	}
	return nil
}
