package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

const documentColumns = `id, filename, mime_type, storage_path, category, chunk_count, status, error_message, created_at, updated_at`

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (`+documentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		doc.ID, doc.Filename, doc.MimeType, doc.StoragePath, doc.Category, doc.ChunkCount,
		string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRow(result, "update document status", id)
}

func (r *DocumentRepository) MarkReady(ctx context.Context, id string, chunkCount int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, chunk_count = $3, error_message = '', updated_at = $4
WHERE id = $1
`, id, string(domain.StatusReady), chunkCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark document ready: %w", err)
	}
	return requireRow(result, "mark document ready", id)
}

func (r *DocumentRepository) ListByStatus(ctx context.Context, status domain.DocumentStatus) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE status = $1
ORDER BY created_at ASC
`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (domain.Document, error) {
	var doc domain.Document
	var status string
	err := row.Scan(
		&doc.ID,
		&doc.Filename,
		&doc.MimeType,
		&doc.StoragePath,
		&doc.Category,
		&doc.ChunkCount,
		&status,
		&doc.Error,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return domain.Document{}, err
	}
	doc.Status = domain.DocumentStatus(status)
	return doc, nil
}

func requireRow(result sql.Result, op, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, op, fmt.Errorf("id=%s", id))
	}
	return nil
}
