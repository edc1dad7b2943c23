package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

var documentColumnNames = []string{
	"id", "filename", "mime_type", "storage_path", "category", "chunk_count", "status", "error_message", "created_at", "updated_at",
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, mime_type, storage_path").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDScansDocument(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, filename").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(documentColumnNames).
			AddRow("doc-1", "faq.md", "text/markdown", "/data/doc-1_faq.md", "beneficios", 7, "ready", "", now, now))

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Status != domain.StatusReady || doc.ChunkCount != 7 || doc.Category != "beneficios" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing, "")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkReadyStoresChunkCount(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", string(domain.StatusReady), 12, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkReady(context.Background(), "doc-1", 12); err != nil {
		t.Fatalf("MarkReady() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListByStatus(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, filename").
		WithArgs("ready").
		WillReturnRows(sqlmock.NewRows(documentColumnNames).
			AddRow("a", "a.md", "text/markdown", "/a", "", 3, "ready", "", now, now).
			AddRow("b", "b.txt", "text/plain", "/b", "salud", 5, "ready", "", now, now))

	docs, err := repo.ListByStatus(context.Background(), domain.StatusReady)
	if err != nil {
		t.Fatalf("ListByStatus() error = %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "a" || docs[1].Category != "salud" {
		t.Fatalf("unexpected documents: %+v", docs)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).WithArgs(schemaLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
