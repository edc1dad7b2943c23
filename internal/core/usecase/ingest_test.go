package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

func TestIngestUploadSuccess(t *testing.T) {
	repo := &docRepoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	doc, err := uc.Upload(context.Background(), "preguntas frecuentes.md", "text/markdown", " Becas ", bytes.NewBufferString("hola"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.ID == "" || doc.Status != domain.StatusUploaded {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Category != "Becas" {
		t.Fatalf("expected trimmed category, got %q", doc.Category)
	}
	if repo.created == nil {
		t.Fatalf("expected repo.Create call")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected queued doc id %s, got %v", doc.ID, queue.published)
	}
	if !strings.HasSuffix(storage.savedKey, "_preguntas_frecuentes.md") || !strings.HasPrefix(storage.savedKey, doc.ID) {
		t.Fatalf("expected sanitized key suffix, got %s", storage.savedKey)
	}
	if storage.savedBody != "hola" {
		t.Fatalf("expected saved body hola, got %s", storage.savedBody)
	}
}

func TestIngestUploadRequiresFilename(t *testing.T) {
	uc := NewIngestDocumentUseCase(&docRepoFake{}, &storageFake{}, &queueFake{})
	_, err := uc.Upload(context.Background(), " ", "text/plain", "", bytes.NewBufferString("x"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestIngestUploadQueueError(t *testing.T) {
	uc := NewIngestDocumentUseCase(&docRepoFake{}, &storageFake{}, &queueFake{err: errors.New("queue down")})

	_, err := uc.Upload(context.Background(), "faq.txt", "text/plain", "", bytes.NewBufferString("hola"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "publish ingestion event") {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func TestIngestUploadMarksDocumentFailedWhenQueueDown(t *testing.T) {
	repo := &docRepoFake{}
	uc := NewIngestDocumentUseCase(repo, &storageFake{}, &queueFake{err: errors.New("queue down")})

	_, _ = uc.Upload(context.Background(), "faq.md", "text/markdown", "", bytes.NewBufferString("hola"))
	if len(repo.statusCalls) != 1 || repo.statusCalls[0].status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", repo.statusCalls)
	}
	if !strings.Contains(repo.statusCalls[0].errMsg, "queue down") {
		t.Fatalf("expected queue error in status message, got %q", repo.statusCalls[0].errMsg)
	}
}

func TestIngestUploadRejectsUnsupportedType(t *testing.T) {
	storage := &storageFake{}
	uc := NewIngestDocumentUseCase(&docRepoFake{}, storage, &queueFake{})

	_, err := uc.Upload(context.Background(), "reglamento.pdf", "application/pdf", "", bytes.NewBufferString("%PDF"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if storage.savedKey != "" {
		t.Fatalf("rejected upload must not be stored, got %s", storage.savedKey)
	}
}

func TestStorageName(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd.md":     "passwd.md",
		"Matrícula 2025.txt":      "matricula_2025.txt",
		"Reglamento Académico.md": "reglamento_academico.md",
		"¿?":                      "document.txt",
		"":                        "document.txt",
	}
	for in, want := range cases {
		if got := storageName(in); got != want {
			t.Fatalf("storageName(%q) = %q, want %q", in, got, want)
		}
	}
}
