package localfs

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

func TestSaveAndOpen(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()
	if err := storage.Save(ctx, "doc_faq.md", strings.NewReader("# Becas\nPregunta: ...")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rc, err := storage.Open(ctx, "doc_faq.md")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	raw, _ := io.ReadAll(rc)
	if string(raw) != "# Becas\nPregunta: ..." {
		t.Fatalf("unexpected content %q", raw)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	storage, _ := New(dir)
	_ = storage.Save(context.Background(), "a.txt", strings.NewReader("x"))

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "a.txt" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}

func TestOpenMissingIsNotFound(t *testing.T) {
	storage, _ := New(t.TempDir())
	_, err := storage.Open(context.Background(), "missing.txt")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRejectsPathTraversal(t *testing.T) {
	storage, _ := New(t.TempDir())
	for _, key := range []string{"../etc/passwd", "a/b", "..", ""} {
		if err := storage.Save(context.Background(), key, strings.NewReader("x")); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("key %q: expected invalid input, got %v", key, err)
		}
	}
}
