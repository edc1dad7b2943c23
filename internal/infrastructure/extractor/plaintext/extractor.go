package plaintext

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

// maxDocumentBytes bounds how much of a stored document is read into memory.
const maxDocumentBytes = 8 << 20

var (
	frontMatter = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
	lineNoise   = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\u00a0", " ", "\t", "    ")
)

// Extractor reads UTF-8 text and Markdown documents from object storage.
type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

// Extract returns the document text ready for chunking: BOM and Markdown front
// matter removed, line endings unified, non-breaking spaces replaced, runs of
// blank lines collapsed to one and trailing spaces trimmed from every line.
func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, maxDocumentBytes+1))
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}
	if len(raw) > maxDocumentBytes {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text",
			fmt.Errorf("document %s exceeds %d bytes", doc.Filename, maxDocumentBytes))
	}
	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text",
			fmt.Errorf("unsupported binary format: %s", doc.Filename))
	}
	return normalize(string(raw)), nil
}

func normalize(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = lineNoise.Replace(text)
	text = frontMatter.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	text = blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}
