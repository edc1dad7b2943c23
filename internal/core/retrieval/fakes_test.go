package retrieval

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

func testVocabulary(t *testing.T) *Vocabulary {
	t.Helper()
	vocab, err := DefaultVocabulary()
	if err != nil {
		t.Fatalf("DefaultVocabulary() error = %v", err)
	}
	return vocab
}

type embedderFake struct {
	err error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, f.err
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

type storeFake struct {
	mu         sync.Mutex
	nearest    []domain.ScoredChunk
	chunks     []domain.Chunk
	nearestErr error
	scanErr    error
	nearestK   []int
	scanTerms  [][]string
}

func (f *storeFake) Upsert(context.Context, []domain.Chunk, [][]float32) error { return nil }

func (f *storeFake) Nearest(_ context.Context, _ []float32, k int) ([]domain.ScoredChunk, error) {
	f.mu.Lock()
	f.nearestK = append(f.nearestK, k)
	f.mu.Unlock()
	if f.nearestErr != nil {
		return nil, f.nearestErr
	}
	if len(f.nearest) > k {
		return f.nearest[:k], nil
	}
	return f.nearest, nil
}

func (f *storeFake) ScanKeyword(_ context.Context, terms []string) ([]domain.Chunk, error) {
	f.mu.Lock()
	f.scanTerms = append(f.scanTerms, terms)
	f.mu.Unlock()
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	var out []domain.Chunk
	for _, chunk := range f.chunks {
		text := padded(Tokens(chunk.Text))
		for _, term := range terms {
			if strings.Contains(text, " "+term+" ") {
				out = append(out, chunk)
				break
			}
		}
	}
	return out, nil
}

func (f *storeFake) GetByID(_ context.Context, id string) (*domain.Chunk, error) {
	for _, chunk := range f.chunks {
		if chunk.ID == id {
			c := chunk
			return &c, nil
		}
	}
	return nil, domain.ErrChunkNotFound
}

func (f *storeFake) Reset(context.Context) error { return nil }
