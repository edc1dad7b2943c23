// Package memory keeps chunks and vectors in process memory. It backs tests,
// the CLI and single-node deployments without Qdrant.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/retrieval"
)

type entry struct {
	chunk    domain.Chunk
	vector   []float32
	norm     float64
	textNorm string
	keywords map[string]struct{}
}

type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

func (s *Store) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return domain.WrapError(domain.ErrInvalidInput, "memory upsert",
			fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, chunk := range chunks {
		keywords := make(map[string]struct{}, len(chunk.Metadata.Keywords))
		for _, kw := range chunk.Metadata.Keywords {
			keywords[retrieval.NormalizeQuestion(kw)] = struct{}{}
		}
		vec := append([]float32(nil), vectors[i]...)
		if _, exists := s.entries[chunk.ID]; !exists {
			s.order = append(s.order, chunk.ID)
		}
		s.entries[chunk.ID] = &entry{
			chunk:    chunk,
			vector:   vec,
			norm:     vectorNorm(vec),
			textNorm: " " + strings.Join(retrieval.Tokens(chunk.Text), " ") + " ",
			keywords: keywords,
		}
	}
	return nil
}

// Nearest returns cosine distances (1 - cosine similarity), closest first.
func (s *Store) Nearest(_ context.Context, queryVector []float32, k int) ([]domain.ScoredChunk, error) {
	if len(queryVector) == 0 || k <= 0 {
		return nil, nil
	}
	queryNorm := vectorNorm(queryVector)

	s.mu.RLock()
	out := make([]domain.ScoredChunk, 0, len(s.entries))
	for _, id := range s.order {
		e := s.entries[id]
		out = append(out, domain.ScoredChunk{
			Chunk:    e.chunk,
			Distance: 1 - cosineSimilarity(queryVector, e.vector, queryNorm, e.norm),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// ScanKeyword matches whole tokens or phrases of the folded text, and exact
// folded keywords. Every match comes back, in insertion order.
func (s *Store) ScanKeyword(_ context.Context, terms []string) ([]domain.Chunk, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Chunk
	for _, id := range s.order {
		e := s.entries[id]
		if matchesEntry(e, terms) {
			out = append(out, e.chunk)
		}
	}
	return out, nil
}

func (s *Store) GetByID(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrChunkNotFound, "memory get", fmt.Errorf("chunk %s", id))
	}
	chunk := e.chunk
	return &chunk, nil
}

func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]*entry)
	s.order = nil
	s.mu.Unlock()
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func matchesEntry(e *entry, terms []string) bool {
	for _, term := range terms {
		if _, ok := e.keywords[term]; ok {
			return true
		}
		if strings.Contains(e.textNorm, " "+term+" ") {
			return true
		}
	}
	return false
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosineSimilarity(a, b []float32, normA, normB float64) float64 {
	if len(a) != len(b) || normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}
