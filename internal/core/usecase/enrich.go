package usecase

import (
	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/retrieval"
)

// Enricher adds vocabulary-derived metadata to chunks. It never touches Text or ID.
type Enricher struct {
	priority []string
	codes    []string
	topics   []retrieval.TopicEntry
}

func NewEnricher(vocab *retrieval.Vocabulary) *Enricher {
	return &Enricher{
		priority: vocab.PriorityTerms(),
		codes:    vocab.ExpansionKeys(),
		topics:   vocab.Topics(),
	}
}

func (e *Enricher) Enrich(chunk domain.Chunk, documentCategory string) domain.Chunk {
	keywords := make([]string, 0, len(chunk.Metadata.Keywords)+8)
	seen := make(map[string]struct{})
	add := func(terms ...string) {
		for _, term := range terms {
			norm := retrieval.NormalizeQuestion(term)
			if norm == "" {
				continue
			}
			if _, ok := seen[norm]; ok {
				continue
			}
			seen[norm] = struct{}{}
			keywords = append(keywords, norm)
		}
	}

	add(chunk.Metadata.Keywords...)
	add(retrieval.TermsIn(chunk.Text, e.priority)...)
	add(retrieval.TermsIn(chunk.Text, e.codes)...)

	var best *retrieval.TopicEntry
	bestHits := 0
	for i := range e.topics {
		hits := retrieval.TermsIn(chunk.Text, e.topics[i].Keywords)
		add(hits...)
		if len(hits) > bestHits {
			best = &e.topics[i]
			bestHits = len(hits)
		}
	}

	meta := chunk.Metadata
	meta.Keywords = keywords
	if best != nil {
		if meta.Topic == "" {
			meta.Topic = best.Name
		}
		if meta.Department == "" {
			meta.Department = best.Department
		}
	}
	switch {
	case documentCategory != "":
		meta.Category = documentCategory
	case meta.Category == "":
		meta.Category = meta.Topic
	}
	chunk.Metadata = meta
	return chunk
}
