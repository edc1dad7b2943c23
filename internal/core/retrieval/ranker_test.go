package retrieval

import (
	"math"
	"reflect"
	"testing"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRankerKeywordAndPriorityTerms(t *testing.T) {
	r := NewRanker(testVocabulary(t))
	c := domain.Candidate{Chunk: domain.Chunk{
		ID:   "cert",
		Text: "Para solicitar un certificado de alumno regular ingresa al portal.",
		Metadata: domain.ChunkMetadata{
			Keywords:     []string{"certificado"},
			IsStructured: true,
		},
	}}

	explained := r.Explain([]domain.Candidate{c}, "necesito un certificado")
	b := explained[0].Breakdown
	if !approxEqual(b.KeywordMetadata, 2.0) || !approxEqual(b.PriorityTerms, 1.5) {
		t.Fatalf("unexpected breakdown: %+v", b)
	}
	if b.Total < 3.5 {
		t.Fatalf("expected total >= 3.5, got %v", b.Total)
	}
	if !approxEqual(b.TokenOverlap, 1.0) {
		t.Fatalf("expected overlap on un/certificado, got %v", b.TokenOverlap)
	}

	ranked := r.Rank([]domain.Candidate{c}, "necesito un certificado")
	if !approxEqual(ranked[0].RelevanceScore, b.Total) {
		t.Fatalf("Rank score %v != Explain total %v", ranked[0].RelevanceScore, b.Total)
	}
}

func TestRankerCountsRepeatedMetadataKeywordOnce(t *testing.T) {
	r := NewRanker(testVocabulary(t))
	c := domain.Candidate{Chunk: domain.Chunk{
		ID:       "cert",
		Text:     "Trámites en línea.",
		Metadata: domain.ChunkMetadata{Keywords: []string{"certificado", "Certificado", "certificado"}},
	}}

	b := r.Explain([]domain.Candidate{c}, "necesito un certificado")[0].Breakdown
	if !approxEqual(b.KeywordMetadata, 2.0) {
		t.Fatalf("expected a single +2.0 for repeated keyword, got %v", b.KeywordMetadata)
	}
}

func TestRankerPenaltiesAndBonuses(t *testing.T) {
	r := NewRanker(testVocabulary(t))
	c := domain.Candidate{
		Chunk: domain.Chunk{
			ID:       "m",
			Text:     "Información general.",
			Metadata: domain.ChunkMetadata{Section: "Matrícula y Certificados"},
		},
		Similarity:   0.8,
		KeywordScore: 4,
	}
	b := r.Explain([]domain.Candidate{c}, "certificados en linea")[0].Breakdown
	if !approxEqual(b.Structure, -0.5) {
		t.Fatalf("expected unstructured penalty, got %v", b.Structure)
	}
	if !approxEqual(b.SectionMatch, 1.0) {
		t.Fatalf("expected section match, got %v", b.SectionMatch)
	}
	if !approxEqual(b.Semantic, 2.4) || !approxEqual(b.Lexical, 1.0) {
		t.Fatalf("unexpected folded signals: %+v", b)
	}
	if !approxEqual(b.Total, 3.9) {
		t.Fatalf("expected total 3.9, got %v", b.Total)
	}
}

func TestRankerTieBreakByID(t *testing.T) {
	r := NewRanker(testVocabulary(t))
	in := []domain.Candidate{
		candidate("b", "mismo texto"),
		candidate("c", "mismo texto"),
		candidate("a", "mismo texto"),
	}
	out := r.Rank(in, "consulta")
	got := []string{out[0].Chunk.ID, out[1].Chunk.ID, out[2].Chunk.ID}
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected order: %v", got)
	}
	if in[0].Chunk.ID != "b" {
		t.Fatalf("Rank must not reorder its input")
	}
}

func TestRankerDeterministic(t *testing.T) {
	r := NewRanker(testVocabulary(t))
	in := []domain.Candidate{
		{Chunk: domain.Chunk{ID: "1", Text: "La gratuidad cubre el arancel."}, Similarity: 0.4},
		{Chunk: domain.Chunk{ID: "2", Text: "El seguro escolar cubre accidentes.", Metadata: domain.ChunkMetadata{IsStructured: true}}, Similarity: 0.6},
		{Chunk: domain.Chunk{ID: "3", Text: "Horario de biblioteca."}, KeywordScore: 2},
		{Chunk: domain.Chunk{ID: "4", Text: "Horario de biblioteca."}, KeywordScore: 2},
	}
	first := r.Rank(in, "¿cubre el seguro los accidentes?")
	second := r.Rank(in, "¿cubre el seguro los accidentes?")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("rank is not deterministic")
	}
	if first[0].Chunk.ID != "2" {
		t.Fatalf("expected seguro chunk first, got %s", first[0].Chunk.ID)
	}
	for i := 1; i < len(first); i++ {
		if first[i-1].RelevanceScore < first[i].RelevanceScore {
			t.Fatalf("scores not descending at %d", i)
		}
	}
}

func TestRankerMissingMetadataTolerated(t *testing.T) {
	r := NewRanker(testVocabulary(t))
	out := r.Rank([]domain.Candidate{candidate("x", "")}, "")
	if len(out) != 1 || !approxEqual(out[0].RelevanceScore, -0.5) {
		t.Fatalf("unexpected ranking for empty candidate: %+v", out)
	}
}
