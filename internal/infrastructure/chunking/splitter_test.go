package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitMarkdownSections(t *testing.T) {
	doc := strings.Join([]string{
		"Preguntas frecuentes de la universidad.",
		"",
		"# Beneficios",
		"La TNE se solicita en Bienestar Estudiantil.",
		"",
		"## Salud mental",
		"Atención psicológica gratuita.",
	}, "\n")

	passages := NewSplitter(900, 100).Split(doc)
	if len(passages) != 3 {
		t.Fatalf("expected 3 passages, got %d: %+v", len(passages), passages)
	}
	if passages[0].Structured || passages[0].Section != "" {
		t.Fatalf("expected unstructured preamble, got %+v", passages[0])
	}
	if !passages[1].Structured || passages[1].Section != "Beneficios" {
		t.Fatalf("unexpected second passage: %+v", passages[1])
	}
	if !strings.HasPrefix(passages[1].Text, "# Beneficios\nLa TNE") {
		t.Fatalf("expected heading kept in text, got %q", passages[1].Text)
	}
	if passages[2].Section != "Salud mental" {
		t.Fatalf("unexpected third section: %q", passages[2].Section)
	}
}

func TestSplitQuestionBlocks(t *testing.T) {
	doc := strings.Join([]string{
		"Pregunta: ¿Cómo obtengo la TNE?",
		"Respuesta: En línea.",
		"P: ¿Dónde pago la matrícula?",
		"R: En Finanzas.",
	}, "\n")

	passages := NewSplitter(900, 0).Split(doc)
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d: %+v", len(passages), passages)
	}
	if passages[0].Section != "¿Cómo obtengo la TNE?" || !passages[0].Structured {
		t.Fatalf("unexpected first block: %+v", passages[0])
	}
	if passages[1].Section != "¿Dónde pago la matrícula?" || passages[1].Text != "P: ¿Dónde pago la matrícula?\nR: En Finanzas." {
		t.Fatalf("unexpected second block: %+v", passages[1])
	}
}

func TestSplitQuestionUnderHeadingKeepsHeadingSection(t *testing.T) {
	doc := "# Convivencia\nPregunta: ¿Cómo denuncio acoso?\nRespuesta: Formulario."
	passages := NewSplitter(900, 0).Split(doc)
	if len(passages) != 2 {
		t.Fatalf("expected heading and question passages, got %+v", passages)
	}
	if passages[1].Section != "Convivencia" || !passages[1].Structured {
		t.Fatalf("unexpected question passage: %+v", passages[1])
	}
}

func TestSplitWindowsLongSections(t *testing.T) {
	body := strings.Repeat("á", 25)
	passages := NewSplitter(10, 2).Split("# Largo\n" + body)

	if len(passages) < 3 {
		t.Fatalf("expected several windows, got %d", len(passages))
	}
	for _, p := range passages {
		if utf8.RuneCountInString(p.Text) > 10 {
			t.Fatalf("window exceeds size: %q", p.Text)
		}
		if p.Section != "Largo" || !p.Structured {
			t.Fatalf("window lost block metadata: %+v", p)
		}
	}
}

func TestSplitEmpty(t *testing.T) {
	if got := NewSplitter(0, 0).Split("  \n\n "); len(got) != 0 {
		t.Fatalf("expected no passages, got %+v", got)
	}
}

func TestWordCounter(t *testing.T) {
	if got := (WordCounter{}).Count("¿Dónde  pago la\nmatrícula?"); got != 4 {
		t.Fatalf("expected 4 words, got %d", got)
	}
	if _, ok := NewTokenCounter("words").(WordCounter); !ok {
		t.Fatalf("expected word counter for explicit words encoding")
	}
}
