package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

const maxSourceChars = 1200

func buildAnswerPrompt(question string, sources []domain.Candidate) string {
	var contextBuilder strings.Builder
	for idx, source := range sources {
		meta := source.Chunk.Metadata
		text := source.Chunk.Text
		if len([]rune(text)) > maxSourceChars {
			text = string([]rune(text)[:maxSourceChars]) + "…"
		}
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] fuente=%s sección=%s categoría=%s relevancia=%.2f\n%s\n\n",
			idx+1,
			orDash(meta.Source),
			orDash(meta.Section),
			orDash(meta.Category),
			source.RelevanceScore,
			text,
		))
	}

	if len(sources) == 0 {
		return fmt.Sprintf(`Eres el asistente de preguntas frecuentes de la institución.
No se encontró información oficial relacionada con la consulta.
Responde en español, con cortesía y en no más de tres oraciones: indica que no tienes
esa información y sugiere contactar a la Oficina de Atención Estudiantil. No inventes datos.

Pregunta:
%s
`, question)
	}

	return fmt.Sprintf(`Eres el asistente de preguntas frecuentes de la institución.
Responde en español usando solo el contexto. Si el contexto no basta, dilo directamente.
Cita las fuentes usadas con su número entre corchetes, por ejemplo [1].

Pregunta:
%s

Contexto:
%s`, question, contextBuilder.String())
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
