package chunking

import (
	"strings"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

var questionPrefixes = []string{"pregunta:", "p:"}

// Splitter cuts documents into passages along Markdown headings and
// question/answer blocks, then windows any passage longer than ChunkSize runes.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

type block struct {
	section    string
	structured bool
	lines      []string
}

func (s *Splitter) Split(text string) []domain.Passage {
	var (
		out     []domain.Passage
		heading string
		current block
	)
	flush := func() {
		out = append(out, s.window(current)...)
		current = block{section: heading}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
			flush()
			heading = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			current = block{section: heading, structured: true}
		case isQuestionLine(trimmed):
			flush()
			current.structured = true
			if heading == "" {
				current.section = questionText(trimmed)
			}
		}
		current.lines = append(current.lines, strings.TrimRight(line, " \t"))
	}
	flush()
	return out
}

// window applies the rune splitter with overlap to a single block.
func (s *Splitter) window(b block) []domain.Passage {
	text := strings.TrimSpace(strings.Join(b.lines, "\n"))
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]domain.Passage, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, domain.Passage{Section: b.section, Text: chunk, Structured: b.structured})
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

func isQuestionLine(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func questionText(line string) string {
	_, after, _ := strings.Cut(line, ":")
	return strings.TrimSpace(after)
}
