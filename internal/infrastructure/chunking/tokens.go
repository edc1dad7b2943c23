package chunking

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

// WordCounter approximates tokens by whitespace-separated words.
type WordCounter struct{}

func (WordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encoding, err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

func (c *TikTokenCounter) Count(text string) int {
	return len(c.tke.Encode(text, nil, nil))
}

// NewTokenCounter prefers tiktoken and falls back to word counts when the
// encoding cannot be loaded (offline workers fetch BPE ranks lazily).
func NewTokenCounter(encoding string) ports.TokenCounter {
	if encoding == "" || encoding == "words" {
		return WordCounter{}
	}
	counter, err := NewTikTokenCounter(encoding)
	if err != nil {
		slog.Warn("token_counter_fallback", "encoding", encoding, "error", err)
		return WordCounter{}
	}
	return counter
}
