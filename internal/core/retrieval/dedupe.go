package retrieval

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

// ContentHash is the SHA-256 of trimmed, whitespace-collapsed text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(strings.Join(strings.Fields(text), " ")))
	return hex.EncodeToString(sum[:])
}

// Dedupe keeps the first candidate of every distinct content hash, preserving order.
func Dedupe(candidates []domain.Candidate) []domain.Candidate {
	if len(candidates) == 0 {
		return candidates
	}
	seen := make(map[string]struct{}, len(candidates))
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		h := ContentHash(c.Chunk.Text)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, c)
	}
	return out
}
