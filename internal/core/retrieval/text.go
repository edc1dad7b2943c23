package retrieval

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const tokenTrimSet = "¿?¡!.,;:\"'()[]"

// Fold lower-cases s and strips diacritics ("Matrícula" -> "matricula").
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	// Transformers carry state, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Tokens splits folded text on whitespace and trims surrounding punctuation.
func Tokens(s string) []string {
	fields := strings.Fields(Fold(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, tokenTrimSet)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func tokenSet(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

// padded joins tokens with single spaces and surrounds the result with spaces so
// that " term " lookups only match whole tokens or whole phrases.
func padded(tokens []string) string {
	return " " + strings.Join(tokens, " ") + " "
}

// NormalizeQuestion is the cache and analytics key form of a question.
func NormalizeQuestion(q string) string {
	return strings.Join(Tokens(q), " ")
}

// QuestionHash is the SHA-256 of the normalised question.
func QuestionHash(q string) string {
	sum := sha256.Sum256([]byte(NormalizeQuestion(q)))
	return hex.EncodeToString(sum[:])
}

// TermsIn returns the normalised terms that occur in text as whole tokens or
// whole phrases, in the order given.
func TermsIn(text string, terms []string) []string {
	haystack := padded(Tokens(text))
	var out []string
	for _, term := range terms {
		if term != "" && strings.Contains(haystack, " "+term+" ") {
			out = append(out, term)
		}
	}
	return out
}
