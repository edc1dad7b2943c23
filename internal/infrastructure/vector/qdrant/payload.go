package qdrant

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/retrieval"
)

// chunkNamespace derives stable point ids from chunk ids, so re-processing a
// document overwrites its points instead of duplicating them.
var chunkNamespace = uuid.MustParse("6f1c3b52-7a9e-4d0b-9c2f-2f3d8f4b9a10")

var payloadIndexes = []map[string]any{
	{
		"field_name": "text_norm",
		"field_schema": map[string]any{
			"type":          "text",
			"tokenizer":     "word",
			"lowercase":     true,
			"min_token_len": 2,
		},
	},
	{"field_name": "keywords_norm", "field_schema": "keyword"},
	{"field_name": "document_id", "field_schema": "keyword"},
}

func pointID(chunkID string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(chunkID)).String()
}

func chunkPayload(chunk domain.Chunk) map[string]any {
	meta := chunk.Metadata
	keywordsNorm := make([]string, 0, len(meta.Keywords))
	for _, kw := range meta.Keywords {
		if n := retrieval.NormalizeQuestion(kw); n != "" {
			keywordsNorm = append(keywordsNorm, n)
		}
	}
	keywords := meta.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	return map[string]any{
		"chunk_id":      chunk.ID,
		"text":          chunk.Text,
		"text_norm":     retrieval.NormalizeQuestion(chunk.Text),
		"document_id":   meta.DocumentID,
		"category":      meta.Category,
		"source":        meta.Source,
		"section":       meta.Section,
		"keywords":      keywords,
		"keywords_norm": keywordsNorm,
		"is_structured": meta.IsStructured,
		"token_count":   meta.TokenCount,
		"departamento":  meta.Department,
		"tema":          meta.Topic,
	}
}

// chunkFromPayload tolerates missing fields: they decode to zero values.
func chunkFromPayload(payload map[string]any) domain.Chunk {
	return domain.Chunk{
		ID:   getStringPayload(payload, "chunk_id"),
		Text: getStringPayload(payload, "text"),
		Metadata: domain.ChunkMetadata{
			DocumentID:   getStringPayload(payload, "document_id"),
			Category:     getStringPayload(payload, "category"),
			Source:       getStringPayload(payload, "source"),
			Section:      getStringPayload(payload, "section"),
			Keywords:     getStringsPayload(payload, "keywords"),
			IsStructured: getBoolPayload(payload, "is_structured"),
			TokenCount:   getIntPayload(payload, "token_count"),
			Department:   getStringPayload(payload, "departamento"),
			Topic:        getStringPayload(payload, "tema"),
		},
	}
}

func keywordFilter(terms []string) map[string]any {
	should := make([]map[string]any, 0, len(terms)+1)
	for _, term := range terms {
		should = append(should, map[string]any{
			"key":   "text_norm",
			"match": map[string]any{"text": term},
		})
	}
	should = append(should, map[string]any{
		"key":   "keywords_norm",
		"match": map[string]any{"any": terms},
	})
	return map[string]any{"should": should}
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getStringsPayload(payload map[string]any, key string) []string {
	raw, ok := payload[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func getBoolPayload(payload map[string]any, key string) bool {
	b, _ := payload[key].(bool)
	return b
}

func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
