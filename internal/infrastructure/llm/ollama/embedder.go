package ollama

import (
	"context"
	"fmt"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

// embedBatchSize bounds one /api/embed request during ingestion of long documents.
const embedBatchSize = 32

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type Embedder struct {
	client    *Client
	batchSize int
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client, batchSize: embedBatchSize}
}

// Embed returns one vector per text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		batch := texts[start:min(start+e.batchSize, len(texts))]
		got, err := e.embed(ctx, "embed", batch)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, got...)
	}
	return vectors, nil
}

// EmbedQuery runs under its own operation name so a slow ingestion backlog
// cannot open the breaker that guards user queries.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, "embed_query", []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) embed(ctx context.Context, operation string, texts []string) ([][]float32, error) {
	var resp embedResponse
	if err := e.client.call(ctx, operation, embedPath, embedRequest{Model: e.client.embedModel, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"ollama."+operation,
			fmt.Errorf("got %d embeddings for %d inputs", len(resp.Embeddings), len(texts)),
		)
	}
	for i, v := range resp.Embeddings {
		if len(v) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "ollama."+operation, fmt.Errorf("empty embedding at index %d", i))
		}
	}
	return resp.Embeddings, nil
}
