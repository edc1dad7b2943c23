// Package ollama talks to a local Ollama runtime for chunk embeddings and
// Spanish answer generation.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/resilience"
)

const (
	embedPath    = "/api/embed"
	generatePath = "/api/generate"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

// New builds a client. executor may be nil, in which case calls are not retried.
func New(baseURL, genModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// call posts payload to path and decodes the JSON answer into out. The
// operation name ("embed", "embed_query", "generate") selects the executor
// policy and breaker; retryable failures come back as domain.ErrTemporary.
func (c *Client) call(ctx context.Context, operation, path string, payload, out any) error {
	op := "ollama." + operation
	post := func(callCtx context.Context) error {
		return c.post(callCtx, operation, path, payload, out)
	}

	var err error
	if c.executor == nil {
		err = post(ctx)
	} else {
		err = c.executor.Execute(ctx, op, post, resilience.ClassifyHTTP)
	}
	return resilience.WrapTemporary(op, err, nil)
}

func (c *Client) post(ctx context.Context, operation, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return resilience.NewStatusError("ollama", operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
