package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/resilience"
)

const scrollPageSize = 256

// Client is a ChunkStore backed by a Qdrant collection with cosine distance.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

// New builds a client. executor may be nil.
func New(baseURL, collection string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload"`
}

func (c *Client) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return domain.WrapError(domain.ErrInvalidInput, "qdrant upsert",
			fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors)))
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, point{
			ID:      pointID(chunk.ID),
			Vector:  vectors[i],
			Payload: chunkPayload(chunk),
		})
	}

	path := c.collectionPath("/points?wait=true")
	return c.do(ctx, http.MethodPut, path, map[string]any{"points": points}, nil, "upsert")
}

// Nearest maps Qdrant cosine scores to distances (1 - score). A missing
// collection means nothing is indexed yet and yields no hits.
func (c *Client) Nearest(ctx context.Context, queryVector []float32, k int) ([]domain.ScoredChunk, error) {
	if len(queryVector) == 0 || k <= 0 {
		return nil, nil
	}

	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, c.collectionPath("/points/search"), reqBody, &resp, "search"); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]domain.ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		out = append(out, domain.ScoredChunk{
			Chunk:    chunkFromPayload(r.Payload),
			Distance: 1 - r.Score,
		})
	}
	return out, nil
}

// ScanKeyword scrolls points whose folded text contains any term or whose
// folded keywords equal one of them, following next_page_offset until the
// collection is exhausted.
func (c *Client) ScanKeyword(ctx context.Context, terms []string) ([]domain.Chunk, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	filter := keywordFilter(terms)
	var (
		out    []domain.Chunk
		offset any
	)
	for {
		reqBody := map[string]any{
			"filter":       filter,
			"limit":        scrollPageSize,
			"with_payload": true,
			"with_vector":  false,
		}
		if offset != nil {
			reqBody["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := c.do(ctx, http.MethodPost, c.collectionPath("/points/scroll"), reqBody, &resp, "scroll"); err != nil {
			if isNotFound(err) {
				return out, nil
			}
			return nil, err
		}

		for _, p := range resp.Result.Points {
			out = append(out, chunkFromPayload(p.Payload))
		}
		if resp.Result.NextPageOffset == nil || len(resp.Result.Points) == 0 {
			return out, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

func (c *Client) GetByID(ctx context.Context, id string) (*domain.Chunk, error) {
	var resp struct {
		Result struct {
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	path := c.collectionPath("/points/" + url.PathEscape(pointID(id)))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, "get"); err != nil {
		if isNotFound(err) {
			return nil, domain.WrapError(domain.ErrChunkNotFound, "qdrant get", fmt.Errorf("chunk %s", id))
		}
		return nil, err
	}
	chunk := chunkFromPayload(resp.Result.Payload)
	return &chunk, nil
}

// Reset drops the collection. It is recreated on the next Upsert.
func (c *Client) Reset(ctx context.Context) error {
	err := c.do(ctx, http.MethodDelete, c.collectionPath(""), nil, nil, "reset")
	if err != nil && !isNotFound(err) {
		return err
	}
	c.ensureMu.Lock()
	c.ensuredCollection = false
	c.ensuredVectorSize = 0
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	err := c.do(ctx, http.MethodPut, c.collectionPath(""), reqBody, nil, "ensure_collection")
	var statusErr *resilience.StatusError
	// 409 when the collection already exists on some versions.
	if err != nil && !(errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict) {
		return err
	}

	for _, index := range payloadIndexes {
		if err := c.do(ctx, http.MethodPut, c.collectionPath("/index?wait=true"), index, nil, "ensure_index"); err != nil {
			return err
		}
	}

	c.ensureMu.Lock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(c.collection) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any, operation string) error {
	op := "qdrant." + operation
	if c.executor == nil {
		return resilience.WrapTemporary(op, c.roundTrip(ctx, method, path, payload, out, operation), nil)
	}
	err := c.executor.Execute(ctx, op, func(callCtx context.Context) error {
		return c.roundTrip(callCtx, method, path, payload, out, operation)
	}, resilience.ClassifyHTTP)
	return resilience.WrapTemporary(op, err, nil)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload any, out any, operation string) error {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", operation, err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resilience.NewStatusError("qdrant", operation, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var statusErr *resilience.StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}
