package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/retrieval"
)

func testVocabulary(t *testing.T) *retrieval.Vocabulary {
	t.Helper()
	vocab, err := retrieval.DefaultVocabulary()
	if err != nil {
		t.Fatalf("DefaultVocabulary() error = %v", err)
	}
	return vocab
}

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type docRepoFake struct {
	doc         *domain.Document
	created     *domain.Document
	listed      []domain.Document
	createErr   error
	getErr      error
	statusErr   error
	listErr     error
	statusCalls []statusCall
	readyCount  int
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyDoc := *doc
	f.created = &copyDoc
	return nil
}

func (f *docRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.doc == nil {
		return nil, domain.ErrDocumentNotFound
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *docRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return f.statusErr
}

func (f *docRepoFake) MarkReady(_ context.Context, _ string, chunkCount int) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: domain.StatusReady})
	f.readyCount = chunkCount
	return nil
}

func (f *docRepoFake) ListByStatus(_ context.Context, status domain.DocumentStatus) ([]domain.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Document
	for _, d := range f.listed {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

type storageFake struct {
	savedKey  string
	savedBody string
	err       error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type queueFake struct {
	published []string
	err       error
	failAfter int
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil && len(f.published) >= f.failAfter {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Document) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type chunkerFake struct {
	passages []domain.Passage
}

func (f *chunkerFake) Split(string) []domain.Passage { return f.passages }

type tokenCounterFake struct{}

func (tokenCounterFake) Count(text string) int { return len(strings.Fields(text)) }

type embedderFake struct {
	vectors [][]float32
	err     error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

type chunkStoreFake struct {
	mu        sync.Mutex
	nearest    []domain.ScoredChunk
	nearestErr error
	upserted  []domain.Chunk
	upsertErr error
	resetErr  error
	resets    int
	searches  int
}

func (f *chunkStoreFake) Upsert(_ context.Context, chunks []domain.Chunk, _ [][]float32) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, chunks...)
	return nil
}

func (f *chunkStoreFake) Nearest(context.Context, []float32, int) ([]domain.ScoredChunk, error) {
	f.mu.Lock()
	f.searches++
	f.mu.Unlock()
	if f.nearestErr != nil {
		return nil, f.nearestErr
	}
	return f.nearest, nil
}

func (f *chunkStoreFake) ScanKeyword(context.Context, []string) ([]domain.Chunk, error) {
	return nil, nil
}

func (f *chunkStoreFake) GetByID(context.Context, string) (*domain.Chunk, error) {
	return nil, domain.ErrChunkNotFound
}

func (f *chunkStoreFake) Reset(context.Context) error {
	f.resets++
	return f.resetErr
}

type generatorFake struct {
	calls   int
	sources []domain.Candidate
	err     error
}

func (f *generatorFake) GenerateAnswer(_ context.Context, question string, sources []domain.Candidate) (string, error) {
	f.calls++
	f.sources = sources
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("respuesta: %s (%d fuentes)", question, len(sources)), nil
}

type cacheFake struct {
	items  map[string]domain.Answer
	purged int
	err    error
}

func newCacheFake() *cacheFake { return &cacheFake{items: map[string]domain.Answer{}} }

func (f *cacheFake) Get(_ context.Context, key string) (*domain.Answer, bool) {
	a, ok := f.items[key]
	if !ok {
		return nil, false
	}
	return &a, true
}

func (f *cacheFake) Set(_ context.Context, key string, answer *domain.Answer) error {
	f.items[key] = *answer
	return nil
}

func (f *cacheFake) Purge(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.purged++
	f.items = map[string]domain.Answer{}
	return nil
}

type queryLogFake struct {
	events []domain.QueryEvent
	stats  []domain.QuestionStat
	since  time.Time
	limit  int
	err    error
}

func (f *queryLogFake) Record(_ context.Context, event domain.QueryEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func (f *queryLogFake) TopQuestions(_ context.Context, since time.Time, limit int) ([]domain.QuestionStat, error) {
	f.since = since
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

type observerFake struct {
	events      []domain.QueryEvent
	unavailable []bool
}

func (f *observerFake) ObserveQuery(event domain.QueryEvent, unavailable bool) {
	f.events = append(f.events, event)
	f.unavailable = append(f.unavailable, unavailable)
}
