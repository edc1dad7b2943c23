package httpadapter

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/config"
	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

type queryFake struct {
	err       error
	lastQ     string
	lastLimit int
	calls     int
}

func (f *queryFake) Answer(_ context.Context, question string, limit int) (*domain.Answer, error) {
	f.calls++
	f.lastQ, f.lastLimit = question, limit
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Answer{Text: "Se solicita en línea.", Strategy: domain.StrategySpecific}, nil
}

func (f *queryFake) Search(_ context.Context, query string, limit int) (*domain.SearchResult, error) {
	f.calls++
	f.lastQ, f.lastLimit = query, limit
	if f.err != nil {
		return nil, f.err
	}
	return &domain.SearchResult{
		Query:  query,
		Config: domain.SearchConfig{NResults: 5, SimilarityThreshold: 0.35, Strategy: domain.StrategyBalanced},
		Sources: []domain.RankedSource{{
			Candidate: domain.Candidate{Chunk: domain.Chunk{ID: "doc:0"}, RelevanceScore: 4.2},
			Breakdown: domain.ScoreBreakdown{Total: 4.2},
		}},
	}, nil
}

type ingestFake struct {
	err          error
	lastFilename string
	lastCategory string
	lastBody     string
}

func (f *ingestFake) Upload(_ context.Context, filename, mimeType, category string, body io.Reader) (*domain.Document, error) {
	raw, _ := io.ReadAll(body)
	f.lastFilename, f.lastCategory, f.lastBody = filename, category, string(raw)
	if f.err != nil {
		return nil, f.err
	}
	now := time.Now().UTC()
	return &domain.Document{
		ID:        "doc-1",
		Filename:  filename,
		MimeType:  mimeType,
		Category:  category,
		Status:    domain.StatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type docsFake struct {
	err error
}

func (f docsFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: id, Filename: "faq.md", Status: domain.StatusReady, ChunkCount: 4}, nil
}

type maintenanceFake struct {
	queued  int
	err     error
	cleared int
}

func (f *maintenanceFake) Reindex(context.Context) (int, error) {
	return f.queued, f.err
}

func (f *maintenanceFake) ClearCache(context.Context) error {
	f.cleared++
	return f.err
}

type analyticsFake struct {
	since     time.Time
	limit     int
	stats     []domain.QuestionStat
	reportErr error
}

func (f *analyticsFake) TopQuestions(_ context.Context, since time.Time, limit int) ([]domain.QuestionStat, error) {
	f.since, f.limit = since, limit
	return f.stats, nil
}

func (f *analyticsFake) Report(_ context.Context, since time.Time, limit int, w io.Writer) error {
	f.since, f.limit = since, limit
	if f.reportErr != nil {
		return f.reportErr
	}
	_, err := w.Write([]byte("PK-xlsx"))
	return err
}

type testDeps struct {
	query       *queryFake
	ingest      *ingestFake
	docs        docsFake
	maintenance *maintenanceFake
	analytics   *analyticsFake
}

func newTestDeps() *testDeps {
	return &testDeps{
		query:       &queryFake{},
		ingest:      &ingestFake{},
		maintenance: &maintenanceFake{},
		analytics:   &analyticsFake{},
	}
}

func (d *testDeps) handler(cfg config.Config) http.Handler {
	return NewRouter(cfg, d.ingest, d.query, d.docs, d.maintenance, d.analytics).Handler()
}
