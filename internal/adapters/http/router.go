package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/config"
	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
	"github.com/kirillkom/campus-faq-assistant/internal/observability/metrics"
)

const (
	serviceName     = "api"
	maxUploadBytes  = 10 << 20
	queueWait       = 250 * time.Millisecond
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Router struct {
	cfg         config.Config
	ingest      ports.DocumentIngestor
	query       ports.FAQQueryService
	docs        ports.DocumentReader
	maintenance ports.MaintenanceService
	analytics   ports.AnalyticsService
	metrics     *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	ingest ports.DocumentIngestor,
	query ports.FAQQueryService,
	docs ports.DocumentReader,
	maintenance ports.MaintenanceService,
	analytics ports.AnalyticsService,
) *Router {
	return &Router{
		cfg:         cfg,
		ingest:      ingest,
		query:       query,
		docs:        docs,
		maintenance: maintenance,
		analytics:   analytics,
	}
}

func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("POST /v1/faq/query", rt.answerQuestion)
	mux.HandleFunc("POST /v1/faq/search", rt.searchFAQ)
	mux.HandleFunc("POST /v1/documents", rt.uploadDocument)
	mux.HandleFunc("GET /v1/documents/{id}", rt.getDocumentByID)
	mux.HandleFunc("POST /v1/admin/reindex", rt.reindex)
	mux.HandleFunc("POST /v1/admin/cache/clear", rt.clearCache)
	mux.HandleFunc("GET /v1/analytics/top-questions", rt.topQuestions)
	mux.HandleFunc("GET /v1/analytics/report.xlsx", rt.questionReport)

	validator, err := newRequestValidator()
	if err != nil {
		panic(err)
	}

	var onReject rejectFunc
	if rt.metrics != nil {
		onReject = func(reason string) { rt.metrics.RecordRejected(serviceName, reason) }
	}

	var handler http.Handler = validator.middleware(mux)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, queueWait, onReject)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onReject)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type questionRequest struct {
	Question string `json:"question"`
	Limit    int    `json:"limit"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (rt *Router) answerQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	answer, err := rt.query.Answer(r.Context(), req.Question, rt.limitOrDefault(req.Limit))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) searchFAQ(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := rt.query.Search(r.Context(), req.Query, rt.limitOrDefault(req.Limit))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "file exceeds 10 MiB")
			return
		}
		writeError(w, r, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		r.FormValue("category"),
		file,
	)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) reindex(w http.ResponseWriter, r *http.Request) {
	queued, err := rt.maintenance.Reindex(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"queued": queued})
}

func (rt *Router) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := rt.maintenance.ClearCache(r.Context()); err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (rt *Router) topQuestions(w http.ResponseWriter, r *http.Request) {
	since, limit := analyticsWindow(r)
	stats, err := rt.analytics.TopQuestions(r.Context(), since, limit)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if stats == nil {
		stats = []domain.QuestionStat{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": stats})
}

func (rt *Router) questionReport(w http.ResponseWriter, r *http.Request) {
	since, limit := analyticsWindow(r)
	var buf bytes.Buffer
	if err := rt.analytics.Report(r.Context(), since, limit, &buf); err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="preguntas-frecuentes.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// analyticsWindow reads ?days and ?limit; both are range-checked by the
// OpenAPI validator. Zero values select the use case defaults.
func analyticsWindow(r *http.Request) (time.Time, int) {
	var since time.Time
	if days, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && days > 0 {
		since = time.Now().UTC().AddDate(0, 0, -days)
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return since, limit
}

func (rt *Router) limitOrDefault(limit int) int {
	if limit > 0 {
		return limit
	}
	if rt.cfg.RAGMaxSources > 0 {
		return rt.cfg.RAGMaxSources
	}
	return 5
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
