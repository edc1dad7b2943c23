package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

type errorKind struct {
	kind   error
	status int
	code   string
}

// Checked in order; the first matching kind wins.
var errorKinds = []errorKind{
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{domain.ErrDocumentNotFound, http.StatusNotFound, "document_not_found"},
	{domain.ErrChunkNotFound, http.StatusNotFound, "chunk_not_found"},
	{domain.ErrRetrievalUnavailable, http.StatusServiceUnavailable, "retrieval_unavailable"},
	{domain.ErrTemporary, http.StatusServiceUnavailable, "temporarily_unavailable"},
}

func classifyError(err error) (int, string) {
	for _, k := range errorKinds {
		if domain.IsKind(err, k.kind) {
			return k.status, k.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classifyError(err)
	if status >= 500 {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"code", code,
			"error", err,
		)
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeErrorCode(w, r, status, code, err.Error())
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeErrorCode(w, r, status, "", message)
}

func writeErrorCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	body := map[string]string{
		"error":      message,
		"request_id": requestIDFromContext(r.Context()),
	}
	if code != "" {
		body["code"] = code
	}
	writeJSON(w, status, body)
}
