package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

// StatusError is a non-2xx answer from an upstream HTTP service (Ollama, Qdrant).
type StatusError struct {
	Service    string
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "upstream status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("%s %s status: %s", e.Service, e.Operation, e.Status)
	}
	return fmt.Sprintf("%s %s status: %s: %s", e.Service, e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// NewStatusError reads at most 2 KiB of the response body into the error.
func NewStatusError(service, operation string, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &StatusError{
		Service:    service,
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}

// ClassifyHTTP retries network errors and 408/429/5xx statuses. Caller
// cancellation is neither retried nor counted against the breaker.
func ClassifyHTTP(err error) ErrorClassification {
	if err == nil {
		return ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if IsCircuitOpen(err) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return ErrorClassification{Retryable: false, RecordFailure: true}
}

// WrapTemporary marks retryable failures and open breakers as domain.ErrTemporary.
func WrapTemporary(operation string, err error, classify ErrorClassifier) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classify == nil {
		classify = ClassifyHTTP
	}
	if classify(err).Retryable || IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
