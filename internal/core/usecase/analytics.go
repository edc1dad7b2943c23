package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
)

const (
	defaultTopQuestions = 10
	maxTopQuestions     = 100
	defaultWindow       = 30 * 24 * time.Hour
)

type AnalyticsUseCase struct {
	queryLog ports.QueryLog
	report   ports.ReportWriter
	now      func() time.Time
}

func NewAnalyticsUseCase(queryLog ports.QueryLog, report ports.ReportWriter) *AnalyticsUseCase {
	return &AnalyticsUseCase{queryLog: queryLog, report: report, now: time.Now}
}

// TopQuestions defaults to the last 30 days and 10 rows; limit is capped at 100.
func (uc *AnalyticsUseCase) TopQuestions(ctx context.Context, since time.Time, limit int) ([]domain.QuestionStat, error) {
	since, limit = uc.window(since, limit)
	stats, err := uc.queryLog.TopQuestions(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("top questions: %w", err)
	}
	return stats, nil
}

func (uc *AnalyticsUseCase) Report(ctx context.Context, since time.Time, limit int, w io.Writer) error {
	since, limit = uc.window(since, limit)
	stats, err := uc.queryLog.TopQuestions(ctx, since, limit)
	if err != nil {
		return fmt.Errorf("top questions: %w", err)
	}
	if err := uc.report.WriteQuestionReport(w, since, stats); err != nil {
		return fmt.Errorf("write question report: %w", err)
	}
	return nil
}

func (uc *AnalyticsUseCase) window(since time.Time, limit int) (time.Time, int) {
	if since.IsZero() {
		since = uc.now().UTC().Add(-defaultWindow)
	}
	if limit <= 0 {
		limit = defaultTopQuestions
	}
	if limit > maxTopQuestions {
		limit = maxTopQuestions
	}
	return since, limit
}
