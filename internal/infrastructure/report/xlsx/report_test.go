package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

func TestWriteQuestionReport(t *testing.T) {
	generated := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	writer := &ReportWriter{now: func() time.Time { return generated }}
	since := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	stats := []domain.QuestionStat{
		{Question: "como saco la tne", Count: 12, AvgSources: 2.5, NoSourceRatio: 0.25, LastAskedAt: generated},
		{Question: "horario biblioteca", Count: 3, AvgSources: 0, NoSourceRatio: 1, LastAskedAt: since},
	}

	var buf bytes.Buffer
	if err := writer.WriteQuestionReport(&buf, since, stats); err != nil {
		t.Fatalf("WriteQuestionReport() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(questionsSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Pregunta" || rows[1][0] != "como saco la tne" || rows[1][1] != "12" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if rows[1][3] != "25" || rows[2][3] != "100" {
		t.Fatalf("unexpected no-source percentages: %v / %v", rows[1][3], rows[2][3])
	}

	summary, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatalf("GetRows(summary) error = %v", err)
	}
	if summary[3][0] != "Consultas" || summary[3][1] != "15" {
		t.Fatalf("unexpected summary: %v", summary)
	}
}

func TestWriteQuestionReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewReportWriter().WriteQuestionReport(&buf, time.Now(), nil); err != nil {
		t.Fatalf("WriteQuestionReport() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected workbook bytes")
	}
}
