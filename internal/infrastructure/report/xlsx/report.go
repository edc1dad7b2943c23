// Package xlsx renders analytics reports as Excel workbooks.
package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

const (
	questionsSheet = "Preguntas"
	summarySheet   = "Resumen"
)

var questionHeaders = []string{"Pregunta", "Consultas", "Fuentes promedio", "% sin fuentes", "Última consulta"}

type ReportWriter struct {
	now func() time.Time
}

func NewReportWriter() *ReportWriter {
	return &ReportWriter{now: time.Now}
}

func (r *ReportWriter) WriteQuestionReport(w io.Writer, since time.Time, stats []domain.QuestionStat) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", questionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	rows := make([][]any, 0, len(stats)+1)
	headerRow := make([]any, len(questionHeaders))
	for i, h := range questionHeaders {
		headerRow[i] = h
	}
	rows = append(rows, headerRow)
	for _, s := range stats {
		rows = append(rows, []any{
			s.Question,
			s.Count,
			roundTo(s.AvgSources, 2),
			roundTo(s.NoSourceRatio*100, 1),
			s.LastAskedAt.UTC().Format(time.DateTime),
		})
	}
	if err := writeRows(f, questionsSheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(questionsSheet, "A1", "E1", header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(questionsSheet, "A", "A", 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(questionsSheet, "B", "E", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]any{
		{"Desde", since.UTC().Format(time.DateTime)},
		{"Generado", r.now().UTC().Format(time.DateTime)},
		{"Preguntas distintas", len(stats)},
		{"Consultas", totalQueries(stats)},
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func totalQueries(stats []domain.QuestionStat) int {
	total := 0
	for _, s := range stats {
		total += s.Count
	}
	return total
}

func roundTo(v float64, places int) float64 {
	scale := 1.0
	for i := 0; i < places; i++ {
		scale *= 10
	}
	return float64(int64(v*scale+0.5)) / scale
}
