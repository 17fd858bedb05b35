package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/freeseed/exams-tw/internal/entity"
	"github.com/freeseed/exams-tw/internal/examstore"
	"github.com/freeseed/exams-tw/internal/extract"
)

const (
	examsSheet     = "Exams"
	questionsSheet = "Questions"
	maxCellRunes   = 32000 // excelize rejects cells over 32767 characters
)

// ExamSource lists exam records; both the folder store and MongoDB do.
type ExamSource interface {
	List(ctx context.Context, f examstore.Filter) ([]entity.Exam, error)
}

// Service produces XLSX bytes for exam exports.
type Service struct {
	exams  ExamSource
	logger *slog.Logger
}

func NewService(exams ExamSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{exams: exams, logger: logger}
}

// ExportExamsXLSX returns a workbook with one row per exam on the Exams
// sheet and one row per question on the Questions sheet.
func (s *Service) ExportExamsXLSX(ctx context.Context, f examstore.Filter) ([]byte, error) {
	start := time.Now()

	exams, err := s.exams.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}

	wb := excelize.NewFile()
	defer wb.Close()
	if err := wb.SetSheetName(wb.GetSheetName(0), examsSheet); err != nil {
		return nil, err
	}
	if _, err := wb.NewSheet(questionsSheet); err != nil {
		return nil, err
	}

	writeRow(wb, examsSheet, 1, []any{
		"ID", "考試年度", "考試名稱", "考試及等別", "類科組別", "科目全名", "試題型態", "題數", "圖片數", "已載入",
	})
	writeRow(wb, questionsSheet, 1, []any{
		"ID", "題號", "題目", "A", "B", "C", "D", "答案", "圖片",
	})

	qRow := 2
	for i, e := range exams {
		writeRow(wb, examsSheet, i+2, []any{
			e.ID, e.Year, e.ExamName, e.ExamLevel, e.CategoryName, e.Subject, e.PaperType,
			len(e.Questions), e.ImageCount(), e.Parsed,
		})
		for n, q := range e.Questions {
			row := []any{e.ID, n + 1, truncate(q.Question, maxCellRunes)}
			for c := 0; c < 4; c++ {
				choice := ""
				if c < len(q.Choices) {
					choice = truncate(q.Choices[c], maxCellRunes)
				}
				row = append(row, choice)
			}
			row = append(row, extract.AnswerLetter(q.Answer), strings.Join(q.Images, "\n"))
			writeRow(wb, questionsSheet, qRow, row)
			qRow++
		}
	}

	_ = wb.SetColWidth(examsSheet, "A", "A", 14)
	_ = wb.SetColWidth(examsSheet, "C", "C", 40)
	_ = wb.SetColWidth(examsSheet, "F", "F", 32)
	_ = wb.SetColWidth(questionsSheet, "A", "A", 14)
	_ = wb.SetColWidth(questionsSheet, "C", "C", 60) // question
	_ = wb.SetColWidth(questionsSheet, "D", "G", 24) // choices
	_ = wb.SetColWidth(questionsSheet, "I", "I", 36)

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"exams", len(exams),
		"questions", qRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(wb *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = wb.SetCellValue(sheet, cell, v)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
