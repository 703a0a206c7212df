package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/examcore/exam-service/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportExamResults renders every attempt on an exam into an xlsx workbook
// with a results sheet and a summary sheet.
func (s *exportService) ExportExamResults(ctx context.Context, examID uint) (*ExportResult, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exam", examID)
		}
		return nil, err
	}

	attempts, _, err := s.repo.Attempt().GetByExam(ctx, nil, examID, repositories.AttemptFilters{
		SortBy:    "created_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.Exam().GetStats(ctx, nil, examID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const resultsSheet = "Results"
	f.SetSheetName(f.GetSheetName(0), resultsSheet)

	headers := []string{"Attempt ID", "Student", "Email", "Score", "Max Score", "Percentage", "Submitted At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(resultsSheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for row, attempt := range attempts {
		percentage := 0.0
		if stats.MaxPossibleScore > 0 {
			percentage = float64(attempt.Score) / float64(stats.MaxPossibleScore) * 100
		}
		values := []interface{}{
			attempt.ID,
			attempt.User.FullName,
			attempt.User.Email,
			attempt.Score,
			stats.MaxPossibleScore,
			percentage,
			attempt.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(resultsSheet, cell, v); err != nil {
				return nil, fmt.Errorf("write attempt row: %w", err)
			}
		}
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]interface{}{
		{"Exam", exam.Title},
		{"Access Code", exam.AccessCode},
		{"Questions", stats.QuestionCount},
		{"Total Attempts", stats.TotalAttempts},
		{"Distinct Students", stats.DistinctStudents},
		{"Average Score", stats.AverageScore},
		{"Highest Score", stats.HighestScore},
	}
	for row, pair := range summary {
		for col, v := range pair {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+1)
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return nil, fmt.Errorf("write summary row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}

	s.logger.Info("exam results exported", "exam_id", examID, "attempts", len(attempts))

	return &ExportResult{
		FileName: fmt.Sprintf("exam-%d-results.xlsx", examID),
		Content:  buf.Bytes(),
	}, nil
}
