package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/examcore/exam-service/internal/events"
	"github.com/examcore/exam-service/internal/models"
	"github.com/examcore/exam-service/internal/repositories"
	"github.com/examcore/exam-service/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.Publisher
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.Publisher) AttemptService {
	return &attemptService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

// SubmitAttempt grades a submission and records the attempt. One point per
// question whose submitted letter matches the stored answer, compared
// case-insensitively. Unanswered questions score zero; unknown question ids
// in the submission are ignored.
func (s *attemptService) SubmitAttempt(ctx context.Context, userID string, req *SubmitAttemptRequest) (*models.Attempt, error) {
	if userID == "" {
		return nil, NewValidationError("user_id", "is required", userID)
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam, err := s.repo.Exam().GetByID(ctx, nil, req.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exam", req.ExamID)
		}
		return nil, err
	}
	if !exam.IsPublished {
		return nil, NewConflictError("attempt", "exam is not published")
	}

	questions, err := s.repo.Question().GetByExam(ctx, nil, req.ExamID)
	if err != nil {
		return nil, err
	}

	score, normalized := grade(questions, req.Answers)

	snapshot, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	attempt := &models.Attempt{
		UserID:  userID,
		ExamID:  req.ExamID,
		Score:   score,
		Answers: snapshot,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if _, err := txRepo.User().GetByID(ctx, nil, userID); err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError("user", userID)
			}
			return err
		}
		return txRepo.Attempt().Create(ctx, nil, attempt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("attempt submitted",
		"attempt_id", attempt.ID,
		"exam_id", req.ExamID,
		"user_id", userID,
		"score", score,
		"question_count", len(questions))

	s.publishAttemptSubmitted(ctx, attempt, len(questions))
	return attempt, nil
}

// grade walks the exam's questions once and counts matches. It also returns
// the normalized (uppercased) answers that were actually graded, for the
// stored snapshot.
func grade(questions []*models.Question, answers map[uint]string) (int, map[uint]string) {
	normalized := make(map[uint]string, len(answers))
	score := 0
	for _, q := range questions {
		submitted, ok := answers[q.ID]
		if !ok {
			continue
		}
		normalized[q.ID] = strings.ToUpper(submitted)
		if strings.EqualFold(submitted, string(q.CorrectAnswer)) {
			score++
		}
	}
	return score, normalized
}

func (s *attemptService) GetAttempt(ctx context.Context, actor Actor, id uint) (*models.Attempt, error) {
	attempt, err := s.repo.Attempt().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("attempt", id)
		}
		return nil, err
	}

	if !actor.IsAdmin() && attempt.UserID != actor.ID {
		return nil, NewPermissionError(actor.ID, "attempt", id, "read", "attempts are visible to their owner and admins")
	}
	return attempt, nil
}

func (s *attemptService) GetUserAttempts(ctx context.Context, actor Actor, userID string, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	if !actor.IsAdmin() && userID != actor.ID {
		return nil, 0, NewPermissionError(actor.ID, "attempt", userID, "list", "attempts are visible to their owner and admins")
	}
	return s.repo.Attempt().GetByUser(ctx, nil, userID, filters)
}

func (s *attemptService) GetExamAttempts(ctx context.Context, examID uint, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	if _, err := s.repo.Exam().GetByID(ctx, nil, examID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, 0, NewNotFoundError("exam", examID)
		}
		return nil, 0, err
	}
	return s.repo.Attempt().GetByExam(ctx, nil, examID, filters)
}

func (s *attemptService) publishAttemptSubmitted(ctx context.Context, attempt *models.Attempt, questionCount int) {
	err := s.publisher.Publish(ctx, events.EventTypeAttemptSubmitted, map[string]interface{}{
		"attempt_id":     attempt.ID,
		"exam_id":        attempt.ExamID,
		"user_id":        attempt.UserID,
		"score":          attempt.Score,
		"question_count": questionCount,
	})
	if err != nil {
		s.logger.Warn("failed to publish attempt event", "attempt_id", attempt.ID, "error", err)
	}
}
