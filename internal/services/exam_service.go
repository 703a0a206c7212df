package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/examcore/exam-service/internal/events"
	"github.com/examcore/exam-service/internal/models"
	"github.com/examcore/exam-service/internal/repositories"
	"github.com/examcore/exam-service/internal/validator"
)

const accessCodeAttempts = 5

type examService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.Publisher
}

func NewExamService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.Publisher) ExamService {
	return &examService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

// GenerateAccessCode returns a fresh 8-character uppercase code derived
// from a v4 uuid.
func (s *examService) GenerateAccessCode() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(hex[:8])
}

func (s *examService) CreateExam(ctx context.Context, actorID string, req *ExamCreateRequest) (*models.Exam, error) {
	if actorID == "" {
		return nil, NewValidationError("actor_id", "is required", actorID)
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	code := strings.ToUpper(req.AccessCode)
	if code == "" {
		generated, err := s.uniqueAccessCode(ctx)
		if err != nil {
			return nil, err
		}
		code = generated
	} else {
		inUse, err := s.repo.Exam().AccessCodeExists(ctx, nil, code, nil)
		if err != nil {
			return nil, fmt.Errorf("check access code: %w", err)
		}
		if inUse {
			return nil, NewConflictError("exam", fmt.Sprintf("access code %s is already in use", code))
		}
	}

	level := req.Level
	if level == "" {
		level = models.LevelUniversity
	}

	exam := &models.Exam{
		Title:            req.Title,
		Description:      req.Description,
		TimeLimitMinutes: req.TimeLimitMinutes,
		AccessCode:       code,
		IsPublished:      req.IsPublished,
		Level:            level,
		CreatedBy:        actorID,
	}

	if err := s.repo.Exam().Create(ctx, nil, exam); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("exam", fmt.Sprintf("access code %s is already in use", code))
		}
		return nil, err
	}

	s.logger.Info("exam created", "exam_id", exam.ID, "access_code", exam.AccessCode, "created_by", actorID)

	if exam.IsPublished {
		s.publishExamPublished(ctx, exam)
	}
	return exam, nil
}

func (s *examService) GetExam(ctx context.Context, id uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exam", id)
		}
		return nil, err
	}
	return exam, nil
}

// GetExamByAccessCode resolves a published exam for a student joining by
// code. Draft exams resolve to not found.
func (s *examService) GetExamByAccessCode(ctx context.Context, code string) (*models.Exam, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, NewValidationError("access_code", "is required", code)
	}

	exam, err := s.repo.Exam().GetByAccessCode(ctx, nil, code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exam", code)
		}
		return nil, err
	}
	return exam, nil
}

func (s *examService) ListExams(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	return s.repo.Exam().List(ctx, nil, filters)
}

func (s *examService) UpdateExam(ctx context.Context, actorID string, id uint, req *ExamUpdateRequest) (*models.Exam, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exam", id)
		}
		return nil, err
	}
	if exam.CreatedBy != actorID {
		return nil, NewPermissionError(actorID, "exam", id, "update", "only the exam owner may modify it")
	}

	wasPublished := exam.IsPublished

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.TimeLimitMinutes != nil {
		exam.TimeLimitMinutes = *req.TimeLimitMinutes
	}
	if req.Level != nil {
		exam.Level = *req.Level
	}
	if req.IsPublished != nil {
		exam.IsPublished = *req.IsPublished
	}
	if req.AccessCode != nil {
		newCode := strings.ToUpper(*req.AccessCode)
		if newCode != exam.AccessCode {
			inUse, err := s.repo.Exam().AccessCodeExists(ctx, nil, newCode, &exam.ID)
			if err != nil {
				return nil, fmt.Errorf("check access code: %w", err)
			}
			if inUse {
				return nil, NewConflictError("exam", fmt.Sprintf("access code %s is already in use", newCode))
			}
			exam.AccessCode = newCode
		}
	}

	if err := s.repo.Exam().Update(ctx, nil, exam); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewConflictError("exam", fmt.Sprintf("access code %s is already in use", exam.AccessCode))
		}
		return nil, err
	}

	s.logger.Info("exam updated", "exam_id", exam.ID, "updated_by", actorID)

	if !wasPublished && exam.IsPublished {
		s.publishExamPublished(ctx, exam)
	}
	return exam, nil
}

// DeleteExam removes a draft exam. Exams with questions or recorded
// attempts are protected; dependents must go first.
func (s *examService) DeleteExam(ctx context.Context, actorID string, id uint) error {
	owner, err := s.repo.Exam().IsOwner(ctx, nil, id, actorID)
	if err != nil {
		return err
	}

	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("exam", id)
		}
		return err
	}
	if !owner {
		return NewPermissionError(actorID, "exam", id, "delete", "only the exam owner may delete it")
	}

	hasAttempts, err := s.repo.Exam().HasAttempts(ctx, nil, id)
	if err != nil {
		return err
	}
	if hasAttempts {
		return NewConflictError("exam", "exam has recorded attempts and cannot be deleted")
	}

	hasQuestions, err := s.repo.Exam().HasQuestions(ctx, nil, id)
	if err != nil {
		return err
	}
	if hasQuestions {
		return NewConflictError("exam", "exam still has questions, delete them first")
	}

	if err := s.repo.Exam().Delete(ctx, nil, id); err != nil {
		// The RESTRICT constraint is the authoritative guard against
		// races with concurrent submissions.
		if repositories.IsRestrictError(err) {
			return NewConflictError("exam", "exam has dependent records and cannot be deleted")
		}
		return err
	}

	s.logger.Info("exam deleted", "exam_id", id, "access_code", exam.AccessCode, "deleted_by", actorID)
	return nil
}

func (s *examService) SetPublished(ctx context.Context, actorID string, id uint, published bool) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exam", id)
		}
		return nil, err
	}
	if exam.CreatedBy != actorID {
		return nil, NewPermissionError(actorID, "exam", id, "publish", "only the exam owner may change publication")
	}

	if exam.IsPublished == published {
		return exam, nil
	}

	if err := s.repo.Exam().UpdatePublished(ctx, nil, id, published); err != nil {
		return nil, err
	}
	exam.IsPublished = published

	s.logger.Info("exam publication changed", "exam_id", id, "published", published, "changed_by", actorID)

	if published {
		s.publishExamPublished(ctx, exam)
	}
	return exam, nil
}

func (s *examService) GetExamStats(ctx context.Context, id uint) (*repositories.ExamStats, error) {
	stats, err := s.repo.Exam().GetStats(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exam", id)
		}
		return nil, err
	}
	return stats, nil
}

// uniqueAccessCode generates codes until one is free. Collisions on an
// 8-char code space are rare; the bound is a safety valve.
func (s *examService) uniqueAccessCode(ctx context.Context) (string, error) {
	for i := 0; i < accessCodeAttempts; i++ {
		code := s.GenerateAccessCode()
		inUse, err := s.repo.Exam().AccessCodeExists(ctx, nil, code, nil)
		if err != nil {
			return "", fmt.Errorf("check access code: %w", err)
		}
		if !inUse {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique access code after %d attempts", accessCodeAttempts)
}

func (s *examService) publishExamPublished(ctx context.Context, exam *models.Exam) {
	err := s.publisher.Publish(ctx, events.EventTypeExamPublished, map[string]interface{}{
		"exam_id":     exam.ID,
		"title":       exam.Title,
		"access_code": exam.AccessCode,
		"level":       exam.Level,
	})
	if err != nil {
		s.logger.Warn("failed to publish exam event", "exam_id", exam.ID, "error", err)
	}
}
