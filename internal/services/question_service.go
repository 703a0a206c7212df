package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/examcore/exam-service/internal/models"
	"github.com/examcore/exam-service/internal/repositories"
	"github.com/examcore/exam-service/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *questionService) CreateQuestion(ctx context.Context, actorID string, req *QuestionCreateRequest) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := s.checkExamOwnership(ctx, req.ExamID, actorID, "add questions to"); err != nil {
		return nil, err
	}

	question := &models.Question{
		ExamID:         req.ExamID,
		Text:           req.Text,
		OptionA:        req.OptionA,
		OptionB:        req.OptionB,
		OptionC:        req.OptionC,
		OptionD:        req.OptionD,
		CorrectAnswer:  models.AnswerLetter(strings.ToUpper(req.CorrectAnswer)),
		ImageURL:       req.ImageURL,
		ReadingPassage: req.ReadingPassage,
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, err
	}

	s.logger.Info("question created", "question_id", question.ID, "exam_id", question.ExamID, "created_by", actorID)
	return question, nil
}

func (s *questionService) GetQuestion(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("question", id)
		}
		return nil, err
	}
	return question, nil
}

func (s *questionService) ListExamQuestions(ctx context.Context, examID uint) ([]*models.Question, error) {
	if _, err := s.repo.Exam().GetByID(ctx, nil, examID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exam", examID)
		}
		return nil, err
	}
	return s.repo.Question().GetByExam(ctx, nil, examID)
}

func (s *questionService) UpdateQuestion(ctx context.Context, actorID string, id uint, req *QuestionUpdateRequest) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("question", id)
		}
		return nil, err
	}

	if err := s.checkExamOwnership(ctx, question.ExamID, actorID, "edit questions of"); err != nil {
		return nil, err
	}

	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.OptionA != nil {
		question.OptionA = *req.OptionA
	}
	if req.OptionB != nil {
		question.OptionB = *req.OptionB
	}
	if req.OptionC != nil {
		question.OptionC = *req.OptionC
	}
	if req.OptionD != nil {
		question.OptionD = *req.OptionD
	}
	if req.CorrectAnswer != nil {
		question.CorrectAnswer = models.AnswerLetter(strings.ToUpper(*req.CorrectAnswer))
	}
	if req.ImageURL != nil {
		question.ImageURL = req.ImageURL
	}
	if req.ReadingPassage != nil {
		question.ReadingPassage = req.ReadingPassage
	}

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		return nil, err
	}

	s.logger.Info("question updated", "question_id", question.ID, "exam_id", question.ExamID, "updated_by", actorID)
	return question, nil
}

func (s *questionService) DeleteQuestion(ctx context.Context, actorID string, id uint) error {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("question", id)
		}
		return err
	}

	if err := s.checkExamOwnership(ctx, question.ExamID, actorID, "delete questions of"); err != nil {
		return err
	}

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		return err
	}

	s.logger.Info("question deleted", "question_id", id, "exam_id", question.ExamID, "deleted_by", actorID)
	return nil
}

func (s *questionService) checkExamOwnership(ctx context.Context, examID uint, actorID, action string) error {
	owner, err := s.repo.Exam().IsOwner(ctx, nil, examID, actorID)
	if err != nil {
		return err
	}
	if !owner {
		if _, err := s.repo.Exam().GetByID(ctx, nil, examID); err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError("exam", examID)
			}
			return err
		}
		return NewPermissionError(actorID, "exam", examID, action, "only the exam owner may manage its questions")
	}
	return nil
}
