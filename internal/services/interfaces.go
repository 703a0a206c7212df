package services

import (
	"context"

	"github.com/examcore/exam-service/internal/models"
	"github.com/examcore/exam-service/internal/repositories"
	"github.com/examcore/exam-service/internal/validator"
)

// ===== REQUEST TYPES =====

// Request DTOs live next to their validation tags.
type (
	ExamCreateRequest     = validator.ExamCreateRequest
	ExamUpdateRequest     = validator.ExamUpdateRequest
	QuestionCreateRequest = validator.QuestionCreateRequest
	QuestionUpdateRequest = validator.QuestionUpdateRequest
	RegisterRequest       = validator.RegisterRequest
	ForgotPasswordRequest = validator.ForgotPasswordRequest
	ResetPasswordRequest  = validator.ResetPasswordRequest
	SubmitAttemptRequest  = validator.SubmitAttemptRequest
)

// Actor identifies the authenticated caller for permission decisions.
type Actor struct {
	ID   string
	Role models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// ===== RESULT TYPES =====

type LoginResult struct {
	Token        string       `json:"token"`
	RedirectPath string       `json:"redirect_path"`
	User         *models.User `json:"user"`
}

// PasswordResetResult carries the reset token back to the caller in
// development mode; in production the token travels only by email.
type PasswordResetResult struct {
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

type ExportResult struct {
	FileName string
	Content  []byte
}

// ===== SERVICE INTERFACES =====

type ExamService interface {
	CreateExam(ctx context.Context, actorID string, req *ExamCreateRequest) (*models.Exam, error)
	GetExam(ctx context.Context, id uint) (*models.Exam, error)
	GetExamByAccessCode(ctx context.Context, code string) (*models.Exam, error)
	ListExams(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error)
	UpdateExam(ctx context.Context, actorID string, id uint, req *ExamUpdateRequest) (*models.Exam, error)
	DeleteExam(ctx context.Context, actorID string, id uint) error
	SetPublished(ctx context.Context, actorID string, id uint, published bool) (*models.Exam, error)
	GetExamStats(ctx context.Context, id uint) (*repositories.ExamStats, error)
	GenerateAccessCode() string
}

type QuestionService interface {
	CreateQuestion(ctx context.Context, actorID string, req *QuestionCreateRequest) (*models.Question, error)
	GetQuestion(ctx context.Context, id uint) (*models.Question, error)
	ListExamQuestions(ctx context.Context, examID uint) ([]*models.Question, error)
	UpdateQuestion(ctx context.Context, actorID string, id uint, req *QuestionUpdateRequest) (*models.Question, error)
	DeleteQuestion(ctx context.Context, actorID string, id uint) error
}

type AttemptService interface {
	SubmitAttempt(ctx context.Context, userID string, req *SubmitAttemptRequest) (*models.Attempt, error)
	GetAttempt(ctx context.Context, actor Actor, id uint) (*models.Attempt, error)
	GetUserAttempts(ctx context.Context, actor Actor, userID string, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error)
	GetExamAttempts(ctx context.Context, examID uint, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error)
}

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) (*PasswordResetResult, error)
	ResetPassword(ctx context.Context, req *ResetPasswordRequest) error
	ParseToken(tokenString string) (*TokenClaims, error)
}

type ExportService interface {
	ExportExamResults(ctx context.Context, examID uint) (*ExportResult, error)
}

// ServiceManager wires the services together and manages their lifecycle.
type ServiceManager interface {
	GetExamService() ExamService
	GetQuestionService() QuestionService
	GetAttemptService() AttemptService
	GetAuthService() AuthService
	GetExportService() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
