package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/examcore/exam-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ExamFilters struct {
	CreatedBy *string                `json:"created_by"`
	Published *bool                  `json:"published"`
	Level     *models.EducationLevel `json:"level"`
	Limit     int                    `json:"limit"`
	Offset    int                    `json:"offset"`
	SortBy    string                 `json:"sort_by"`    // "created_at", "title"
	SortOrder string                 `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	UserID    *string `json:"user_id"`
	ExamID    *uint   `json:"exam_id"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`
	SortOrder string  `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

type ExamStats struct {
	QuestionCount     int     `json:"question_count"`
	TotalAttempts     int     `json:"total_attempts"`
	AverageScore      float64 `json:"average_score"`
	HighestScore      int     `json:"highest_score"`
	DistinctStudents  int     `json:"distinct_students"`
	MaxPossibleScore  int     `json:"max_possible_score"`
}

// ===== ENTITY REPOSITORIES =====

// Each method accepts an optional transaction handle; nil means the
// repository's own connection, matching scoped acquire-and-release per call.

type ExamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	GetByAccessCode(ctx context.Context, tx *gorm.DB, code string) (*models.Exam, error)
	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	UpdatePublished(ctx context.Context, tx *gorm.DB, id uint, published bool) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	AccessCodeExists(ctx context.Context, tx *gorm.DB, code string, excludeID *uint) (bool, error)
	HasQuestions(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	HasAttempts(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	IsOwner(ctx context.Context, tx *gorm.DB, examID uint, userID string) (bool, error)
	GetStats(ctx context.Context, tx *gorm.DB, id uint) (*ExamStats, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	CountByExam(ctx context.Context, tx *gorm.DB, examID uint) (int64, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters AttemptFilters) ([]*models.Attempt, int64, error)
	GetByExam(ctx context.Context, tx *gorm.DB, examID uint, filters AttemptFilters) ([]*models.Attempt, int64, error)
	CountByExam(ctx context.Context, tx *gorm.DB, examID uint) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
}
