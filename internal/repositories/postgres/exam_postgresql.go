package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/examcore/exam-service/internal/cache"
	"github.com/examcore/exam-service/internal/models"
	"github.com/examcore/exam-service/internal/repositories"
)

var examSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
}

type examRepository struct {
	db     *gorm.DB
	cache  *cache.CacheManager
	logger *slog.Logger
}

func NewExamRepository(db *gorm.DB, cacheManager *cache.CacheManager, logger *slog.Logger) repositories.ExamRepository {
	return &examRepository{
		db:     db,
		cache:  cacheManager,
		logger: logger,
	}
}

func (r *examRepository) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := getDB(ctx, r.db, tx)
	if err := db.Create(exam).Error; err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

func (r *examRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := getDB(ctx, r.db, tx)

	var exam models.Exam
	if err := db.Preload("Creator").First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

// GetByIDWithDetails loads the exam with questions and computed fields.
// Reads outside a transaction go through the cache.
func (r *examRepository) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	if tx != nil {
		return r.loadWithDetails(ctx, tx, id)
	}

	var exam models.Exam
	err := r.cache.Helper().CacheOrExecute(ctx, cache.ExamByIDKey(id), cache.DefaultTTL, &exam, func() (interface{}, error) {
		return r.loadWithDetails(ctx, nil, id)
	})
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepository) loadWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := getDB(ctx, r.db, tx)

	var exam models.Exam
	err := db.
		Preload("Creator").
		Preload("Questions", func(q *gorm.DB) *gorm.DB { return q.Order("questions.id ASC") }).
		First(&exam, id).Error
	if err != nil {
		return nil, err
	}

	if err := r.fillComputedFields(ctx, tx, &exam); err != nil {
		return nil, err
	}
	return &exam, nil
}

// GetByAccessCode resolves a published exam by its code. Draft exams are
// invisible to this lookup so students cannot join unreleased material.
func (r *examRepository) GetByAccessCode(ctx context.Context, tx *gorm.DB, code string) (*models.Exam, error) {
	if tx != nil {
		return r.loadByAccessCode(ctx, tx, code)
	}

	var exam models.Exam
	err := r.cache.Helper().CacheOrExecute(ctx, cache.ExamByCodeKey(code), cache.ShortTTL, &exam, func() (interface{}, error) {
		return r.loadByAccessCode(ctx, nil, code)
	})
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepository) loadByAccessCode(ctx context.Context, tx *gorm.DB, code string) (*models.Exam, error) {
	db := getDB(ctx, r.db, tx)

	var exam models.Exam
	err := db.
		Preload("Questions", func(q *gorm.DB) *gorm.DB { return q.Order("questions.id ASC") }).
		Where("access_code = ? AND is_published = ?", code, true).
		First(&exam).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	db := getDB(ctx, r.db, tx)

	query := db.Model(&models.Exam{})
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Published != nil {
		query = query.Where("is_published = ?", *filters.Published)
	}
	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count exams: %w", err)
	}

	query = applyPaginationAndSort(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder, examSortColumns)

	var exams []*models.Exam
	err := query.
		Preload("Creator").
		Preload("Questions", func(q *gorm.DB) *gorm.DB { return q.Order("questions.id ASC") }).
		Preload("Attempts").
		Find(&exams).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list exams: %w", err)
	}

	for _, exam := range exams {
		if err := r.fillComputedFields(ctx, tx, exam); err != nil {
			return nil, 0, err
		}
	}
	return exams, total, nil
}

func (r *examRepository) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := getDB(ctx, r.db, tx)
	if err := db.Save(exam).Error; err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	// The access code may have changed; drop the whole code keyspace so a
	// retired code cannot keep resolving from cache.
	r.invalidateByID(ctx, exam.ID)
	return nil
}

func (r *examRepository) UpdatePublished(ctx context.Context, tx *gorm.DB, id uint, published bool) error {
	db := getDB(ctx, r.db, tx)

	result := db.Model(&models.Exam{}).Where("id = ?", id).Update("is_published", published)
	if result.Error != nil {
		return fmt.Errorf("update exam published: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateByID(ctx, id)
	return nil
}

func (r *examRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(ctx, r.db, tx)

	result := db.Delete(&models.Exam{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateByID(ctx, id)
	return nil
}

func (r *examRepository) AccessCodeExists(ctx context.Context, tx *gorm.DB, code string, excludeID *uint) (bool, error) {
	db := getDB(ctx, r.db, tx)

	query := db.Model(&models.Exam{}).Where("access_code = ?", code)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check access code: %w", err)
	}
	return count > 0, nil
}

func (r *examRepository) HasQuestions(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := getDB(ctx, r.db, tx)

	var count int64
	if err := db.Model(&models.Question{}).Where("exam_id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count exam questions: %w", err)
	}
	return count > 0, nil
}

func (r *examRepository) HasAttempts(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := getDB(ctx, r.db, tx)

	var count int64
	if err := db.Model(&models.Attempt{}).Where("exam_id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count exam attempts: %w", err)
	}
	return count > 0, nil
}

func (r *examRepository) IsOwner(ctx context.Context, tx *gorm.DB, examID uint, userID string) (bool, error) {
	db := getDB(ctx, r.db, tx)

	var count int64
	err := db.Model(&models.Exam{}).
		Where("id = ? AND created_by = ?", examID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check exam ownership: %w", err)
	}
	return count > 0, nil
}

func (r *examRepository) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.ExamStats, error) {
	db := getDB(ctx, r.db, tx)

	var exists int64
	if err := db.Model(&models.Exam{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("check exam: %w", err)
	}
	if exists == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	stats := &repositories.ExamStats{}

	var questionCount int64
	if err := db.Model(&models.Question{}).Where("exam_id = ?", id).Count(&questionCount).Error; err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	stats.QuestionCount = int(questionCount)
	stats.MaxPossibleScore = int(questionCount)

	type attemptAgg struct {
		Total    int64
		Average  float64
		Highest  int
		Students int64
	}
	var agg attemptAgg
	err := db.Model(&models.Attempt{}).
		Select("COUNT(*) AS total, COALESCE(AVG(score), 0) AS average, COALESCE(MAX(score), 0) AS highest, COUNT(DISTINCT user_id) AS students").
		Where("exam_id = ?", id).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate attempts: %w", err)
	}

	stats.TotalAttempts = int(agg.Total)
	stats.AverageScore = agg.Average
	stats.HighestScore = agg.Highest
	stats.DistinctStudents = int(agg.Students)
	return stats, nil
}

func (r *examRepository) fillComputedFields(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := getDB(ctx, r.db, tx)

	var questionCount int64
	if err := db.Model(&models.Question{}).Where("exam_id = ?", exam.ID).Count(&questionCount).Error; err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	exam.QuestionCount = int(questionCount)

	type agg struct {
		Total   int64
		Average float64
	}
	var a agg
	err := db.Model(&models.Attempt{}).
		Select("COUNT(*) AS total, COALESCE(AVG(score), 0) AS average").
		Where("exam_id = ?", exam.ID).
		Scan(&a).Error
	if err != nil {
		return fmt.Errorf("aggregate attempts: %w", err)
	}
	exam.AttemptCount = int(a.Total)
	exam.AvgScore = a.Average
	return nil
}

// invalidateByID drops the id-keyed entries and clears the code keyspace by
// pattern, covering writes where the prior access code is unknown or changed.
func (r *examRepository) invalidateByID(ctx context.Context, id uint) {
	if err := r.cache.InvalidateExam(ctx, id, ""); err != nil {
		r.logger.Warn("exam cache invalidation failed", "exam_id", id, "error", err)
	}
	if err := r.cache.Helper().InvalidatePattern(ctx, cache.ExamByCodeKey("*")); err != nil {
		r.logger.Warn("exam code cache invalidation failed", "exam_id", id, "error", err)
	}
}
