package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/examcore/exam-service/internal/cache"
	"github.com/examcore/exam-service/internal/models"
	"github.com/examcore/exam-service/internal/repositories"
)

var attemptSortColumns = map[string]bool{
	"created_at": true,
	"score":      true,
}

type attemptRepository struct {
	db    *gorm.DB
	cache *cache.CacheManager
}

func NewAttemptRepository(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AttemptRepository {
	return &attemptRepository{
		db:    db,
		cache: cacheManager,
	}
}

// Create inserts a graded attempt. Attempts are append-only; there is no
// Update or Delete on this repository.
func (r *attemptRepository) Create(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	db := getDB(ctx, r.db, tx)
	if err := db.Create(attempt).Error; err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	// New attempts change the exam's aggregate stats.
	_ = r.cache.InvalidateExam(ctx, attempt.ExamID, "")
	return nil
}

func (r *attemptRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error) {
	db := getDB(ctx, r.db, tx)

	var attempt models.Attempt
	if err := db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error) {
	db := getDB(ctx, r.db, tx)

	var attempt models.Attempt
	err := db.
		Preload("User").
		Preload("Exam").
		Preload("Exam.Questions").
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	db := getDB(ctx, r.db, tx)

	filters.UserID = nil
	query := applyAttemptFilters(db.Model(&models.Attempt{}).Where("user_id = ?", userID), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count user attempts: %w", err)
	}

	query = applyPaginationAndSort(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder, attemptSortColumns)

	var attempts []*models.Attempt
	if err := query.Preload("Exam").Find(&attempts).Error; err != nil {
		return nil, 0, fmt.Errorf("list user attempts: %w", err)
	}
	return attempts, total, nil
}

func (r *attemptRepository) GetByExam(ctx context.Context, tx *gorm.DB, examID uint, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	db := getDB(ctx, r.db, tx)

	filters.ExamID = nil
	query := applyAttemptFilters(db.Model(&models.Attempt{}).Where("exam_id = ?", examID), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count exam attempts: %w", err)
	}

	query = applyPaginationAndSort(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder, attemptSortColumns)

	var attempts []*models.Attempt
	if err := query.Preload("User").Find(&attempts).Error; err != nil {
		return nil, 0, fmt.Errorf("list exam attempts: %w", err)
	}
	return attempts, total, nil
}

func (r *attemptRepository) CountByExam(ctx context.Context, tx *gorm.DB, examID uint) (int64, error) {
	db := getDB(ctx, r.db, tx)

	var count int64
	if err := db.Model(&models.Attempt{}).Where("exam_id = ?", examID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}
