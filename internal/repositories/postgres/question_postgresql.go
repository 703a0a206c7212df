package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/examcore/exam-service/internal/cache"
	"github.com/examcore/exam-service/internal/models"
	"github.com/examcore/exam-service/internal/repositories"
)

type questionRepository struct {
	db    *gorm.DB
	cache *cache.CacheManager
}

func NewQuestionRepository(db *gorm.DB, cacheManager *cache.CacheManager) repositories.QuestionRepository {
	return &questionRepository{
		db:    db,
		cache: cacheManager,
	}
}

func (r *questionRepository) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := getDB(ctx, r.db, tx)
	if err := db.Create(question).Error; err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	// Question changes alter the exam's grading surface.
	_ = r.cache.InvalidateExam(ctx, question.ExamID, "")
	return nil
}

func (r *questionRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := getDB(ctx, r.db, tx)

	var question models.Question
	if err := db.First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.Question, error) {
	db := getDB(ctx, r.db, tx)

	var questions []*models.Question
	err := db.Where("exam_id = ?", examID).Order("id ASC").Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("list exam questions: %w", err)
	}
	return questions, nil
}

func (r *questionRepository) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := getDB(ctx, r.db, tx)
	if err := db.Save(question).Error; err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	_ = r.cache.InvalidateExam(ctx, question.ExamID, "")
	return nil
}

func (r *questionRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(ctx, r.db, tx)

	var question models.Question
	if err := db.First(&question, id).Error; err != nil {
		return err
	}

	if err := db.Delete(&models.Question{}, id).Error; err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	_ = r.cache.InvalidateExam(ctx, question.ExamID, "")
	return nil
}

func (r *questionRepository) CountByExam(ctx context.Context, tx *gorm.DB, examID uint) (int64, error) {
	db := getDB(ctx, r.db, tx)

	var count int64
	if err := db.Model(&models.Question{}).Where("exam_id = ?", examID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}
