package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/examcore/exam-service/internal/models"
	"github.com/examcore/exam-service/internal/repositories"
	"github.com/examcore/exam-service/internal/repositories/postgres"
	"github.com/examcore/exam-service/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRepo(t *testing.T) repositories.Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	err = db.AutoMigrate(&models.User{}, &models.Exam{}, &models.Question{}, &models.Attempt{})
	if err != nil {
		t.Fatalf("migrate test schema: %v", err)
	}

	return postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{
		DB:     db,
		Logger: testLogger(),
	})
}

var seedCounter int

func seedUser(t *testing.T, repo repositories.Repository, role models.UserRole) *models.User {
	t.Helper()

	seedCounter++
	hash, err := bcrypt.GenerateFromPassword([]byte("initial-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash seed password: %v", err)
	}

	email := fmt.Sprintf("user%d@example.com", seedCounter)
	user := &models.User{
		ID:           uuid.New().String(),
		UserName:     email,
		FullName:     fmt.Sprintf("Seed User %d", seedCounter),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := repo.User().Create(context.Background(), nil, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedExam(t *testing.T, repo repositories.Repository, ownerID string, published bool) *models.Exam {
	t.Helper()

	seedCounter++
	exam := &models.Exam{
		Title:            fmt.Sprintf("Seed Exam %d", seedCounter),
		TimeLimitMinutes: 60,
		AccessCode:       fmt.Sprintf("SEED%04d", seedCounter%10000),
		IsPublished:      published,
		Level:            models.LevelUniversity,
		CreatedBy:        ownerID,
	}
	if err := repo.Exam().Create(context.Background(), nil, exam); err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	return exam
}

func seedQuestion(t *testing.T, repo repositories.Repository, examID uint, correct models.AnswerLetter) *models.Question {
	t.Helper()

	seedCounter++
	question := &models.Question{
		ExamID:        examID,
		Text:          fmt.Sprintf("Seed question %d?", seedCounter),
		OptionA:       "first",
		OptionB:       "second",
		OptionC:       "third",
		OptionD:       "fourth",
		CorrectAnswer: correct,
	}
	if err := repo.Question().Create(context.Background(), nil, question); err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return question
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		DevMode:   true,
	}
}

func newTestValidator() *validator.Validator {
	return validator.New()
}
