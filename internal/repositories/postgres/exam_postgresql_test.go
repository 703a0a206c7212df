package postgres

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/examcore/exam-service/internal/models"
	"github.com/examcore/exam-service/internal/repositories"
)

func newCachedRepo(t *testing.T) *PostgreSQLRepository {
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

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewPostgreSQLRepository(RepositoryConfig{
		DB:          db,
		RedisClient: client,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func createUser(t *testing.T, repo *PostgreSQLRepository, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New().String(),
		UserName:     fmt.Sprintf("%s@example.com", uuid.New().String()[:8]),
		FullName:     "Repo Test User",
		Email:        fmt.Sprintf("%s@example.com", uuid.New().String()[:8]),
		PasswordHash: "x",
		Role:         role,
	}
	if err := repo.User().Create(context.Background(), nil, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createExam(t *testing.T, repo *PostgreSQLRepository, ownerID, code string, published bool) *models.Exam {
	t.Helper()

	exam := &models.Exam{
		Title:            "Repo Test Exam " + code,
		TimeLimitMinutes: 30,
		AccessCode:       code,
		IsPublished:      published,
		Level:            models.LevelUniversity,
		CreatedBy:        ownerID,
	}
	if err := repo.Exam().Create(context.Background(), nil, exam); err != nil {
		t.Fatalf("create exam: %v", err)
	}
	return exam
}

func TestExamRepository_UpdateInvalidatesRetiredCode(t *testing.T) {
	ctx := context.Background()
	repo := newCachedRepo(t)

	admin := createUser(t, repo, models.RoleAdmin)
	exam := createExam(t, repo, admin.ID, "OLDCODE1", true)

	// Warm the code-keyed cache entry before the code changes.
	warmed, err := repo.Exam().GetByAccessCode(ctx, nil, "OLDCODE1")
	if err != nil {
		t.Fatalf("lookup by code: %v", err)
	}
	if warmed.ID != exam.ID {
		t.Fatalf("expected exam %d, got %d", exam.ID, warmed.ID)
	}

	exam.AccessCode = "NEWCODE1"
	if err := repo.Exam().Update(ctx, nil, exam); err != nil {
		t.Fatalf("update exam: %v", err)
	}

	t.Run("retired code no longer resolves", func(t *testing.T) {
		_, err := repo.Exam().GetByAccessCode(ctx, nil, "OLDCODE1")
		if !repositories.IsNotFoundError(err) {
			t.Errorf("expected not found for retired code, got %v", err)
		}
	})

	t.Run("new code resolves", func(t *testing.T) {
		got, err := repo.Exam().GetByAccessCode(ctx, nil, "NEWCODE1")
		if err != nil {
			t.Fatalf("lookup by new code: %v", err)
		}
		if got.ID != exam.ID {
			t.Errorf("expected exam %d, got %d", exam.ID, got.ID)
		}
	})
}

func TestExamRepository_ListLoadsRelations(t *testing.T) {
	ctx := context.Background()
	repo := newCachedRepo(t)

	admin := createUser(t, repo, models.RoleAdmin)
	student := createUser(t, repo, models.RoleStudent)
	exam := createExam(t, repo, admin.ID, "LISTEX01", true)

	question := &models.Question{
		ExamID:        exam.ID,
		Text:          "Pick one?",
		OptionA:       "first",
		OptionB:       "second",
		OptionC:       "third",
		OptionD:       "fourth",
		CorrectAnswer: models.AnswerA,
	}
	if err := repo.Question().Create(ctx, nil, question); err != nil {
		t.Fatalf("create question: %v", err)
	}

	attempt := &models.Attempt{
		ExamID: exam.ID,
		UserID: student.ID,
		Score:  1,
	}
	if err := repo.Attempt().Create(ctx, nil, attempt); err != nil {
		t.Fatalf("create attempt: %v", err)
	}

	exams, total, err := repo.Exam().List(ctx, nil, repositories.ExamFilters{})
	if err != nil {
		t.Fatalf("list exams: %v", err)
	}
	if total != 1 || len(exams) != 1 {
		t.Fatalf("expected 1 exam, got total=%d len=%d", total, len(exams))
	}

	got := exams[0]
	if got.Creator.ID != admin.ID {
		t.Errorf("creator should be loaded, got %q", got.Creator.ID)
	}
	if len(got.Questions) != 1 || got.Questions[0].ID != question.ID {
		t.Errorf("questions should be loaded, got %d", len(got.Questions))
	}
	if len(got.Attempts) != 1 || got.Attempts[0].ID != attempt.ID {
		t.Errorf("attempts should be loaded, got %d", len(got.Attempts))
	}
	if got.QuestionCount != 1 || got.AttemptCount != 1 {
		t.Errorf("computed counts wrong: %d questions, %d attempts", got.QuestionCount, got.AttemptCount)
	}
}
