package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/examcore/exam-service/internal/events"
	"github.com/examcore/exam-service/internal/mail"
	"github.com/examcore/exam-service/internal/models"
	"github.com/examcore/exam-service/internal/repositories/postgres"
	"github.com/examcore/exam-service/internal/services"
	"github.com/examcore/exam-service/internal/validator"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db, Logger: logger})

	serviceManager := services.NewDefaultServiceManager(
		repo,
		logger,
		validator.New(),
		events.NewMockEventPublisher(),
		mail.NewNoopMailer(logger),
		services.AuthConfig{JWTSecret: "router-test-secret", TokenTTL: time.Hour, DevMode: true},
	)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize services: %v", err)
	}

	router := gin.New()
	SetupMiddleware(router, logger)
	NewHandlerManager(serviceManager).SetupRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func registerAndLogin(t *testing.T, router *gin.Engine, email, role string) string {
	t.Helper()

	rec, _ := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"full_name": "Test " + role,
		"email":     email,
		"password":  "strong-pass-1",
		"role":      role,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}

	rec, body := doJSON(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"email":    email,
		"password": "strong-pass-1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}

	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in response %s", email, rec.Body.String())
	}
	return token
}

func TestRouter_ExamLifecycle(t *testing.T) {
	router := newTestRouter(t)

	adminToken := registerAndLogin(t, router, "admin@example.com", "admin")
	studentToken := registerAndLogin(t, router, "student@example.com", "student")

	// Admin authors an exam.
	rec, exam := doJSON(t, router, http.MethodPost, "/api/v1/exams", adminToken, map[string]interface{}{
		"title":              "Go Basics",
		"time_limit_minutes": 30,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create exam: status %d body %s", rec.Code, rec.Body.String())
	}
	examID := uint(exam["id"].(float64))
	accessCode := exam["access_code"].(string)
	if len(accessCode) != 8 {
		t.Errorf("expected 8-char access code, got %q", accessCode)
	}

	// Admin adds a question.
	rec, question := doJSON(t, router, http.MethodPost, "/api/v1/questions", adminToken, map[string]interface{}{
		"exam_id":        examID,
		"text":           "What keyword declares a variable?",
		"option_a":       "var",
		"option_b":       "let",
		"option_c":       "dim",
		"option_d":       "def",
		"correct_answer": "A",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create question: status %d body %s", rec.Code, rec.Body.String())
	}
	questionID := uint(question["id"].(float64))

	// Students cannot author exams.
	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/exams", studentToken, map[string]interface{}{
		"title":              "Rogue Exam",
		"time_limit_minutes": 10,
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("student create exam: expected 403, got %d", rec.Code)
	}

	// Unauthenticated requests are rejected.
	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/exams", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous list exams: expected 401, got %d", rec.Code)
	}

	// Draft exams are invisible by access code.
	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/exams/code/"+accessCode, studentToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("draft exam by code: expected 404, got %d", rec.Code)
	}

	// Publish, then the student can fetch it without grading data.
	rec, _ = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/exams/%d/publish", examID), adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish exam: status %d body %s", rec.Code, rec.Body.String())
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/exams/code/"+accessCode, studentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("published exam by code: status %d body %s", rec.Code, rec.Body.String())
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("correct_answer")) {
		t.Error("taker view must not leak correct answers")
	}

	// Student submits and is graded.
	rec, attempt := doJSON(t, router, http.MethodPost, "/api/v1/attempts", studentToken, map[string]interface{}{
		"exam_id": examID,
		"answers": map[string]string{fmt.Sprint(questionID): "a"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit attempt: status %d body %s", rec.Code, rec.Body.String())
	}
	if score := attempt["score"].(float64); score != 1 {
		t.Errorf("expected score 1, got %v", score)
	}

	// The student sees their own history.
	rec, list := doJSON(t, router, http.MethodGet, "/api/v1/attempts/mine", studentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("my attempts: status %d body %s", rec.Code, rec.Body.String())
	}
	if total := list["total"].(float64); total != 1 {
		t.Errorf("expected 1 attempt, got %v", total)
	}

	// Deleting an exam with attempts conflicts.
	rec, _ = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/exams/%d", examID), adminToken, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("delete exam with attempts: expected 409, got %d", rec.Code)
	}

	// Admin exports results.
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/exams/%d/export", examID), nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	exportRec := httptest.NewRecorder()
	router.ServeHTTP(exportRec, req)
	if exportRec.Code != http.StatusOK {
		t.Fatalf("export: status %d", exportRec.Code)
	}
	if exportRec.Body.Len() == 0 {
		t.Error("export should stream a workbook")
	}
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d body %s", rec.Code, rec.Body.String())
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", body["status"])
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("request id header should be set")
	}
}

func TestRouter_AuthFailures(t *testing.T) {
	router := newTestRouter(t)

	t.Run("bad credentials", func(t *testing.T) {
		registerAndLogin(t, router, "someone@example.com", "student")
		rec, _ := doJSON(t, router, http.MethodPost, "/api/login", "", map[string]string{
			"email":    "someone@example.com",
			"password": "wrong-pass",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("malformed bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/attempts/mine", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		registerAndLogin(t, router, "dup@example.com", "student")
		rec, _ := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
			"full_name": "Dup",
			"email":     "dup@example.com",
			"password":  "strong-pass-1",
		})
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}
	})
}
