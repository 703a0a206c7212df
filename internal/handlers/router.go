package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/examcore/exam-service/internal/models"
	"github.com/examcore/exam-service/internal/services"
)

// HandlerManager owns the HTTP handlers and route registration.
type HandlerManager struct {
	serviceManager services.ServiceManager

	authHandler     *AuthHandler
	examHandler     *ExamHandler
	questionHandler *QuestionHandler
	attemptHandler  *AttemptHandler
}

func NewHandlerManager(serviceManager services.ServiceManager) *HandlerManager {
	return &HandlerManager{
		serviceManager: serviceManager,
		authHandler:    NewAuthHandler(serviceManager.GetAuthService()),
		examHandler: NewExamHandler(
			serviceManager.GetExamService(),
			serviceManager.GetExportService(),
			serviceManager.GetAttemptService(),
		),
		questionHandler: NewQuestionHandler(serviceManager.GetQuestionService()),
		attemptHandler:  NewAttemptHandler(serviceManager.GetAttemptService()),
	}
}

// SetupRoutes registers the full route table.
func (m *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", m.healthCheck)

	adminOnly := RequireRoleMiddleware(string(models.RoleAdmin))

	api := router.Group("/api")
	{
		api.POST("/login", m.authHandler.Login)

		auth := api.Group("/auth")
		{
			auth.POST("/register", m.authHandler.Register)
			auth.POST("/forgot-password", m.authHandler.ForgotPassword)
			auth.POST("/reset-password", m.authHandler.ResetPassword)
		}
	}

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(m.serviceManager.GetAuthService()))
	{
		exams := v1.Group("/exams")
		{
			exams.GET("/code/:code", m.examHandler.GetExamByAccessCode)

			exams.POST("", adminOnly, m.examHandler.CreateExam)
			exams.GET("", adminOnly, m.examHandler.ListExams)
			exams.GET("/:id", adminOnly, m.examHandler.GetExam)
			exams.PUT("/:id", adminOnly, m.examHandler.UpdateExam)
			exams.DELETE("/:id", adminOnly, m.examHandler.DeleteExam)
			exams.POST("/:id/publish", adminOnly, m.examHandler.PublishExam)
			exams.GET("/:id/stats", adminOnly, m.examHandler.GetExamStats)
			exams.GET("/:id/attempts", adminOnly, m.examHandler.GetExamAttempts)
			exams.GET("/:id/export", adminOnly, m.examHandler.ExportExamResults)
			exams.GET("/:id/questions", adminOnly, m.questionHandler.ListExamQuestions)
		}

		questions := v1.Group("/questions", adminOnly)
		{
			questions.POST("", m.questionHandler.CreateQuestion)
			questions.GET("/:id", m.questionHandler.GetQuestion)
			questions.PUT("/:id", m.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", m.questionHandler.DeleteQuestion)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.POST("", m.attemptHandler.SubmitAttempt)
			attempts.POST("/submit", m.attemptHandler.SubmitAttempt)
			attempts.GET("/mine", m.attemptHandler.GetMyAttempts)
			attempts.GET("/:id", m.attemptHandler.GetAttempt)
		}

		v1.GET("/users/:id/attempts", m.attemptHandler.GetUserAttempts)
	}
}

func (m *HandlerManager) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := m.serviceManager.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "exam-service",
	})
}
