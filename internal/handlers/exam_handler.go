package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/examcore/exam-service/internal/models"
	"github.com/examcore/exam-service/internal/repositories"
	"github.com/examcore/exam-service/internal/services"
	"github.com/examcore/exam-service/internal/utils"
)

type ExamHandler struct {
	BaseHandler
	examService    services.ExamService
	exportService  services.ExportService
	attemptService services.AttemptService
}

func NewExamHandler(examService services.ExamService, exportService services.ExportService, attemptService services.AttemptService) *ExamHandler {
	return &ExamHandler{
		examService:    examService,
		exportService:  exportService,
		attemptService: attemptService,
	}
}

// CreateExam handles POST /api/v1/exams.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	h.LogRequest(c, "create_exam")

	var req services.ExamCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	exam, err := h.examService.CreateExam(c.Request.Context(), c.GetString(ContextUserID), &req)
	if err != nil {
		h.handleServiceError(c, err, "create_exam")
		return
	}

	c.JSON(http.StatusCreated, exam)
}

// ListExams handles GET /api/v1/exams.
func (h *ExamHandler) ListExams(c *gin.Context) {
	h.LogRequest(c, "list_exams")

	filters := repositories.ExamFilters{
		Limit:     parseQueryInt(c, "limit", 50),
		Offset:    parseQueryInt(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if v := c.Query("published"); v != "" {
		published := v == "true"
		filters.Published = &published
	}
	if v := c.Query("level"); v != "" {
		level := models.EducationLevel(v)
		filters.Level = &level
	}
	if v := c.Query("created_by"); v != "" {
		filters.CreatedBy = &v
	}

	exams, total, err := h.examService.ListExams(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err, "list_exams")
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: exams, Total: total})
}

// GetExam handles GET /api/v1/exams/:id.
func (h *ExamHandler) GetExam(c *gin.Context) {
	h.LogRequest(c, "get_exam")

	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.GetExam(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "get_exam")
		return
	}

	c.JSON(http.StatusOK, exam)
}

// GetExamByAccessCode handles GET /api/v1/exams/code/:code. The response
// is the exam as a taker sees it: questions without correct answers.
func (h *ExamHandler) GetExamByAccessCode(c *gin.Context) {
	h.LogRequest(c, "get_exam_by_code")

	exam, err := h.examService.GetExamByAccessCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handleServiceError(c, err, "get_exam_by_code")
		return
	}

	c.JSON(http.StatusOK, toTakerView(exam))
}

// UpdateExam handles PUT /api/v1/exams/:id.
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	h.LogRequest(c, "update_exam")

	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.ExamUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	exam, err := h.examService.UpdateExam(c.Request.Context(), c.GetString(ContextUserID), id, &req)
	if err != nil {
		h.handleServiceError(c, err, "update_exam")
		return
	}

	c.JSON(http.StatusOK, exam)
}

// DeleteExam handles DELETE /api/v1/exams/:id.
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	h.LogRequest(c, "delete_exam")

	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.examService.DeleteExam(c.Request.Context(), c.GetString(ContextUserID), id); err != nil {
		h.handleServiceError(c, err, "delete_exam")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "exam deleted"})
}

type publishRequest struct {
	Published *bool `json:"published"`
}

// PublishExam handles POST /api/v1/exams/:id/publish. An absent body
// publishes; {"published": false} withdraws.
func (h *ExamHandler) PublishExam(c *gin.Context) {
	h.LogRequest(c, "publish_exam")

	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	published := true
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.Published != nil {
		published = *req.Published
	}

	exam, err := h.examService.SetPublished(c.Request.Context(), c.GetString(ContextUserID), id, published)
	if err != nil {
		h.handleServiceError(c, err, "publish_exam")
		return
	}

	c.JSON(http.StatusOK, exam)
}

// GetExamStats handles GET /api/v1/exams/:id/stats.
func (h *ExamHandler) GetExamStats(c *gin.Context) {
	h.LogRequest(c, "get_exam_stats")

	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	stats, err := h.examService.GetExamStats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "get_exam_stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetExamAttempts handles GET /api/v1/exams/:id/attempts.
func (h *ExamHandler) GetExamAttempts(c *gin.Context) {
	h.LogRequest(c, "get_exam_attempts")

	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	filters := repositories.AttemptFilters{
		Limit:     parseQueryInt(c, "limit", 50),
		Offset:    parseQueryInt(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	attempts, total, err := h.attemptService.GetExamAttempts(c.Request.Context(), id, filters)
	if err != nil {
		h.handleServiceError(c, err, "get_exam_attempts")
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: attempts, Total: total})
}

// ExportExamResults handles GET /api/v1/exams/:id/export and streams an
// xlsx workbook.
func (h *ExamHandler) ExportExamResults(c *gin.Context) {
	h.LogRequest(c, "export_exam_results")

	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.exportService.ExportExamResults(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "export_exam_results")
		return
	}

	utils.ContextLogger(c).Info("serving results export", "exam_id", id, "bytes", len(result.Content))

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

// ===== TAKER VIEW =====

type takerQuestion struct {
	ID             uint    `json:"id"`
	Text           string  `json:"text"`
	OptionA        string  `json:"option_a"`
	OptionB        string  `json:"option_b"`
	OptionC        string  `json:"option_c"`
	OptionD        string  `json:"option_d"`
	ImageURL       *string `json:"image_url,omitempty"`
	ReadingPassage *string `json:"reading_passage,omitempty"`
}

type takerExam struct {
	ID               uint                  `json:"id"`
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	TimeLimitMinutes int                   `json:"time_limit_minutes"`
	Level            models.EducationLevel `json:"level"`
	Questions        []takerQuestion       `json:"questions"`
}

// toTakerView strips grading data before an exam reaches a student.
func toTakerView(exam *models.Exam) takerExam {
	questions := make([]takerQuestion, 0, len(exam.Questions))
	for _, q := range exam.Questions {
		questions = append(questions, takerQuestion{
			ID:             q.ID,
			Text:           q.Text,
			OptionA:        q.OptionA,
			OptionB:        q.OptionB,
			OptionC:        q.OptionC,
			OptionD:        q.OptionD,
			ImageURL:       q.ImageURL,
			ReadingPassage: q.ReadingPassage,
		})
	}
	return takerExam{
		ID:               exam.ID,
		Title:            exam.Title,
		Description:      exam.Description,
		TimeLimitMinutes: exam.TimeLimitMinutes,
		Level:            exam.Level,
		Questions:        questions,
	}
}

func parseQueryInt(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
