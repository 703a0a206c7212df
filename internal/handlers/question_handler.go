package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examcore/exam-service/internal/services"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
}

func NewQuestionHandler(questionService services.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// CreateQuestion handles POST /api/v1/questions.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	h.LogRequest(c, "create_question")

	var req services.QuestionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	question, err := h.questionService.CreateQuestion(c.Request.Context(), c.GetString(ContextUserID), &req)
	if err != nil {
		h.handleServiceError(c, err, "create_question")
		return
	}

	c.JSON(http.StatusCreated, question)
}

// GetQuestion handles GET /api/v1/questions/:id.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	h.LogRequest(c, "get_question")

	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	question, err := h.questionService.GetQuestion(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err, "get_question")
		return
	}

	c.JSON(http.StatusOK, question)
}

// ListExamQuestions handles GET /api/v1/exams/:id/questions.
func (h *QuestionHandler) ListExamQuestions(c *gin.Context) {
	h.LogRequest(c, "list_exam_questions")

	examID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	questions, err := h.questionService.ListExamQuestions(c.Request.Context(), examID)
	if err != nil {
		h.handleServiceError(c, err, "list_exam_questions")
		return
	}

	c.JSON(http.StatusOK, questions)
}

// UpdateQuestion handles PUT /api/v1/questions/:id.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	h.LogRequest(c, "update_question")

	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.QuestionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	question, err := h.questionService.UpdateQuestion(c.Request.Context(), c.GetString(ContextUserID), id, &req)
	if err != nil {
		h.handleServiceError(c, err, "update_question")
		return
	}

	c.JSON(http.StatusOK, question)
}

// DeleteQuestion handles DELETE /api/v1/questions/:id.
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	h.LogRequest(c, "delete_question")

	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.questionService.DeleteQuestion(c.Request.Context(), c.GetString(ContextUserID), id); err != nil {
		h.handleServiceError(c, err, "delete_question")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "question deleted"})
}
