package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examcore/exam-service/internal/repositories"
	"github.com/examcore/exam-service/internal/services"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// SubmitAttempt handles POST /api/v1/attempts. The submitting user comes
// from the token, never the body.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	h.LogRequest(c, "submit_attempt")

	var req services.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}

	attempt, err := h.attemptService.SubmitAttempt(c.Request.Context(), c.GetString(ContextUserID), &req)
	if err != nil {
		h.handleServiceError(c, err, "submit_attempt")
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// GetAttempt handles GET /api/v1/attempts/:id.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	h.LogRequest(c, "get_attempt")

	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetAttempt(c.Request.Context(), h.currentActor(c), id)
	if err != nil {
		h.handleServiceError(c, err, "get_attempt")
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetMyAttempts handles GET /api/v1/attempts/mine.
func (h *AttemptHandler) GetMyAttempts(c *gin.Context) {
	h.LogRequest(c, "get_my_attempts")

	actor := h.currentActor(c)
	filters := repositories.AttemptFilters{
		Limit:     parseQueryInt(c, "limit", 50),
		Offset:    parseQueryInt(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	attempts, total, err := h.attemptService.GetUserAttempts(c.Request.Context(), actor, actor.ID, filters)
	if err != nil {
		h.handleServiceError(c, err, "get_my_attempts")
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: attempts, Total: total})
}

// GetUserAttempts handles GET /api/v1/users/:id/attempts.
func (h *AttemptHandler) GetUserAttempts(c *gin.Context) {
	h.LogRequest(c, "get_user_attempts")

	userID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id parameter"})
		return
	}

	filters := repositories.AttemptFilters{
		Limit:     parseQueryInt(c, "limit", 50),
		Offset:    parseQueryInt(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	attempts, total, err := h.attemptService.GetUserAttempts(c.Request.Context(), h.currentActor(c), userID, filters)
	if err != nil {
		h.handleServiceError(c, err, "get_user_attempts")
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: attempts, Total: total})
}
