package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/examcore/exam-service/internal/models"
	"github.com/examcore/exam-service/internal/services"
	"github.com/examcore/exam-service/internal/utils"
	"github.com/examcore/exam-service/internal/validator"
)

// ErrorResponse is the envelope for every non-2xx response.
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps 2xx payloads that carry a message.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse wraps paginated collections.
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
}

// BaseHandler carries the helpers shared by all handlers.
type BaseHandler struct{}

// LogRequest emits one debug line tying the action to the request id.
func (h *BaseHandler) LogRequest(c *gin.Context, action string) {
	utils.ContextLogger(c).Debug("handling request", "action", action)
}

// parseIDParam reads a positive integer path parameter. On failure it
// writes a 400 and returns false.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "invalid " + name + " parameter",
			Details: raw,
		})
		return 0, false
	}
	return uint(id), true
}

// currentActor builds the permission actor from the claims the auth
// middleware stored on the context.
func (h *BaseHandler) currentActor(c *gin.Context) services.Actor {
	return services.Actor{
		ID:   c.GetString(ContextUserID),
		Role: models.UserRole(c.GetString(ContextUserRole)),
	}
}

// handleServiceError maps the service error taxonomy onto HTTP statuses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error, action string) {
	logger := utils.ContextLogger(c)

	var validationErrs validator.ValidationErrors
	switch {
	case services.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "validation failed",
			Details: validationErrs,
		})
	case services.IsValidationError(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	case services.IsConflictError(err):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
	case services.IsAuthError(err):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "authentication failed"})
	case services.IsPermissionError(err):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "permission denied"})
	default:
		logger.Error("request failed", "action", action, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal server error"})
	}
}
