package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/vivavoce/internal/dto"
	"github.com/lshigami/vivavoce/internal/interview"
	"github.com/lshigami/vivavoce/internal/service"
	"github.com/rs/zerolog/log"
)

// StatusFor maps a service or machine error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidUpload):
		return http.StatusBadRequest
	case errors.Is(err, interview.ErrEmptyQuestionBank):
		return http.StatusUnprocessableEntity
	case errors.Is(err, interview.ErrInvalidTransition),
		errors.Is(err, interview.ErrDuplicateResponse),
		errors.Is(err, interview.ErrClosed),
		errors.Is(err, service.ErrSessionAlreadyStarted),
		errors.Is(err, service.ErrSessionNotCompleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as a dto.ErrorResponse with the mapped status.
func RespondError(ctx *gin.Context, message string, err error) {
	status := StatusFor(err)
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("path", ctx.FullPath()).Int("status", status).Msg(message)
	ctx.JSON(status, dto.ErrorResponse{Message: message, Details: []string{err.Error()}})
}

type HealthController struct {
	interviews service.InterviewService
}

func NewHealthController(interviews service.InterviewService) *HealthController {
	return &HealthController{interviews: interviews}
}

// Health godoc
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", ActiveSessions: c.interviews.ActiveSessions()})
}
