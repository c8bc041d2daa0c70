package session

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/vivavoce/internal/controller"
	"github.com/lshigami/vivavoce/internal/dto"
	"github.com/lshigami/vivavoce/internal/service"
	"github.com/rs/zerolog/log"
)

const maxAudioBytes = 25 << 20

var errAudioTooLarge = errors.New("recording is larger than 25 MiB")

type InterviewController struct {
	interviewService service.InterviewService
}

func NewInterviewController(is service.InterviewService) *InterviewController {
	return &InterviewController{interviewService: is}
}

func (c *InterviewController) respond(ctx *gin.Context, action string, state *dto.InterviewStateDTO, err error) {
	if err != nil {
		controller.RespondError(ctx, "Failed to "+action, err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// GetState godoc
// @Summary Get interview state
// @Description Returns the current question, progress, clocks, committed responses and the actions allowed now.
// @Tags Interviews
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.InterviewStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /interviews/{session_id} [get]
func (c *InterviewController) GetState(ctx *gin.Context) {
	state, err := c.interviewService.GetState(ctx.Param("session_id"))
	c.respond(ctx, "get interview state", state, err)
}

// Play godoc
// @Summary Play the current question
// @Tags Interviews
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.InterviewStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Not allowed in the current state"
// @Router /interviews/{session_id}/play [post]
func (c *InterviewController) Play(ctx *gin.Context) {
	state, err := c.interviewService.Play(ctx.Param("session_id"))
	c.respond(ctx, "play question", state, err)
}

// StartRecording godoc
// @Summary Start recording an answer
// @Tags Interviews
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.InterviewStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Not allowed in the current state"
// @Router /interviews/{session_id}/recording/start [post]
func (c *InterviewController) StartRecording(ctx *gin.Context) {
	state, err := c.interviewService.StartRecording(ctx.Param("session_id"))
	c.respond(ctx, "start recording", state, err)
}

// StopRecording godoc
// @Summary Stop recording and submit the answer
// @Description The recording is sent either as an "audio" multipart file or as the raw request body. Transcription and evaluation run in the background; poll the state for the result.
// @Tags Interviews
// @Accept multipart/form-data
// @Accept application/octet-stream
// @Produce json
// @Param session_id path string true "Session ID"
// @Param audio formData file false "Recorded answer"
// @Success 200 {object} dto.InterviewStateDTO
// @Failure 400 {object} dto.ErrorResponse "Unreadable audio"
// @Failure 413 {object} dto.ErrorResponse "Recording too large"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Not recording"
// @Router /interviews/{session_id}/recording/stop [post]
func (c *InterviewController) StopRecording(ctx *gin.Context) {
	audio, err := readAudio(ctx)
	if err != nil {
		log.Warn().Err(err).Str("sessionID", ctx.Param("session_id")).Msg("StopRecording: failed to read audio")
		status := http.StatusBadRequest
		if errors.Is(err, errAudioTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		ctx.JSON(status, dto.ErrorResponse{Message: "Failed to read audio", Details: []string{err.Error()}})
		return
	}
	state, err := c.interviewService.StopRecording(ctx.Param("session_id"), audio)
	c.respond(ctx, "stop recording", state, err)
}

func readAudio(ctx *gin.Context) ([]byte, error) {
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		h, err := ctx.FormFile("audio")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return nil, nil
			}
			return nil, err
		}
		f, err := h.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readLimited(f)
	}
	return readLimited(ctx.Request.Body)
}

// readLimited rejects a recording over maxAudioBytes instead of truncating it.
func readLimited(r io.Reader) ([]byte, error) {
	audio, err := io.ReadAll(io.LimitReader(r, maxAudioBytes+1))
	if err != nil {
		return nil, err
	}
	if len(audio) > maxAudioBytes {
		return nil, errAudioTooLarge
	}
	return audio, nil
}

// RetryEvaluation godoc
// @Summary Retry a failed evaluation
// @Tags Interviews
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.InterviewStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "No failed evaluation to retry"
// @Router /interviews/{session_id}/evaluation/retry [post]
func (c *InterviewController) RetryEvaluation(ctx *gin.Context) {
	state, err := c.interviewService.RetryEvaluation(ctx.Param("session_id"))
	c.respond(ctx, "retry evaluation", state, err)
}

// Skip godoc
// @Summary Skip the current question
// @Description Commits an empty answer scored 0.
// @Tags Interviews
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.InterviewStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Already answered or not allowed now"
// @Router /interviews/{session_id}/skip [post]
func (c *InterviewController) Skip(ctx *gin.Context) {
	state, err := c.interviewService.Skip(ctx.Param("session_id"))
	c.respond(ctx, "skip question", state, err)
}

// Next godoc
// @Summary Move to the next question
// @Description After the last question the session completes and results_path points at the report.
// @Tags Interviews
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.InterviewStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Current question has no response"
// @Router /interviews/{session_id}/next [post]
func (c *InterviewController) Next(ctx *gin.Context) {
	state, err := c.interviewService.Next(ctx.Param("session_id"))
	c.respond(ctx, "advance", state, err)
}

// Abandon godoc
// @Summary Leave an interview
// @Tags Interviews
// @Param session_id path string true "Session ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /interviews/{session_id} [delete]
func (c *InterviewController) Abandon(ctx *gin.Context) {
	if err := c.interviewService.Abandon(ctx.Param("session_id")); err != nil {
		controller.RespondError(ctx, "Failed to abandon interview", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
