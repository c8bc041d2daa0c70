package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/vivavoce/internal/controller"
	"github.com/lshigami/vivavoce/internal/service"
)

type ReportController struct {
	reportService service.ReportService
}

func NewReportController(rs service.ReportService) *ReportController {
	return &ReportController{reportService: rs}
}

// GetReport godoc
// @Summary Get the results report of a completed interview
// @Tags Results
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.ReportDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Session not completed"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /results/{session_id} [get]
func (c *ReportController) GetReport(ctx *gin.Context) {
	report, err := c.reportService.GetReport(ctx.Param("session_id"))
	if err != nil {
		controller.RespondError(ctx, "Failed to build report", err)
		return
	}
	ctx.JSON(http.StatusOK, report)
}
