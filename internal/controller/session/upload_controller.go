package session

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/vivavoce/config"
	"github.com/lshigami/vivavoce/internal/controller"
	"github.com/lshigami/vivavoce/internal/dto"
	"github.com/lshigami/vivavoce/internal/service"
	"github.com/rs/zerolog/log"
)

type UploadController struct {
	materialService service.MaterialService
	maxFileBytes    int64
}

func NewUploadController(cfg *config.Config, ms service.MaterialService) *UploadController {
	return &UploadController{materialService: ms, maxFileBytes: cfg.Upload.MaxFileBytes}
}

// Upload godoc
// @Summary Upload study material and start an interview
// @Description Accepts one or more PDF files, stores them and opens an interview session over them.
// @Tags Sessions
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "PDF study material (repeat for several files)"
// @Success 201 {object} dto.UploadResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid upload"
// @Failure 422 {object} dto.ErrorResponse "No questions could be issued"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /uploads [post]
func (c *UploadController) Upload(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		log.Warn().Err(err).Msg("Upload: invalid multipart form")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid multipart form", Details: []string{err.Error()}})
		return
	}

	headers := form.File["files"]
	files := make([]service.UploadedFile, 0, len(headers))
	for _, h := range headers {
		content, err := c.read(h)
		if err != nil {
			log.Warn().Err(err).Str("file", h.Filename).Msg("Upload: failed to read file")
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to read uploaded file", Details: []string{err.Error()}})
			return
		}
		files = append(files, service.UploadedFile{FileName: h.Filename, Content: content})
	}

	resp, err := c.materialService.Upload(ctx.Request.Context(), files)
	if err != nil {
		controller.RespondError(ctx, "Failed to start interview from upload", err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// read returns at most one byte more than the size limit, enough for the
// service to reject an oversized file.
func (c *UploadController) read(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if c.maxFileBytes > 0 {
		return io.ReadAll(io.LimitReader(f, c.maxFileBytes+1))
	}
	return io.ReadAll(f)
}
