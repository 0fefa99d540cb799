package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	tradeapp "github.com/matreq/backend/internal/application/trade"
	"github.com/matreq/backend/internal/interfaces/http/dto"
)

// DefaultMaxUploadSize bounds an uploaded row file
const DefaultMaxUploadSize int64 = 10 << 20

// RowHandler handles row file uploads
type RowHandler struct {
	BaseHandler
	uploads       *tradeapp.UploadService
	maxUploadSize int64
}

// NewRowHandler creates a new RowHandler
func NewRowHandler(uploads *tradeapp.UploadService, maxUploadSize int64) *RowHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &RowHandler{uploads: uploads, maxUploadSize: maxUploadSize}
}

// Upload godoc
// @Summary      Upload a row file
// @Description  Parses a CSV or XLSX file and enriches every row from the environment's master data
// @Tags         rows
// @Accept       multipart/form-data
// @Produce      json
// @Security     SessionToken
// @Param        file formData file true "CSV or XLSX file"
// @Success      200 {object} dto.Response{data=tradeapp.UploadResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      413 {object} dto.Response
// @Router       /rows/upload [post]
func (h *RowHandler) Upload(c *gin.Context) {
	conn, ok := h.connection(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.ErrorWithCode(c, dto.ErrCodeFileTooLarge, "File exceeds maximum allowed size")
			return
		}
		h.ErrorWithCode(c, dto.ErrCodeFileRequired, "A file is required in the 'file' field")
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		h.ErrorWithCode(c, dto.ErrCodeFileTooLarge, "File exceeds maximum allowed size")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if int64(len(content)) > h.maxUploadSize {
		h.ErrorWithCode(c, dto.ErrCodeFileTooLarge, "File exceeds maximum allowed size")
		return
	}

	resp, err := h.uploads.Process(c.Request.Context(), conn, tradeapp.UploadInput{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
