package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/Aashish23092/tax-advisor/dto"
	"github.com/Aashish23092/tax-advisor/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type DocumentHandler struct {
	extractionService *service.ExtractionService
	maxFileSize       int64
}

func NewDocumentHandler(extractionService *service.ExtractionService, maxFileSize int64) *DocumentHandler {
	return &DocumentHandler{
		extractionService: extractionService,
		maxFileSize:       maxFileSize,
	}
}

// Extract handles the POST /documents/extract endpoint
func (h *DocumentHandler) Extract(c *gin.Context) {
	var request dto.ExtractRequest
	if err := c.ShouldBind(&request); err != nil {
		sendError(c, http.StatusBadRequest, "No file provided", err)
		return
	}
	if err := request.Validate(h.maxFileSize); err != nil {
		sendError(c, statusFor(err), "Invalid upload", err)
		return
	}

	data, err := readUpload(request.File)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Failed to read file", err)
		return
	}

	log.Info().Str("filename", request.File.Filename).Int64("size", request.File.Size).Msg("extracting document")
	result := h.extractionService.Extract(c.Request.Context(), data, request.File.Filename)
	c.JSON(resultStatus(result), result)
}

// ExtractMultiple handles the POST /documents/extract-multiple endpoint.
// Files that fail validation are reported in the batch instead of failing it.
func (h *DocumentHandler) ExtractMultiple(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		sendError(c, http.StatusBadRequest, "Failed to parse multipart form", err)
		return
	}

	files := form.File["files[]"]
	if len(files) == 0 {
		sendError(c, http.StatusBadRequest, "No files provided", nil)
		return
	}

	// Rejected files keep their slot so the batch follows the upload order.
	results := make([]dto.ExtractionResult, len(files))
	uploads := make([]dto.DocumentUpload, 0, len(files))
	slots := make([]int, 0, len(files))
	rejected := 0
	for i, fh := range files {
		if err := dto.ValidateUpload(fh, h.maxFileSize); err != nil {
			results[i] = dto.ExtractionResult{Filename: fh.Filename, Error: err.Error(), Err: err}
			rejected++
			continue
		}
		data, err := readUpload(fh)
		if err != nil {
			results[i] = dto.ExtractionResult{Filename: fh.Filename, Error: err.Error(), Err: err}
			rejected++
			continue
		}
		uploads = append(uploads, dto.DocumentUpload{Filename: fh.Filename, Data: data})
		slots = append(slots, i)
	}

	log.Info().Int("files", len(files)).Int("rejected", rejected).Msg("extracting documents")
	batch := h.extractionService.ExtractMultiple(c.Request.Context(), uploads)
	for j, r := range batch.Results {
		results[slots[j]] = r
	}
	batch.TotalFiles += rejected
	batch.FailedExtractions += rejected
	batch.Results = results

	c.JSON(http.StatusOK, batch)
}

func resultStatus(result dto.ExtractionResult) int {
	if result.Success {
		return http.StatusOK
	}
	return statusFor(result.Err)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fh.Filename, err)
	}
	return data, nil
}
