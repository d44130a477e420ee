package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/Aashish23092/tax-advisor/dto"
	"github.com/Aashish23092/tax-advisor/service"
	"github.com/gin-gonic/gin"
)

type AdvisorHandler struct {
	advisorService    *service.AdvisorService
	extractionService *service.ExtractionService
	maxFileSize       int64
	locks             *sessionLocks
}

func NewAdvisorHandler(
	advisorService *service.AdvisorService,
	extractionService *service.ExtractionService,
	maxFileSize int64,
) *AdvisorHandler {
	return &AdvisorHandler{
		advisorService:    advisorService,
		extractionService: extractionService,
		maxFileSize:       maxFileSize,
		locks:             newSessionLocks(),
	}
}

// CreateSession handles POST /sessions
func (h *AdvisorHandler) CreateSession(c *gin.Context) {
	id := h.advisorService.StartSession()
	c.JSON(http.StatusCreated, dto.SessionResponse{SessionID: id})
}

// UploadDocument extracts the uploaded certificate and makes it the subject
// of the session.
func (h *AdvisorHandler) UploadDocument(c *gin.Context) {
	id := c.Param("id")
	unlock := h.locks.Lock(id)
	defer unlock()

	if !h.advisorService.HasSession(id) {
		sendError(c, http.StatusNotFound, "Unknown session", dto.ErrSessionNotFound)
		return
	}

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

	result := h.extractionService.Extract(c.Request.Context(), data, request.File.Filename)
	if !result.Success {
		c.JSON(resultStatus(result), result)
		return
	}

	if err := h.advisorService.IngestRecord(id, *result.Record); err != nil {
		sendError(c, statusFor(err), "Failed to ingest document", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Turn handles POST /sessions/:id/turns. The body is optional.
func (h *AdvisorHandler) Turn(c *gin.Context) {
	id := c.Param("id")

	var request dto.TurnRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
			sendError(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	unlock := h.locks.Lock(id)
	defer unlock()

	reply, err := h.advisorService.AdvisorTurn(c.Request.Context(), id, request.Message)
	if err != nil {
		sendError(c, statusFor(err), "Advisor turn failed", err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// Questions handles GET /sessions/:id/questions
func (h *AdvisorHandler) Questions(c *gin.Context) {
	id := c.Param("id")
	unlock := h.locks.Lock(id)
	defer unlock()

	questions, err := h.advisorService.Questions(id)
	if err != nil {
		sendError(c, statusFor(err), "Failed to list questions", err)
		return
	}
	c.JSON(http.StatusOK, dto.QuestionsResponse{Questions: questions})
}

// DeleteSession handles DELETE /sessions/:id
func (h *AdvisorHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	unlock := h.locks.Lock(id)
	defer unlock()

	if err := h.advisorService.EndSession(id); err != nil {
		sendError(c, statusFor(err), "Failed to end session", err)
		return
	}
	c.Status(http.StatusNoContent)
}
