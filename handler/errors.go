package handler

import (
	"errors"
	"net/http"

	"github.com/Aashish23092/tax-advisor/dto"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{dto.ErrCorruptDocument, "CORRUPT_DOCUMENT"},
	{dto.ErrEmptyExtraction, "EMPTY_EXTRACTION"},
	{dto.ErrExtractionTimeout, "EXTRACTION_TIMEOUT"},
	{dto.ErrSessionNotFound, "SESSION_NOT_FOUND"},
	{dto.ErrUnsupportedFileType, "UNSUPPORTED_FILE_TYPE"},
	{dto.ErrFileTooLarge, "FILE_TOO_LARGE"},
}

func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "REQUEST_FAILED"
}

// statusFor maps a failed extraction to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dto.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, dto.ErrExtractionTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, dto.ErrCorruptDocument), errors.Is(err, dto.ErrEmptyExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dto.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, dto.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// sendError sends a structured error response
func sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Warn().Err(err).Int("status", statusCode).Str("path", c.FullPath()).Msg(message)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   errorCode(err),
		Message: errorMsg,
		Code:    statusCode,
	})
}
