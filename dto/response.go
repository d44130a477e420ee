package dto

import "errors"

var (
	ErrCorruptDocument         = errors.New("invalid or corrupted PDF file, could not be opened")
	ErrEmptyExtraction         = errors.New("no text could be extracted from the PDF, it might be an image-only document")
	ErrOracleUnavailable       = errors.New("language model unavailable")
	ErrMalformedOracleResponse = errors.New("malformed language model response")
	ErrFieldNotFound           = errors.New("field not found")
	ErrExtractionTimeout       = errors.New("document extraction timed out")
	ErrSessionNotFound         = errors.New("session not found")
	ErrUnsupportedFileType     = errors.New("only PDF files are supported")
	ErrFileTooLarge            = errors.New("file exceeds the upload size limit")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ExtractionResult is returned for every processed document, successful or not.
// Record is nil whenever Success is false.
type ExtractionResult struct {
	Success        bool               `json:"success"`
	Filename       string             `json:"filename"`
	Record         *TaxDocumentRecord `json:"record,omitempty"`
	Text           string             `json:"text"`
	PageCount      int                `json:"page_count"`
	CharacterCount int                `json:"character_count"`
	Error          string             `json:"error,omitempty"`

	Err error `json:"-"`
}

// BatchExtractionResult aggregates the results of /extract-multiple.
type BatchExtractionResult struct {
	TotalFiles            int                `json:"total_files"`
	SuccessfulExtractions int                `json:"successful_extractions"`
	FailedExtractions     int                `json:"failed_extractions"`
	TotalPages            int                `json:"total_pages"`
	TotalCharacters       int                `json:"total_characters"`
	Results               []ExtractionResult `json:"results"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// AdvisorReply is the outcome of one advisor turn.
type AdvisorReply struct {
	Message    string     `json:"advisor_message"`
	Done       bool       `json:"done"`
	FilledForm FilledForm `json:"filled_form"`
}

type QuestionsResponse struct {
	Questions []string `json:"questions"`
}
