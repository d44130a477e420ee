package dto

import (
	"mime/multipart"
	"path/filepath"
	"strings"
)

// DocumentUpload is one file of an extraction request.
type DocumentUpload struct {
	Filename string
	Data     []byte
}

// ExtractRequest represents a single-document upload
type ExtractRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"`
}

// Validate checks the upload is a PDF within the size limit.
func (r *ExtractRequest) Validate(maxSize int64) error {
	return ValidateUpload(r.File, maxSize)
}

// ExtractMultipleRequest represents a multi-document upload
type ExtractMultipleRequest struct {
	Files []*multipart.FileHeader `form:"files[]" binding:"required"`
}

// TurnRequest carries the user's answer; an empty message asks the advisor
// to speak first.
type TurnRequest struct {
	Message *string `json:"message"`
}

// ValidateUpload performs basic validation on an uploaded file
func ValidateUpload(fh *multipart.FileHeader, maxSize int64) error {
	if fh == nil {
		return ErrUnsupportedFileType
	}
	if !IsPDF(fh.Filename) {
		return ErrUnsupportedFileType
	}
	if maxSize > 0 && fh.Size > maxSize {
		return ErrFileTooLarge
	}
	return nil
}

// IsPDF reports whether the filename carries a .pdf extension.
func IsPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}
