package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Aashish23092/tax-advisor/dto"
	"github.com/Aashish23092/tax-advisor/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultExtractTimeout   = 60 * time.Second
	DefaultBatchConcurrency = 4
)

// ExtractionService runs the document pipeline: text layer, normalization,
// field extraction and optional oracle enhancement.
type ExtractionService struct {
	pdfProcessor PDFProcessor
	enhancer     *Enhancer
	timeout      time.Duration
	concurrency  int
}

func NewExtractionService(
	pdfProcessor PDFProcessor,
	enhancer *Enhancer,
	timeout time.Duration,
	concurrency int,
) *ExtractionService {
	if timeout <= 0 {
		timeout = DefaultExtractTimeout
	}
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	if enhancer == nil {
		enhancer = NewEnhancer(nil, 0, false)
	}
	return &ExtractionService{
		pdfProcessor: pdfProcessor,
		enhancer:     enhancer,
		timeout:      timeout,
		concurrency:  concurrency,
	}
}

// Extract processes one document. Failures are reported in the result, never
// as a partial record.
func (s *ExtractionService) Extract(ctx context.Context, data []byte, filename string) dto.ExtractionResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan dto.ExtractionResult, 1)
	go func() {
		done <- s.process(ctx, data, filename)
	}()

	var result dto.ExtractionResult
	select {
	case result = <-done:
	case <-ctx.Done():
		err := dto.ErrExtractionTimeout
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", dto.ErrExtractionTimeout, ctx.Err())
		}
		result = failedResult(filename, err)
	}

	logEvent := log.Info()
	if !result.Success {
		logEvent = log.Warn().Err(result.Err)
	}
	logEvent.
		Str("filename", filename).
		Int("pages", result.PageCount).
		Int("characters", result.CharacterCount).
		Dur("elapsed", time.Since(start)).
		Msg("document extraction finished")

	return result
}

func (s *ExtractionService) process(ctx context.Context, data []byte, filename string) dto.ExtractionResult {
	pages, err := s.pdfProcessor.OpenDocument(data)
	if err != nil {
		if !errors.Is(err, dto.ErrCorruptDocument) {
			err = fmt.Errorf("%w: %v", dto.ErrCorruptDocument, err)
		}
		return failedResult(filename, err)
	}

	raw := strings.Join(pages, "\n")
	if strings.TrimSpace(raw) == "" {
		result := failedResult(filename, dto.ErrEmptyExtraction)
		result.PageCount = len(pages)
		return result
	}

	normalized := utils.Normalize(raw)
	record := s.enhancer.ParseStructured(ctx, normalized, filename)
	text := s.enhancer.Enhance(ctx, normalized, filename)

	return dto.ExtractionResult{
		Success:        true,
		Filename:       filename,
		Record:         &record,
		Text:           text,
		PageCount:      len(pages),
		CharacterCount: utf8.RuneCountInString(text),
	}
}

// ExtractMultiple processes the uploads concurrently. Every file gets its own
// timeout and results keep the input order.
func (s *ExtractionService) ExtractMultiple(ctx context.Context, uploads []dto.DocumentUpload) dto.BatchExtractionResult {
	results := make([]dto.ExtractionResult, len(uploads))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, upload := range uploads {
		i, upload := i, upload
		g.Go(func() error {
			if !dto.IsPDF(upload.Filename) {
				results[i] = failedResult(upload.Filename, dto.ErrUnsupportedFileType)
				return nil
			}
			results[i] = s.Extract(gCtx, upload.Data, upload.Filename)
			return nil
		})
	}
	_ = g.Wait()

	batch := dto.BatchExtractionResult{
		TotalFiles: len(uploads),
		Results:    results,
	}
	for _, r := range results {
		if r.Success {
			batch.SuccessfulExtractions++
		} else {
			batch.FailedExtractions++
		}
		batch.TotalPages += r.PageCount
		batch.TotalCharacters += r.CharacterCount
	}
	return batch
}

func failedResult(filename string, err error) dto.ExtractionResult {
	return dto.ExtractionResult{
		Success:  false,
		Filename: filename,
		Error:    err.Error(),
		Err:      err,
	}
}
