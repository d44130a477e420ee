package service

import (
	"bytes"
	"fmt"

	"github.com/Aashish23092/tax-advisor/dto"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"
)

// PDFProcessor turns PDF bytes into the raw text of each page.
type PDFProcessor interface {
	// OpenDocument fails with dto.ErrCorruptDocument when the bytes cannot be
	// parsed. A structurally valid PDF without pages yields no page texts.
	OpenDocument(pdfData []byte) ([]string, error)
}

type pdfProcessor struct{}

func NewPDFProcessor() PDFProcessor {
	return &pdfProcessor{}
}

func (p *pdfProcessor) OpenDocument(pdfData []byte) (pages []string, err error) {
	if len(pdfData) == 0 {
		return nil, fmt.Errorf("%w: empty input", dto.ErrCorruptDocument)
	}

	// ledongthuc/pdf panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", dto.ErrCorruptDocument, r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdfData), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrCorruptDocument, err)
	}
	if ctx.PageCount == 0 {
		return []string{}, nil
	}

	r, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrCorruptDocument, err)
	}

	totalPage := r.NumPage()
	pages = make([]string, 0, totalPage)
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Int("page", pageIndex).Msg("page text extraction failed")
			text = ""
		}
		pages = append(pages, text)
	}

	return pages, nil
}
