package service

import (
	"context"
	"sync"
	"time"

	"github.com/Aashish23092/tax-advisor/dto"
	"github.com/shopspring/decimal"
)

type fakeOracle struct {
	mu sync.Mutex

	completeReply string
	completeErr   error
	chatReply     string
	chatErr       error

	prompts []string
	chats   [][]dto.Turn
}

func (f *fakeOracle) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.completeReply, f.completeErr
}

func (f *fakeOracle) ChatComplete(ctx context.Context, turns []dto.Turn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, append([]dto.Turn(nil), turns...))
	return f.chatReply, f.chatErr
}

func (f *fakeOracle) lastChat() []dto.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.chats) == 0 {
		return nil
	}
	return f.chats[len(f.chats)-1]
}

type fakePDF struct {
	pages []string
	err   error
	delay time.Duration
}

func (f *fakePDF) OpenDocument(pdfData []byte) ([]string, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.pages, f.err
}

// pdfFunc picks the outcome per document.
type pdfFunc func(pdfData []byte) ([]string, error)

func (f pdfFunc) OpenDocument(pdfData []byte) ([]string, error) {
	return f(pdfData)
}

func recordFor(year int, gross, taxPaid string) dto.TaxDocumentRecord {
	r := dto.NewTaxDocumentRecord()
	r.TaxYear = dto.IntPtr(year)
	r.GrossIncome = decimal.RequireFromString(gross)
	r.IncomeTaxPaid = decimal.RequireFromString(taxPaid)
	r.Employer = "InStaff Jobs GmbH"
	return r
}
