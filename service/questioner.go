package service

import (
	"github.com/Aashish23092/tax-advisor/dto"
)

const (
	noDocumentQuestion = "Could not extract data from your document. Please check the file."
	confirmQuestion    = "Is all the extracted information correct?"
)

type fieldQuestion struct {
	missing  func(r dto.TaxDocumentRecord) bool
	question string
}

var fieldQuestions = []fieldQuestion{
	{func(r dto.TaxDocumentRecord) bool { return r.IncomeTaxPaid.IsZero() }, "How much tax did you pay this year?"},
	{func(r dto.TaxDocumentRecord) bool { return r.GrossIncome.IsZero() }, "What was your total gross income?"},
	{func(r dto.TaxDocumentRecord) bool { return r.Employer == "" || r.Employer == dto.DefaultEmployer }, "Who is your employer?"},
	{func(r dto.TaxDocumentRecord) bool { return r.TaxClass == nil }, "What is your tax class?"},
	{func(r dto.TaxDocumentRecord) bool { return r.IdentityLabel == "" || r.IdentityLabel == dto.DefaultIdentityLabel }, "What is your Steuer-ID?"},
	{func(r dto.TaxDocumentRecord) bool { return r.TaxYear == nil }, "Which year is this tax return for?"},
}

// MissingFieldQuestions lists a question for every field the record lacks,
// in a fixed order. A complete record yields a single confirmation question.
func MissingFieldQuestions(record dto.TaxDocumentRecord) []string {
	if record.IsEmpty() {
		return []string{noDocumentQuestion}
	}

	questions := make([]string, 0, len(fieldQuestions))
	for _, fq := range fieldQuestions {
		if fq.missing(record) {
			questions = append(questions, fq.question)
		}
	}
	if len(questions) == 0 {
		questions = append(questions, confirmQuestion)
	}
	return questions
}
