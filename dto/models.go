package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

const (
	DefaultEmployer      = "Unknown"
	DefaultIdentityLabel = "User"
)

// EmploymentPeriod is the "vom DD.MM bis DD.MM" range of a wage tax certificate.
type EmploymentPeriod struct {
	Start string `json:"start"` // "DD.MM"
	End   string `json:"end"`   // "DD.MM"
}

// TaxDocumentRecord is the structured result of reading one Lohnsteuerbescheinigung.
type TaxDocumentRecord struct {
	GrossIncome         decimal.Decimal   `json:"gross_income"`
	IncomeTaxPaid       decimal.Decimal   `json:"income_tax_paid"`
	SolidaritySurcharge decimal.Decimal   `json:"solidarity_surcharge"`
	Employer            string            `json:"employer"`
	IdentityLabel       string            `json:"identity_label"`
	TaxYear             *int              `json:"tax_year,omitempty"`
	TaxClass            *int              `json:"tax_class,omitempty"`
	EmploymentPeriod    *EmploymentPeriod `json:"employment_period,omitempty"`

	// Only filled when the oracle returns them.
	FullName   string `json:"full_name,omitempty"`
	Address    string `json:"address,omitempty"`
	TotalHours string `json:"total_hours,omitempty"`
}

// NewTaxDocumentRecord returns a record carrying the documented defaults.
func NewTaxDocumentRecord() TaxDocumentRecord {
	return TaxDocumentRecord{
		GrossIncome:         decimal.Zero,
		IncomeTaxPaid:       decimal.Zero,
		SolidaritySurcharge: decimal.Zero,
		Employer:            DefaultEmployer,
		IdentityLabel:       DefaultIdentityLabel,
	}
}

// Year returns the tax year and whether one is present.
func (r TaxDocumentRecord) Year() (int, bool) {
	if r.TaxYear == nil {
		return 0, false
	}
	return *r.TaxYear, true
}

// IsEmpty reports whether nothing has been ingested into the record yet.
func (r TaxDocumentRecord) IsEmpty() bool {
	return r.TaxYear == nil &&
		r.GrossIncome.IsZero() &&
		r.IncomeTaxPaid.IsZero() &&
		(r.Employer == "" || r.Employer == DefaultEmployer)
}

// MarshalJSON renders currency with exactly two fractional digits.
func (r TaxDocumentRecord) MarshalJSON() ([]byte, error) {
	type plain TaxDocumentRecord
	return json.Marshal(struct {
		plain
		GrossIncome         string `json:"gross_income"`
		IncomeTaxPaid       string `json:"income_tax_paid"`
		SolidaritySurcharge string `json:"solidarity_surcharge"`
	}{
		plain:               plain(r),
		GrossIncome:         r.GrossIncome.StringFixed(2),
		IncomeTaxPaid:       r.IncomeTaxPaid.StringFixed(2),
		SolidaritySurcharge: r.SolidaritySurcharge.StringFixed(2),
	})
}

// IntPtr is a small helper for the optional integer fields.
func IntPtr(v int) *int {
	return &v
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one entry of a conversation history.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ConversationState belongs to exactly one filing session. Callers must not
// use the same state from two goroutines at once.
type ConversationState struct {
	History    []Turn            `json:"history"`
	Record     TaxDocumentRecord `json:"record"`
	FiledYears map[int]struct{}  `json:"-"`
}

// NewConversationState creates the empty state of a fresh session.
func NewConversationState() *ConversationState {
	return &ConversationState{
		History:    []Turn{},
		Record:     NewTaxDocumentRecord(),
		FiledYears: make(map[int]struct{}),
	}
}

// FilledForm merges the extracted record with the answers given so far.
type FilledForm struct {
	Record  TaxDocumentRecord `json:"record"`
	Answers []string          `json:"answers"`
}
