package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Aashish23092/tax-advisor/dto"
	"github.com/Aashish23092/tax-advisor/utils"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Oracle is the optional language model behind the enhancement and advisory
// features. Implementations make a single attempt per call.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
	ChatComplete(ctx context.Context, turns []dto.Turn) (string, error)
}

const DefaultCharBudget = 4000

const enhancePrompt = `You are a document processing expert for German tax documents. Clean up and structure the text below, which was extracted from a German tax document.
Keep every tax-relevant value. Currency amounts must carry a decimal point: a figure such as "58075" for a salary or tax amount means "580.75".

Document: %s
Extracted text:
%s

Return only the cleaned text.`

const structuredPrompt = `Extract the following fields from this German wage tax document and return ONLY a JSON object, without markdown or explanations.
Fields: full_name, address, employer, total_hours, gross_income, income_tax_paid, solidarity_surcharge, year, tax_class

Document: %s
Document text:
%s`

var reCodeFence = regexp.MustCompile("(?i)^```(?:json)?\\s*|\\s*```$")

// Enhancer puts the oracle in front of the deterministic extraction path.
// Every oracle failure falls back to that path.
type Enhancer struct {
	oracle      Oracle
	charBudget  int
	enhanceText bool
}

// NewEnhancer creates an Enhancer. A nil oracle turns both operations into
// their deterministic counterparts.
func NewEnhancer(oracle Oracle, charBudget int, enhanceText bool) *Enhancer {
	if charBudget <= 0 {
		charBudget = DefaultCharBudget
	}
	return &Enhancer{
		oracle:      oracle,
		charBudget:  charBudget,
		enhanceText: enhanceText,
	}
}

// Enabled reports whether an oracle is configured.
func (e *Enhancer) Enabled() bool {
	return e != nil && e.oracle != nil
}

// Enhance asks the oracle to clean up the text. The input is returned
// unchanged when no oracle is configured or the call fails.
func (e *Enhancer) Enhance(ctx context.Context, text, filename string) string {
	if !e.Enabled() || !e.enhanceText {
		return text
	}

	prompt := fmt.Sprintf(enhancePrompt, filename, truncateRunes(text, e.charBudget))
	out, err := e.oracle.Complete(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("text enhancement failed, returning original text")
		return text
	}
	if out = strings.TrimSpace(out); out == "" {
		log.Warn().Err(dto.ErrMalformedOracleResponse).Str("filename", filename).Msg("empty enhancement, returning original text")
		return text
	}
	return out
}

// ParseStructured extracts the record with the deterministic rules and lets a
// valid oracle reply fill in or correct its fields.
func (e *Enhancer) ParseStructured(ctx context.Context, text, filename string) dto.TaxDocumentRecord {
	record := utils.ExtractFields(text, filename)
	if !e.Enabled() {
		return record
	}

	prompt := fmt.Sprintf(structuredPrompt, filename, truncateRunes(text, e.charBudget))
	reply, err := e.oracle.Complete(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("structured extraction failed, using pattern rules")
		return record
	}

	parsed, err := decodeOracleRecord(reply)
	if err != nil {
		log.Warn().Err(err).Str("filename", filename).Msg("oracle reply rejected, using pattern rules")
		return record
	}

	log.Debug().Str("filename", filename).Msg("oracle fields merged into record")
	return parsed.overlay(record)
}

// oracleRecord accepts both JSON numbers and strings for numeric fields since
// models are inconsistent about it.
type oracleRecord struct {
	FullName            flexValue `json:"full_name"`
	Address             flexValue `json:"address"`
	Employer            flexValue `json:"employer"`
	TotalHours          flexValue `json:"total_hours"`
	GrossIncome         flexValue `json:"gross_income"`
	IncomeTaxPaid       flexValue `json:"income_tax_paid"`
	SolidaritySurcharge flexValue `json:"solidarity_surcharge"`
	Year                flexValue `json:"year"`
	TaxClass            flexValue `json:"tax_class"`
}

type flexValue struct {
	text    string
	numeric bool
}

func (v *flexValue) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*v = flexValue{}
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = flexValue{text: strings.TrimSpace(s)}
	case raw == "true" || raw == "false":
		*v = flexValue{}
	case strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "["):
		return fmt.Errorf("unexpected value %s", raw)
	default:
		*v = flexValue{text: raw, numeric: true}
	}
	return nil
}

func (v flexValue) String() string {
	switch strings.ToLower(v.text) {
	case "", "n/a", "null", "none", "unknown":
		return ""
	}
	return v.text
}

func (v flexValue) amount() (decimal.Decimal, bool) {
	s := v.String()
	if s == "" {
		return decimal.Zero, false
	}
	if v.numeric {
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			return decimal.Zero, false
		}
		return d.Round(2), true
	}
	d, err := parseLooseAmount(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func decodeOracleRecord(reply string) (oracleRecord, error) {
	var rec oracleRecord
	content := reCodeFence.ReplaceAllString(strings.TrimSpace(reply), "")
	start, end := strings.Index(content, "{"), strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return rec, fmt.Errorf("%w: no JSON object", dto.ErrMalformedOracleResponse)
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", dto.ErrMalformedOracleResponse, err)
	}
	return rec, nil
}

func (o oracleRecord) overlay(record dto.TaxDocumentRecord) dto.TaxDocumentRecord {
	if s := o.FullName.String(); s != "" {
		record.FullName = s
	}
	if s := o.Address.String(); s != "" {
		record.Address = s
	}
	if s := o.Employer.String(); len([]rune(s)) > 2 {
		record.Employer = s
	}
	if s := o.TotalHours.String(); s != "" {
		record.TotalHours = s
	}
	if d, ok := o.GrossIncome.amount(); ok {
		record.GrossIncome = d
	}
	if d, ok := o.IncomeTaxPaid.amount(); ok {
		record.IncomeTaxPaid = d
	}
	if d, ok := o.SolidaritySurcharge.amount(); ok {
		record.SolidaritySurcharge = d
	}
	if year, ok := utils.ValidYear(o.Year.String()); ok {
		record.TaxYear = dto.IntPtr(year)
	}
	if class, ok := utils.ValidTaxClass(o.TaxClass.String()); ok {
		record.TaxClass = dto.IntPtr(class)
	}
	return record
}

// parseLooseAmount reads amounts written either the German way ("2.033,00")
// or the English way ("2,033.00"), optionally with a currency sign.
func parseLooseAmount(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer("€", "", "EUR", "", " ", "", "\u00a0", "").Replace(s)
	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	if lastDot > lastComma && lastComma >= 0 {
		s = strings.ReplaceAll(s, ",", "")
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: %q", dto.ErrMalformedOracleResponse, s)
		}
		return d.Round(2), nil
	}
	if lastComma < 0 && lastDot >= 0 && len(s)-lastDot-1 <= 2 && strings.Count(s, ".") == 1 {
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: %q", dto.ErrMalformedOracleResponse, s)
		}
		return d.Round(2), nil
	}
	return utils.ParseGermanAmount(s)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
