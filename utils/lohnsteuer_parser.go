package utils

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Aashish23092/tax-advisor/dto"
	"github.com/shopspring/decimal"
)

// Labels that follow the employer name on a Lohnsteuerbescheinigung.
const employerStops = `(?:Betroffenes Jahr|Besch(?:ä|ae)ftigungsjahr|Besteuerungsmerkmale|Anschrift|Steuernummer|Steuerklasse|Bruttoarbeitslohn|Identifikationsnummer|Arbeitnehmer|eTIN|Dauer des Dienstverh(?:ä|ae)ltnisses|Lohnsteuerbescheinigung|Arbeitslohn|Sozialversicherung|Kirchensteuer|Besteuerungsgrundlagen)\b`

// Up to eight words, none starting with a digit. Normalized text is a single
// line, so every employer capture has to be bounded by words.
const employerWords = `([^\s\d]\S*(?:\s+[^\s\d]\S*){0,7}?)`

const germanAmount = `(\d{1,3}(?:\.\d{3})*,\d{2})\b`

type yearRule struct {
	re    *regexp.Regexp
	build func(m []string) string
}

func fullYear(m []string) string  { return m[1] }
func shortYear(m []string) string { return "20" + m[2] }

var yearRules = []yearRule{
	{regexp.MustCompile(`(?i:Veranlagungszeitraum)\s*:?\s*(\d{2})\.(\d{2})\b`), shortYear},
	{regexp.MustCompile(`(?i:Veranlagungszeitraum)\s*:?\s*(20\d{2})\b`), fullYear},
	{regexp.MustCompile(`(?i:Besch(?:ä|ae)ftigungsjahr)\s*:?\s*(\d{2})\.(\d{2})\b`), shortYear},
	{regexp.MustCompile(`(?i:Besch(?:ä|ae)ftigungsjahr|Steuerjahr|Kalenderjahr)\s*:?\s*(20\d{2})\b`), fullYear},
	{regexp.MustCompile(`\b(20\d{2})\b`), fullYear},
}

var employerRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i:Name des Arbeitgebers)\s*:?\s+` + employerWords + `\s+` + employerStops),
	regexp.MustCompile(`(?i:Arbeitgeber(?:name)?)\s*:?\s+` + employerWords + `\s+` + employerStops),
	regexp.MustCompile(`(?i:Name des Arbeitgebers)\s*:?\s+((?:\S+\s+){0,5}?(?:GmbH(?:\s*&\s*Co\.?\s*KG)?|mbH|AG|KG|SE|OHG|UG|e\.\s?V\.))`),
	regexp.MustCompile(`(?i:Name des Arbeitgebers)\s*:?\s*` + employerWords + `(?:\s+\d|\s+` + employerStops + `|$)`),
	regexp.MustCompile(`(?i:Arbeitgeber)\b\s*:?\s*` + employerWords + `(?:\s+\d|\s+` + employerStops + `|$)`),
}

var identityRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i:Identifikationsnummer)\s*:?\s*(\d+\s+\d+\s+\d+)`),
	regexp.MustCompile(`(?i:Steuer-?ID|IdNr\.?)\s*:?\s*(\d+\s+\d+\s+\d+)`),
}

var taxClassRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i:Steuerklasse)\s*:?\s*(\d)\b`),
	// Normalize strips '/', so "Steuerklasse/Faktor 1" arrives as "SteuerklasseFaktor 1".
	regexp.MustCompile(`(?i:Steuerklasse)\s*/?\s*(?i:Faktor)?\s*:?\s*(\d)\b`),
}

var periodRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i:Besch(?:ä|ae)ftigungs(?:jahr|zeitraum))\s*:?\s*\S*\s*vom\s+(\d{2}\.\d{2})(?:\.\d{2,4})?\s+bis\s+(\d{2}\.\d{2})`),
	regexp.MustCompile(`(?i)\bvom\s+(\d{2}\.\d{2})(?:\.\d{2,4})?\s+bis\s+(\d{2}\.\d{2})`),
}

var grossIncomeRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i:Brutto-?arbeitslohn)\s*:?\s*(?:€|EUR)?\s*(\d[\d.,]*)`),
	regexp.MustCompile(`(?i:Brutto-?arbeitslohn).{0,80}?` + germanAmount),
}

var incomeTaxRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i:einbehaltene Lohnsteuer)\s*(?:von 3\.)?\s*:?\s*(?:€|EUR)?\s*(\d[\d.,]*)`),
	regexp.MustCompile(`(?i:Lohnsteuer von 3\.).{0,20}?` + germanAmount),
	regexp.MustCompile(`(?i)\bLohnsteuer\s*:?\s*(?:€|EUR)?\s*(\d[\d.,]*)`),
}

var surchargeRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i:einbehaltener Solidarit(?:ä|ae)tszuschlag)\s*:?\s*(?:€|EUR)?\s*(\d[\d.,]*)`),
	regexp.MustCompile(`(?i:Solidarit(?:ä|ae)tszuschlag).{0,40}?` + germanAmount),
}

var (
	reRepairedAmount = regexp.MustCompile(`^\d+\.\d{2}$`)
	reYearToken      = regexp.MustCompile(`^(?:19|20)\d{2}$`)
	reSpaces         = regexp.MustCompile(`\s+`)
)

// ExtractFields derives a TaxDocumentRecord from normalized certificate text.
// Rules are tried in order per field and the first match wins. Fields that
// cannot be found keep their defaults.
func ExtractFields(text, filenameHint string) dto.TaxDocumentRecord {
	record := dto.NewTaxDocumentRecord()

	record.TaxYear = extractYear(text)
	record.Employer = extractEmployer(text, filenameHint)
	record.IdentityLabel = extractIdentityLabel(text)
	record.TaxClass = extractTaxClass(text)
	record.EmploymentPeriod = extractEmploymentPeriod(text)
	record.GrossIncome = extractAmount(text, grossIncomeRules)
	record.IncomeTaxPaid = extractAmount(text, incomeTaxRules)
	record.SolidaritySurcharge = extractAmount(text, surchargeRules)

	return record
}

func extractYear(text string) *int {
	for _, rule := range yearRules {
		m := rule.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if year, ok := ValidYear(rule.build(m)); ok {
			return dto.IntPtr(year)
		}
	}
	return nil
}

// ValidYear parses a four digit year within [2000, 2099].
func ValidYear(s string) (int, bool) {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || year < 2000 || year > 2099 {
		return 0, false
	}
	return year, true
}

// ValidTaxClass parses a German tax class (1-6).
func ValidTaxClass(s string) (int, bool) {
	class, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || class < 1 || class > 6 {
		return 0, false
	}
	return class, true
}

func extractEmployer(text, filenameHint string) string {
	for _, re := range employerRules {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		if name := cleanEmployer(m[1]); utf8.RuneCountInString(name) > 2 {
			return name
		}
	}
	if name := employerFromFilename(filenameHint); name != "" {
		return name
	}
	return dto.DefaultEmployer
}

func cleanEmployer(s string) string {
	if idx := strings.Index(s, "..."); idx >= 0 {
		s = s[:idx]
	}
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.Trim(s, " ,;:-")
}

// employerFromFilename takes the underscore separated words in front of a
// year token, e.g. "InStaff_Jobs_2021_LStB.pdf" -> "InStaff Jobs".
func employerFromFilename(filename string) string {
	if filename == "" {
		return ""
	}
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(base, "_")
	for i, part := range parts {
		if i == 0 || !reYearToken.MatchString(part) {
			continue
		}
		name := strings.TrimSpace(strings.Join(parts[:i], " "))
		if utf8.RuneCountInString(name) > 2 {
			return name
		}
		return ""
	}
	return ""
}

func extractIdentityLabel(text string) string {
	if m := firstSubmatch(text, identityRules); m != nil {
		return dto.DefaultIdentityLabel + " " + reSpaces.ReplaceAllString(m[1], " ")
	}
	return dto.DefaultIdentityLabel
}

func extractTaxClass(text string) *int {
	if m := firstSubmatch(text, taxClassRules); m != nil {
		if class, ok := ValidTaxClass(m[1]); ok {
			return dto.IntPtr(class)
		}
	}
	return nil
}

func extractEmploymentPeriod(text string) *dto.EmploymentPeriod {
	if m := firstSubmatch(text, periodRules); m != nil {
		return &dto.EmploymentPeriod{Start: m[1], End: m[2]}
	}
	return nil
}

// extractAmount stops at the first matching rule. An unparsable figure keeps
// the zero default instead of trying looser rules.
func extractAmount(text string, rules []*regexp.Regexp) decimal.Decimal {
	m := firstSubmatch(text, rules)
	if m == nil {
		return decimal.Zero
	}
	amount, err := ParseGermanAmount(m[1])
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// ParseGermanAmount converts "2.033,00" style figures ('.' thousands, ','
// decimals) to a decimal rounded to cents. A comma-free "580.75" is the
// normalizer's repaired form and keeps its decimal point.
func ParseGermanAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimRight(strings.TrimSpace(s), ".,")
	if s == "" {
		return decimal.Zero, dto.ErrFieldNotFound
	}

	if !strings.Contains(s, ",") && reRepairedAmount.MatchString(s) {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, err
		}
		return d.Round(2), nil
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, dto.ErrFieldNotFound
	}
	return d.Round(2), nil
}

func firstSubmatch(text string, rules []*regexp.Regexp) []string {
	for _, re := range rules {
		if m := re.FindStringSubmatch(text); m != nil {
			return m
		}
	}
	return nil
}
