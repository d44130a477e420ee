package utils

import (
	"testing"

	"github.com/Aashish23092/tax-advisor/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCertificate = `Transferticket: Seite 1 von 1 Abfragedatum: 30.07.20.25 Veranlagungszeitraum: 20.21 Identifikationsnummer: 62 010 574 032 Lohnsteuerbescheinigung Arbeitnehmer Identifikationsnummer 62 010 574 032 eTIN KTNBKVNK98D30F Arbeitgeber Name des Arbeitgebers InStaff  Jobs GmbH Betroffenes Jahr Beschäftigungsjahr 20.21 vom 01.03 bis 30.04 Besteuerungsmerkmale Besteuerungsmerkmale gültig ab 01.03 Steuerklasse 1 Besteuerungsgrundlagen Arbeitslohn Bruttoarbeitslohn 2.033,00 einbehaltene Lohnsteuer 16,75 einbehaltener Solidaritätszuschlag 0,00 Sozialversicherung nachgewiesene Beiträge zur privaten Krankenversicherung und Pflege-Pflichtversicherung 243,96 Sonstige Informationen Übermittlungszeitpunkt der Bescheinigung an die Finanzverwaltung 14.05.20.21 08:59:40`

func TestExtractFieldsSampleCertificate(t *testing.T) {
	record := ExtractFields(Normalize(sampleCertificate), "")

	year, ok := record.Year()
	require.True(t, ok)
	assert.Equal(t, 2021, year)
	assert.Equal(t, "InStaff Jobs GmbH", record.Employer)
	assert.Equal(t, "User 62 010 574", record.IdentityLabel)
	require.NotNil(t, record.TaxClass)
	assert.Equal(t, 1, *record.TaxClass)
	require.NotNil(t, record.EmploymentPeriod)
	assert.Equal(t, dto.EmploymentPeriod{Start: "01.03", End: "30.04"}, *record.EmploymentPeriod)
	assert.Equal(t, "2033.00", record.GrossIncome.StringFixed(2))
	assert.Equal(t, "16.75", record.IncomeTaxPaid.StringFixed(2))
	assert.True(t, record.SolidaritySurcharge.IsZero())
}

func TestExtractFieldsEndToEnd(t *testing.T) {
	text := Normalize("Arbeitgeber Name des Arbeitgebers Acme GmbH ... Bruttoarbeitslohn 2.033,00 einbehaltene Lohnsteuer 16,75")

	record := ExtractFields(text, "upload.pdf")

	assert.Equal(t, "Acme GmbH", record.Employer)
	assert.Equal(t, "2033.00", record.GrossIncome.StringFixed(2))
	assert.Equal(t, "16.75", record.IncomeTaxPaid.StringFixed(2))
	assert.Nil(t, record.TaxYear)
}

func TestExtractFieldsYear(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"split assessment year", "Veranlagungszeitraum: 20.21", 2021},
		{"full assessment year", "Veranlagungszeitraum 2023", 2023},
		{"employment year", "Beschäftigungsjahr 20.22 vom 01.01 bis 31.12", 2022},
		{"calendar year", "Kalenderjahr: 2019", 2019},
		{"bare year", "Bescheinigung fuer 2024", 2024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := ExtractFields(tt.text, "")
			year, ok := record.Year()
			require.True(t, ok)
			assert.Equal(t, tt.want, year)
		})
	}
}

func TestExtractFieldsDefaults(t *testing.T) {
	record := ExtractFields("nothing useful here", "")

	assert.Equal(t, dto.DefaultEmployer, record.Employer)
	assert.Equal(t, dto.DefaultIdentityLabel, record.IdentityLabel)
	assert.Nil(t, record.TaxYear)
	assert.Nil(t, record.TaxClass)
	assert.Nil(t, record.EmploymentPeriod)
	assert.True(t, record.GrossIncome.IsZero())
	assert.True(t, record.IncomeTaxPaid.IsZero())
	assert.True(t, record.IsEmpty())
}

func TestExtractFieldsEmployerFromFilename(t *testing.T) {
	record := ExtractFields("Bruttoarbeitslohn 2.033,00", "uploads/InStaff_Jobs_2021_LStB.pdf")
	assert.Equal(t, "InStaff Jobs", record.Employer)

	record = ExtractFields("Bruttoarbeitslohn 2.033,00", "2021_LStB.pdf")
	assert.Equal(t, dto.DefaultEmployer, record.Employer)
}

func TestExtractFieldsTaxClassRange(t *testing.T) {
	record := ExtractFields("Steuerklasse 7", "")
	assert.Nil(t, record.TaxClass)

	record = ExtractFields("Steuerklasse 12", "")
	assert.Nil(t, record.TaxClass)

	record = ExtractFields("Steuerklasse: 4", "")
	require.NotNil(t, record.TaxClass)
	assert.Equal(t, 4, *record.TaxClass)
}

func TestExtractFieldsTaxClassFaktorLabel(t *testing.T) {
	record := ExtractFields(Normalize("Steuerklasse/Faktor 1 Bruttoarbeitslohn 2.033,00"), "")
	require.NotNil(t, record.TaxClass)
	assert.Equal(t, 1, *record.TaxClass)
	assert.Equal(t, "2033.00", record.GrossIncome.StringFixed(2))

	record = ExtractFields(Normalize("Steuerklasse / Faktor: 3"), "")
	require.NotNil(t, record.TaxClass)
	assert.Equal(t, 3, *record.TaxClass)
}

func TestExtractFieldsEmployerIsBounded(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "stops before digits",
			text: "Name des Arbeitgebers Muster Handel Zeile 3 Arbeitslohn 2.033,00 Sozialversicherung 243,96 Kirchensteuer 0,00",
			want: "Muster Handel Zeile",
		},
		{
			name: "stops at known label",
			text: "Name des Arbeitgebers Stadtwerke Musterstadt Kirchensteuer 0,00",
			want: "Stadtwerke Musterstadt",
		},
		{
			name: "runs to end of text",
			text: "Bruttoarbeitslohn 2.033,00 Arbeitgeber: Bäckerei Schmidt",
			want: "Bäckerei Schmidt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := ExtractFields(Normalize(tt.text), "")
			assert.Equal(t, tt.want, record.Employer)
		})
	}
}

func TestExtractFieldsEmployerTooLongFallsBack(t *testing.T) {
	text := "Name des Arbeitgebers eins zwei drei vier fünf sechs sieben acht neun zehn elf"

	record := ExtractFields(Normalize(text), "uploads/Muster_Handel_2021.pdf")

	assert.Equal(t, "Muster Handel", record.Employer)
}

func TestExtractFieldsCurrencyVariants(t *testing.T) {
	record := ExtractFields("Bruttoarbeitslohn: EUR 1.234,56 einbehaltene Lohnsteuer € 12,00 einbehaltener Solidaritätszuschlag 0,66", "")

	assert.Equal(t, "1234.56", record.GrossIncome.StringFixed(2))
	assert.Equal(t, "12.00", record.IncomeTaxPaid.StringFixed(2))
	assert.Equal(t, "0.66", record.SolidaritySurcharge.StringFixed(2))
}

func TestExtractFieldsRepairedAmount(t *testing.T) {
	record := ExtractFields(Normalize("Bruttoarbeitslohn 58075"), "")

	assert.Equal(t, "580.75", record.GrossIncome.StringFixed(2))
}

func TestExtractFieldsUnparsableAmountStaysZero(t *testing.T) {
	record := ExtractFields("Bruttoarbeitslohn 1.2.3,,4 Bruttoarbeitslohn 2.033,00", "")

	assert.True(t, record.GrossIncome.IsZero())
}

func TestParseGermanAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2.033,00", "2033.00", false},
		{"16,75", "16.75", false},
		{"16,75.", "16.75", false},
		{"580.75", "580.75", false},
		{"1.234", "1234.00", false},
		{"0,00", "0.00", false},
		{"12.345.678,9", "12345678.90", false},
		{"", "", true},
		{"abc", "", true},
		{"-5,00", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGermanAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestValidYearAndTaxClass(t *testing.T) {
	year, ok := ValidYear("2021")
	assert.True(t, ok)
	assert.Equal(t, 2021, year)

	for _, s := range []string{"1999", "2100", "20x1", ""} {
		_, ok := ValidYear(s)
		assert.False(t, ok, s)
	}

	class, ok := ValidTaxClass(" 6 ")
	assert.True(t, ok)
	assert.Equal(t, 6, class)

	for _, s := range []string{"0", "7", "III"} {
		_, ok := ValidTaxClass(s)
		assert.False(t, ok, s)
	}
}
