package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Aashish23092/tax-advisor/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const certificateText = "Veranlagungszeitraum: 20.21 Arbeitgeber Name des Arbeitgebers InStaff Jobs GmbH Betroffenes Jahr Steuerklasse 1 Bruttoarbeitslohn 2.033,00 einbehaltene Lohnsteuer 16,75"

func TestEnhancerWithoutOracle(t *testing.T) {
	enhancer := NewEnhancer(nil, 0, true)

	assert.False(t, enhancer.Enabled())
	assert.Equal(t, certificateText, enhancer.Enhance(context.Background(), certificateText, "a.pdf"))
	assert.Equal(t, utils.ExtractFields(certificateText, "a.pdf"), enhancer.ParseStructured(context.Background(), certificateText, "a.pdf"))
}

func TestEnhance(t *testing.T) {
	tests := []struct {
		name        string
		oracle      *fakeOracle
		enhanceText bool
		want        string
		calls       int
	}{
		{"reply", &fakeOracle{completeReply: "  cleaned text \n"}, true, "cleaned text", 1},
		{"error falls back", &fakeOracle{completeErr: errors.New("timeout")}, true, certificateText, 1},
		{"empty reply falls back", &fakeOracle{completeReply: " "}, true, certificateText, 1},
		{"disabled", &fakeOracle{completeReply: "cleaned text"}, false, certificateText, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enhancer := NewEnhancer(tt.oracle, 0, tt.enhanceText)

			got := enhancer.Enhance(context.Background(), certificateText, "a.pdf")

			assert.Equal(t, tt.want, got)
			assert.Len(t, tt.oracle.prompts, tt.calls)
		})
	}
}

func TestEnhanceTruncatesPrompt(t *testing.T) {
	oracle := &fakeOracle{completeReply: "ok"}
	enhancer := NewEnhancer(oracle, 10, true)

	enhancer.Enhance(context.Background(), "ääääääääääXYZ", "a.pdf")

	require.Len(t, oracle.prompts, 1)
	assert.Contains(t, oracle.prompts[0], "ääääääääää")
	assert.NotContains(t, oracle.prompts[0], "XYZ")
}

func TestParseStructuredOverlaysOracleFields(t *testing.T) {
	oracle := &fakeOracle{completeReply: "```json\n" + `{
		"full_name": "Max Mustermann",
		"address": "Hauptstr. 1, 10115 Berlin",
		"employer": "Acme GmbH",
		"total_hours": "320",
		"gross_income": "2.100,50",
		"income_tax_paid": 17.5,
		"solidarity_surcharge": null,
		"year": "2022",
		"tax_class": 3
	}` + "\n```"}
	enhancer := NewEnhancer(oracle, 0, false)

	record := enhancer.ParseStructured(context.Background(), certificateText, "a.pdf")

	assert.Equal(t, "Max Mustermann", record.FullName)
	assert.Equal(t, "Hauptstr. 1, 10115 Berlin", record.Address)
	assert.Equal(t, "Acme GmbH", record.Employer)
	assert.Equal(t, "320", record.TotalHours)
	assert.Equal(t, "2100.50", record.GrossIncome.StringFixed(2))
	assert.Equal(t, "17.50", record.IncomeTaxPaid.StringFixed(2))
	assert.True(t, record.SolidaritySurcharge.IsZero())
	require.NotNil(t, record.TaxYear)
	assert.Equal(t, 2022, *record.TaxYear)
	require.NotNil(t, record.TaxClass)
	assert.Equal(t, 3, *record.TaxClass)
	require.Len(t, oracle.prompts, 1)
	assert.True(t, strings.Contains(oracle.prompts[0], "gross_income"))
}

func TestParseStructuredIgnoresInvalidOracleValues(t *testing.T) {
	oracle := &fakeOracle{completeReply: `Here you go: {"employer": "N/A", "gross_income": "lots", "year": 1999, "tax_class": 9}`}
	enhancer := NewEnhancer(oracle, 0, false)

	record := enhancer.ParseStructured(context.Background(), certificateText, "a.pdf")

	assert.Equal(t, "InStaff Jobs GmbH", record.Employer)
	assert.Equal(t, "2033.00", record.GrossIncome.StringFixed(2))
	require.NotNil(t, record.TaxYear)
	assert.Equal(t, 2021, *record.TaxYear)
	require.NotNil(t, record.TaxClass)
	assert.Equal(t, 1, *record.TaxClass)
}

func TestParseStructuredFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		oracle *fakeOracle
	}{
		{"oracle error", &fakeOracle{completeErr: errors.New("503")}},
		{"free text", &fakeOracle{completeReply: "I could not find any fields."}},
		{"broken json", &fakeOracle{completeReply: `{"employer": "Acme GmbH",`}},
		{"nested object", &fakeOracle{completeReply: `{"employer": {"name": "Acme"}}`}},
	}

	want := utils.ExtractFields(certificateText, "a.pdf")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enhancer := NewEnhancer(tt.oracle, 0, false)
			assert.Equal(t, want, enhancer.ParseStructured(context.Background(), certificateText, "a.pdf"))
		})
	}
}

func TestParseLooseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2,033.00", "2033.00", false},
		{"2.033,00", "2033.00", false},
		{"€ 580.75", "580.75", false},
		{"16,75 EUR", "16.75", false},
		{"1.234", "1234.00", false},
		{"-12.00", "", true},
		{"lots", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLooseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}
