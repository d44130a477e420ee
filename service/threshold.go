package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Aashish23092/tax-advisor/dto"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultThresholds maps tax years to the statutory tax-free allowance
// (Grundfreibetrag) in euros.
var DefaultThresholds = map[int]decimal.Decimal{
	2017: decimal.NewFromInt(8820),
	2018: decimal.NewFromInt(9000),
	2019: decimal.NewFromInt(9168),
	2020: decimal.NewFromInt(9408),
	2021: decimal.NewFromInt(9744),
	2022: decimal.NewFromInt(10347),
	2023: decimal.NewFromInt(10908),
	2024: decimal.NewFromInt(11604),
	2025: decimal.NewFromInt(12300),
}

// ThresholdEvaluator decides whether a filer stays below the tax-free allowance.
type ThresholdEvaluator struct {
	thresholds map[int]decimal.Decimal
}

// NewThresholdEvaluator uses DefaultThresholds when thresholds is nil.
func NewThresholdEvaluator(thresholds map[int]decimal.Decimal) *ThresholdEvaluator {
	if thresholds == nil {
		thresholds = DefaultThresholds
	}
	return &ThresholdEvaluator{thresholds: thresholds}
}

// Threshold returns the allowance for year, if it is known.
func (e *ThresholdEvaluator) Threshold(year int) (decimal.Decimal, bool) {
	t, ok := e.thresholds[year]
	return t, ok
}

// IsBelowThreshold is true only for a known year with gross income below its
// allowance. Records without a year, or with a year missing from the table,
// are never eligible.
func (e *ThresholdEvaluator) IsBelowThreshold(record dto.TaxDocumentRecord) bool {
	year, ok := record.Year()
	if !ok {
		return false
	}
	threshold, ok := e.Threshold(year)
	if !ok {
		return false
	}
	return record.GrossIncome.LessThan(threshold)
}

// RefundStatement expects IsBelowThreshold to hold and quotes the full
// withheld income tax as the refund.
func (e *ThresholdEvaluator) RefundStatement(record dto.TaxDocumentRecord) string {
	refund := FormatEuro(record.IncomeTaxPaid)
	year, _ := record.Year()
	intro := fmt.Sprintf("Your gross income in %d is below the tax-free threshold.\n", year)
	if threshold, ok := e.Threshold(year); ok {
		intro = fmt.Sprintf("Your gross income in %d is below the tax-free threshold of €%s.\n",
			year, message.NewPrinter(language.English).Sprintf("%d", threshold.IntPart()))
	}
	return intro +
		fmt.Sprintf("You are likely eligible for a full refund of your paid income tax: **€%s**.\n", refund) +
		"We don't need further details.\n\n" +
		"Would you like to file a tax return for another year?"
}

// FormatEuro renders an amount with thousands grouping and two decimals,
// rounding half away from zero.
func FormatEuro(d decimal.Decimal) string {
	sign := ""
	if d.Round(2).IsNegative() {
		sign = "-"
	}
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + whole + "." + frac
	}
	return sign + message.NewPrinter(language.English).Sprintf("%d", n) + "." + frac
}
