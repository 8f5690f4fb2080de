package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// SSTaxCalculator determines the taxable portion of Social Security
// benefits from provisional income. Thresholds come from the bracket table.
type SSTaxCalculator struct {
	Table *TaxBracketTable
}

// NewSSTaxCalculator creates a Social Security taxability calculator.
func NewSSTaxCalculator(table *TaxBracketTable) *SSTaxCalculator {
	return &SSTaxCalculator{Table: table}
}

// CalculateProvisionalIncome computes the IRS formula base: other taxable
// income + tax-exempt interest + 50% of the Social Security benefit.
func (s *SSTaxCalculator) CalculateProvisionalIncome(otherIncome, taxExemptInterest, ssBenefit decimal.Decimal) decimal.Decimal {
	half := ssBenefit.Mul(decimal.NewFromFloat(0.5))
	return otherIncome.Add(taxExemptInterest).Add(half)
}

// CalculateTaxableSocialSecurity applies the two-tier formula. Below the
// base threshold none of the benefit is taxable; between base and upper, up
// to 50% is; above upper, up to 85%.
func (s *SSTaxCalculator) CalculateTaxableSocialSecurity(ssBenefit, provisionalIncome decimal.Decimal, fs domain.FilingStatus) decimal.Decimal {
	if ssBenefit.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	base := s.Table.SSBaseThreshold[fs]
	upper := s.Table.SSUpperThreshold[fs]
	half := decimal.NewFromFloat(0.5)
	eightyFive := decimal.NewFromFloat(0.85)

	if provisionalIncome.LessThanOrEqual(base) {
		return decimal.Zero
	}

	if provisionalIncome.LessThanOrEqual(upper) {
		// Lesser of half the excess over base or half the benefit.
		return decimal.Min(
			provisionalIncome.Sub(base).Mul(half),
			ssBenefit.Mul(half),
		)
	}

	// Above the upper threshold: 85% of the excess plus the tier-one
	// amount, capped at 85% of the benefit.
	tierOne := decimal.Min(upper.Sub(base).Mul(half), ssBenefit.Mul(half))
	taxable := provisionalIncome.Sub(upper).Mul(eightyFive).Add(tierOne)
	return decimal.Min(taxable, ssBenefit.Mul(eightyFive))
}
