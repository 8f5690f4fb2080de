package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// medicareEligibilityAge is when Part B premiums, and therefore IRMAA
// surcharges, start to apply.
const medicareEligibilityAge = 65

// IRMAACalculator computes Medicare Part B income-related surcharges from
// the bracket table's tier data. The real determination uses MAGI from two
// years prior; this engine approximates it with current-year MAGI.
type IRMAACalculator struct {
	Table *TaxBracketTable
}

// NewIRMAACalculator creates an IRMAA calculator over the given tax table.
func NewIRMAACalculator(table *TaxBracketTable) *IRMAACalculator {
	return &IRMAACalculator{Table: table}
}

// MonthlySurcharge returns the per-month IRMAA surcharge for the given MAGI.
// Tiers are stepped, not marginal: the whole surcharge of the highest tier
// whose threshold is exceeded applies.
func (ic *IRMAACalculator) MonthlySurcharge(magi decimal.Decimal, filingStatus domain.FilingStatus) decimal.Decimal {
	var surcharge decimal.Decimal
	for _, tier := range ic.Table.IRMAATiers {
		threshold := tier.ThresholdSingle
		if filingStatus == domain.FilingMarriedJointly {
			threshold = tier.ThresholdJoint
		}
		if magi.GreaterThan(threshold) {
			surcharge = tier.MonthlySurcharge
		} else {
			break // tiers are ascending, stop at first threshold not exceeded
		}
	}
	return surcharge
}

// AnnualSurcharge returns the IRMAA surcharge for a full year.
func (ic *IRMAACalculator) AnnualSurcharge(magi decimal.Decimal, filingStatus domain.FilingStatus) decimal.Decimal {
	return ic.MonthlySurcharge(magi, filingStatus).Mul(decimal.NewFromInt(12))
}

// MonthlyPremium returns the full Part B premium, base plus surcharge.
func (ic *IRMAACalculator) MonthlyPremium(magi decimal.Decimal, filingStatus domain.FilingStatus) decimal.Decimal {
	return ic.Table.IRMAABasePremium.Add(ic.MonthlySurcharge(magi, filingStatus))
}

// MedicareEligible reports whether someone of the given age pays Part B
// premiums. Ages are modeled as whole years.
func MedicareEligible(age int) bool {
	return age >= medicareEligibilityAge
}

// EstimateMAGI approximates Modified Adjusted Gross Income for IRMAA
// purposes: ordinary income plus the taxable part of Social Security plus
// realized gains. Real MAGI adds back tax-exempt interest and a few other
// adjustments this engine does not model.
func EstimateMAGI(ordinaryIncome, taxableSocialSecurity, capitalGains decimal.Decimal) decimal.Decimal {
	return ordinaryIncome.Add(taxableSocialSecurity).Add(capitalGains)
}
