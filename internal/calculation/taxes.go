package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// TaxInput is one simulated year's income picture for a household.
type TaxInput struct {
	OrdinaryIncome        decimal.Decimal // tax-deferred withdrawals plus pension income
	CapitalGains          decimal.Decimal // realized long-term gains from taxable sales
	SocialSecurityBenefit decimal.Decimal
	TaxExemptInterest     decimal.Decimal
	FilingStatus          domain.FilingStatus
	State                 string
	Age                   int
}

// Validate rejects inputs the tax model cannot price.
func (ti TaxInput) Validate() error {
	if ti.OrdinaryIncome.LessThan(decimal.Zero) {
		return domain.NewValidationError("ordinary_income", "must not be negative, got %s", ti.OrdinaryIncome)
	}
	if ti.CapitalGains.LessThan(decimal.Zero) {
		return domain.NewValidationError("capital_gains", "must not be negative, got %s (realized losses are not modeled)", ti.CapitalGains)
	}
	if ti.SocialSecurityBenefit.LessThan(decimal.Zero) {
		return domain.NewValidationError("social_security_benefit", "must not be negative, got %s", ti.SocialSecurityBenefit)
	}
	if ti.TaxExemptInterest.LessThan(decimal.Zero) {
		return domain.NewValidationError("tax_exempt_interest", "must not be negative, got %s", ti.TaxExemptInterest)
	}
	if ti.Age < 0 {
		return domain.NewValidationError("age", "must not be negative, got %d", ti.Age)
	}
	if _, err := domain.ParseFilingStatus(string(ti.FilingStatus)); err != nil {
		return err
	}
	return nil
}

// TaxCalculator composes the federal bracket table, Social Security
// taxability, IRMAA tiers, and the per-state registry into one per-year
// computation. It is a pure function of its input: no year-to-year state.
type TaxCalculator struct {
	Table  *TaxBracketTable
	SSTax  *SSTaxCalculator
	IRMAA  *IRMAACalculator
	States *StateTaxRegistry
}

// NewTaxCalculator creates a tax calculator on the 2025 table.
func NewTaxCalculator() *TaxCalculator {
	return NewTaxCalculatorWithTable(NewTaxBracketTable2025())
}

// NewTaxCalculatorWithTable creates a tax calculator on a supplied table.
func NewTaxCalculatorWithTable(table *TaxBracketTable) *TaxCalculator {
	return &TaxCalculator{
		Table:  table,
		SSTax:  NewSSTaxCalculator(table),
		IRMAA:  NewIRMAACalculator(table),
		States: NewStateTaxRegistry(),
	}
}

// SupportsState reports whether a state has an implemented calculator.
// Config validation uses this to fail at load time instead of mid-run.
func (tc *TaxCalculator) SupportsState(state string) bool {
	_, err := tc.States.Lookup(state)
	return err == nil
}

// Compute prices one year of household income.
//
// The ordering is load-bearing: the taxable share of Social Security is
// resolved first because it changes the ordinary taxable base, then ordinary
// brackets apply, then gains stack on top of ordinary taxable income, then
// the MAGI-driven add-ons (NIIT, IRMAA) and state tax.
func (tc *TaxCalculator) Compute(in TaxInput) (domain.TaxBreakdown, error) {
	if err := in.Validate(); err != nil {
		return domain.TaxBreakdown{}, err
	}
	stateCalc, err := tc.States.Lookup(in.State)
	if err != nil {
		return domain.TaxBreakdown{}, err
	}

	otherIncome := in.OrdinaryIncome.Add(in.CapitalGains)
	provisional := tc.SSTax.CalculateProvisionalIncome(otherIncome, in.TaxExemptInterest, in.SocialSecurityBenefit)
	taxableSS := tc.SSTax.CalculateTaxableSocialSecurity(in.SocialSecurityBenefit, provisional, in.FilingStatus)

	deduction := tc.Table.StandardDeductionFor(in.FilingStatus, in.Age)
	ordinaryTaxable := in.OrdinaryIncome.Add(taxableSS).Sub(deduction)
	if ordinaryTaxable.LessThan(decimal.Zero) {
		ordinaryTaxable = decimal.Zero
	}

	breakdown := domain.TaxBreakdown{
		FederalOrdinary: MarginalTax(tc.Table.OrdinaryBrackets[in.FilingStatus], ordinaryTaxable),
		CapitalGains:    StackedGainsTax(tc.Table.CapitalGainsBrackets[in.FilingStatus], ordinaryTaxable, in.CapitalGains),
	}

	magi := EstimateMAGI(in.OrdinaryIncome, taxableSS, in.CapitalGains)
	breakdown.NIIT = tc.computeNIIT(in.CapitalGains, magi, in.FilingStatus)
	if MedicareEligible(in.Age) {
		breakdown.IRMAA = tc.IRMAA.AnnualSurcharge(magi, in.FilingStatus)
	}

	breakdown.State = stateCalc.CalculateTax(StateTaxInput{
		OrdinaryIncome: in.OrdinaryIncome,
		CapitalGains:   in.CapitalGains,
		SocialSecurity: in.SocialSecurityBenefit,
		FilingStatus:   in.FilingStatus,
		Age:            in.Age,
	})

	breakdown.Total = breakdown.FederalOrdinary.
		Add(breakdown.CapitalGains).
		Add(breakdown.State).
		Add(breakdown.NIIT).
		Add(breakdown.IRMAA)
	return breakdown, nil
}

// computeNIIT applies the 3.8% surtax on the lesser of net investment
// income and the MAGI excess over the filing-status threshold. Realized
// gains are the only investment income this engine models.
func (tc *TaxCalculator) computeNIIT(netInvestmentIncome, magi decimal.Decimal, filingStatus domain.FilingStatus) decimal.Decimal {
	threshold := tc.Table.NIITThreshold[filingStatus]
	if magi.LessThanOrEqual(threshold) {
		return decimal.Zero
	}
	base := decimal.Min(netInvestmentIncome, magi.Sub(threshold))
	if base.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return base.Mul(tc.Table.NIITRate)
}
