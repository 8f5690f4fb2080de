package domain

import "github.com/shopspring/decimal"

// ComputationFlag annotates a projection year with an adverse or notable
// condition. Flags are never errors: a single bad year must not abort a
// multi-decade simulation.
type ComputationFlag string

const (
	FlagRMDForced              ComputationFlag = "rmd_forced"
	FlagEarlyWithdrawalPenalty ComputationFlag = "early_withdrawal_penalty"
	FlagDepleted               ComputationFlag = "depleted"
	FlagIncomeExceedsNeed      ComputationFlag = "income_exceeds_need"
)

// TaxBreakdown itemizes one year's tax liability.
type TaxBreakdown struct {
	FederalOrdinary decimal.Decimal `json:"federal_ordinary"`
	CapitalGains    decimal.Decimal `json:"capital_gains"`
	State           decimal.Decimal `json:"state"`
	NIIT            decimal.Decimal `json:"niit"`
	IRMAA           decimal.Decimal `json:"irmaa"`
	Total           decimal.Decimal `json:"total"`
}

// YearProjection is the outcome of one simulated year. Immutable once
// produced; the ordered sequence for one run is the simulation's primary
// output.
type YearProjection struct {
	YearIndex            int                        `json:"year_index"`
	Age                  int                        `json:"age"`
	PortfolioValueStart  decimal.Decimal            `json:"portfolio_value_start"`
	TargetWithdrawal     decimal.Decimal            `json:"target_withdrawal"`
	ActualWithdrawal     decimal.Decimal            `json:"actual_withdrawal"`
	WithdrawalsByAccount map[string]decimal.Decimal `json:"withdrawals_by_account,omitempty"`
	PensionIncome        decimal.Decimal            `json:"pension_income"`
	SocialSecurityIncome decimal.Decimal            `json:"social_security_income"`
	IncomeTotal          decimal.Decimal            `json:"income_total"`
	TaxesOwed            TaxBreakdown               `json:"taxes_owed"`
	PortfolioGrowth      decimal.Decimal            `json:"portfolio_growth"`
	PortfolioValueEnd    decimal.Decimal            `json:"portfolio_value_end"`
	Shortfall            decimal.Decimal            `json:"shortfall"`
	Flags                []ComputationFlag          `json:"flags,omitempty"`
}

// HasFlag reports whether the year carries the given flag.
func (yp *YearProjection) HasFlag(f ComputationFlag) bool {
	for _, have := range yp.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// AddFlag appends a flag once.
func (yp *YearProjection) AddFlag(f ComputationFlag) {
	if !yp.HasFlag(f) {
		yp.Flags = append(yp.Flags, f)
	}
}

// SimulationSummary condenses one run. Derived entirely from the
// YearProjection sequence, never independently mutated.
type SimulationSummary struct {
	Success             bool            `json:"success"`
	FinalPortfolioValue decimal.Decimal `json:"final_portfolio_value"`
	TotalWithdrawals    decimal.Decimal `json:"total_withdrawals"`
	TotalTaxesPaid      decimal.Decimal `json:"total_taxes_paid"`
	EffectiveTaxRate    decimal.Decimal `json:"effective_tax_rate"`
	FirstDepletionYear  *int            `json:"first_depletion_year,omitempty"`
}

// Summarize derives the run summary from a projection sequence. The
// effective tax rate is total taxes over total gross income (withdrawals
// plus pension and Social Security), zero when there was no income.
func Summarize(projection []YearProjection) SimulationSummary {
	s := SimulationSummary{Success: true}
	grossIncome := decimal.Zero
	for i := range projection {
		yp := &projection[i]
		s.TotalWithdrawals = s.TotalWithdrawals.Add(yp.ActualWithdrawal)
		s.TotalTaxesPaid = s.TotalTaxesPaid.Add(yp.TaxesOwed.Total)
		grossIncome = grossIncome.Add(yp.ActualWithdrawal).Add(yp.IncomeTotal)
		if yp.HasFlag(FlagDepleted) && s.FirstDepletionYear == nil {
			year := yp.YearIndex
			s.FirstDepletionYear = &year
			s.Success = false
		}
	}
	if n := len(projection); n > 0 {
		s.FinalPortfolioValue = projection[n-1].PortfolioValueEnd
	}
	if grossIncome.IsPositive() {
		s.EffectiveTaxRate = s.TotalTaxesPaid.Div(grossIncome).Round(6)
	}
	return s
}
