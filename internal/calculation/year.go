package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
	"github.com/rgehrsitz/drawdown/internal/sequencing"
)

// earlyWithdrawalBoundary is the last whole age still under the IRS 59.5
// penalty threshold.
const earlyWithdrawalBoundary = 59

// YearSimulator produces one YearProjection from the current portfolio
// state. It never returns an error: depletion and shortfall are flags and
// zeros, because a single adverse year must not abort a multi-decade run.
type YearSimulator struct {
	Taxes *TaxCalculator
	RMDs  *RMDTable
}

// NewYearSimulator wires a year simulator over shared reference tables.
func NewYearSimulator(taxes *TaxCalculator, rmds *RMDTable) *YearSimulator {
	return &YearSimulator{Taxes: taxes, RMDs: rmds}
}

// YearInput is everything one simulated year depends on. Accounts are the
// run's local copies; SimulateYear advances their balances in place.
type YearInput struct {
	YearIndex int
	Age       int
	Accounts  []*domain.Account
	Bucket    *domain.WithdrawalBucket
	Strategy  sequencing.Strategy
	Market    YearReturn

	// InflationFactor is the cumulative price level relative to the first
	// simulation year; fixed-dollar bucket amounts scale by it so later
	// years hold real purchasing power.
	InflationFactor decimal.Decimal

	FilingStatus  domain.FilingStatus
	State         string
	SSClaimingAge int
}

// SimulateYear runs the per-year step: resolve the withdrawal target, net
// out non-portfolio income, allocate across accounts, price the taxes, and
// apply growth. The withdrawal is deducted from the starting balance before
// growth is applied; grow-then-withdraw overstates portfolio durability.
func (ys *YearSimulator) SimulateYear(in YearInput) domain.YearProjection {
	yp := domain.YearProjection{
		YearIndex: in.YearIndex,
		Age:       in.Age,
	}

	startTotal := decimal.Zero
	for _, acct := range in.Accounts {
		startTotal = startTotal.Add(acct.Balance)
	}
	yp.PortfolioValueStart = startTotal

	if startTotal.LessThanOrEqual(decimal.Zero) {
		// Depleted in a prior year: zero withdrawal, zero growth.
		yp.AddFlag(domain.FlagDepleted)
		return yp
	}

	yp.TargetWithdrawal = ys.targetWithdrawal(in.Bucket, startTotal, in.InflationFactor)

	yp.PensionIncome = in.Bucket.PensionIncome.Mul(in.InflationFactor)
	if in.SSClaimingAge == 0 || in.Age >= in.SSClaimingAge {
		yp.SocialSecurityIncome = in.Bucket.SocialSecurityIncome.Mul(in.InflationFactor)
	}
	yp.IncomeTotal = yp.PensionIncome.Add(yp.SocialSecurityIncome)

	// Excess income is not reinvested in this model.
	need := yp.TargetWithdrawal.Sub(yp.IncomeTotal)
	if need.LessThan(decimal.Zero) {
		need = decimal.Zero
		yp.AddFlag(domain.FlagIncomeExceedsNeed)
	}

	plan := in.Strategy.Plan(ys.withdrawalSources(in), need)
	yp.ActualWithdrawal = plan.TotalWithdrawn
	yp.WithdrawalsByAccount = plan.WithdrawalByAccount()
	yp.Shortfall = plan.Shortfall
	if plan.RMDForced {
		yp.AddFlag(domain.FlagRMDForced)
	}
	if in.Age <= earlyWithdrawalBoundary && plan.TappedType(domain.AccountTaxDeferred) {
		yp.AddFlag(domain.FlagEarlyWithdrawalPenalty)
	}

	yp.TaxesOwed = ys.priceTaxes(in, &yp, &plan)

	applyPlan(in.Accounts, &plan)
	endTotal := decimal.Zero
	for _, acct := range in.Accounts {
		acct.Balance = acct.Balance.Mul(decimal.NewFromInt(1).Add(in.Market.Return))
		if acct.Balance.LessThan(decimal.Zero) {
			acct.Balance = decimal.Zero
		}
		endTotal = endTotal.Add(acct.Balance)
	}
	yp.PortfolioValueEnd = endTotal
	yp.PortfolioGrowth = endTotal.Sub(startTotal.Sub(yp.ActualWithdrawal))
	if endTotal.LessThanOrEqual(decimal.Zero) {
		yp.PortfolioValueEnd = decimal.Zero
		yp.AddFlag(domain.FlagDepleted)
	}
	return yp
}

// targetWithdrawal resolves the bucket policy: manual override wins over
// the rate, min/max clip, healthcare adds on. Fixed-dollar amounts scale by
// the cumulative inflation factor; the rate does not, since it already
// tracks the (nominal) portfolio value.
func (ys *YearSimulator) targetWithdrawal(bucket *domain.WithdrawalBucket, portfolioValue, inflationFactor decimal.Decimal) decimal.Decimal {
	var target decimal.Decimal
	if bucket.ManualOverride != nil {
		target = bucket.ManualOverride.Mul(inflationFactor)
	} else {
		target = bucket.TargetWithdrawalRate.Mul(portfolioValue)
	}
	if bucket.MinWithdrawal != nil {
		if floor := bucket.MinWithdrawal.Mul(inflationFactor); target.LessThan(floor) {
			target = floor
		}
	}
	if bucket.MaxWithdrawal != nil {
		if ceil := bucket.MaxWithdrawal.Mul(inflationFactor); target.GreaterThan(ceil) {
			target = ceil
		}
	}
	target = target.Add(bucket.HealthcareAdjustment.Mul(inflationFactor))
	if target.LessThan(decimal.Zero) {
		target = decimal.Zero
	}
	return target
}

// withdrawalSources views the accounts as sequencing sources, honoring the
// bucket's allowed/prohibited type lists and stamping pending RMDs. An
// account owing an RMD stays in play even when its type is excluded: the
// distribution is mandatory regardless of policy.
func (ys *YearSimulator) withdrawalSources(in YearInput) []sequencing.Source {
	rmds := ys.RMDs.RequiredMinimumForAccounts(in.Accounts, in.Age)
	sources := sequencing.NewSources(in.Accounts)
	out := sources[:0]
	for _, src := range sources {
		src.PendingRMD = rmds[src.ID]
		if !in.Bucket.AllowsType(src.AccountType) && src.PendingRMD.IsZero() {
			continue
		}
		out = append(out, src)
	}
	return out
}

// priceTaxes feeds the allocation's tax decomposition plus the year's
// outside income to the tax calculator. An unsupported state or filing
// status is caught during validation, so a failure here only means the tax
// line is zero for the year; the withdrawal still proceeds.
func (ys *YearSimulator) priceTaxes(in YearInput, yp *domain.YearProjection, plan *sequencing.Plan) domain.TaxBreakdown {
	breakdown, err := ys.Taxes.Compute(TaxInput{
		OrdinaryIncome:        plan.OrdinaryIncome.Add(yp.PensionIncome),
		CapitalGains:          plan.CapitalGains,
		SocialSecurityBenefit: yp.SocialSecurityIncome,
		FilingStatus:          in.FilingStatus,
		State:                 in.State,
		Age:                   in.Age,
	})
	if err != nil {
		return domain.TaxBreakdown{}
	}
	return breakdown
}

// applyPlan deducts the planned draws from the run's account copies,
// returning basis alongside balance for taxable accounts so the next
// year's gain ratio stays honest.
func applyPlan(accounts []*domain.Account, plan *sequencing.Plan) {
	byID := make(map[string]*domain.Account, len(accounts))
	for _, acct := range accounts {
		byID[acct.ID] = acct
	}
	for _, alloc := range plan.Allocations {
		acct, ok := byID[alloc.AccountID]
		if !ok {
			continue
		}
		acct.Balance = acct.Balance.Sub(alloc.Gross)
		if acct.Balance.LessThan(decimal.Zero) {
			acct.Balance = decimal.Zero
		}
		if acct.Type == domain.AccountTaxable {
			acct.CostBasis = acct.CostBasis.Sub(alloc.TaxFreePortion)
			if acct.CostBasis.LessThan(decimal.Zero) {
				acct.CostBasis = decimal.Zero
			}
		}
	}
}
