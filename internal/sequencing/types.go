package sequencing

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// TaxTreatment describes how dollars leaving a source are taxed.
// Ordinary: fully taxable as ordinary income (tax-deferred accounts).
// TaxFree: no current-year tax impact (Roth, qualified HSA spending).
// CapitalGains: only the gains portion is taxed (taxable brokerage, via
// basis tracking).
type TaxTreatment int

const (
	TaxFree TaxTreatment = iota
	OrdinaryIncome
	CapitalGains
)

func (tt TaxTreatment) String() string {
	switch tt {
	case TaxFree:
		return "tax_free"
	case OrdinaryIncome:
		return "ordinary"
	case CapitalGains:
		return "capital_gains"
	default:
		return "unknown"
	}
}

// Source is an account viewed as a withdrawal pool for one year.
// PendingRMD is stamped by the caller before planning: any required minimum
// the account must distribute this year regardless of strategy.
type Source struct {
	ID          string
	AccountType domain.AccountType
	Balance     decimal.Decimal
	CostBasis   decimal.Decimal
	Treatment   TaxTreatment
	PendingRMD  decimal.Decimal
}

// NewSource views an account as a withdrawal source. HSA spending is modeled
// as qualified (tax-free); non-qualified HSA withdrawals are not simulated.
func NewSource(acct *domain.Account) Source {
	src := Source{
		ID:          acct.ID,
		AccountType: acct.Type,
		Balance:     acct.Balance,
	}
	switch acct.Type {
	case domain.AccountTaxable:
		src.Treatment = CapitalGains
		src.CostBasis = acct.CostBasis
	case domain.AccountTaxDeferred:
		src.Treatment = OrdinaryIncome
	default:
		src.Treatment = TaxFree
	}
	return src
}

// NewSources views a portfolio as withdrawal sources, skipping empty
// accounts.
func NewSources(accounts []*domain.Account) []Source {
	sources := make([]Source, 0, len(accounts))
	for _, acct := range accounts {
		if acct.Balance.LessThanOrEqual(decimal.Zero) {
			continue
		}
		sources = append(sources, NewSource(acct))
	}
	return sources
}

// Allocation is the amount drawn from one source and its tax decomposition.
type Allocation struct {
	AccountID           string
	AccountType         domain.AccountType
	Gross               decimal.Decimal
	OrdinaryPortion     decimal.Decimal
	CapitalGainsPortion decimal.Decimal
	TaxFreePortion      decimal.Decimal
}

// Plan is the full withdrawal picture for one year's need.
// Requested is the caller's need plus the RMD floor; the floor adds to the
// need, it is never absorbed by it. Shortfall is what the portfolio could
// not cover; running short is an outcome, not an error.
type Plan struct {
	Requested      decimal.Decimal
	RMDFloor       decimal.Decimal
	RMDForced      bool // floor exceeded the requested need
	Allocations    []Allocation
	TotalWithdrawn decimal.Decimal
	Shortfall      decimal.Decimal
	OrdinaryIncome decimal.Decimal
	CapitalGains   decimal.Decimal
	TaxFreeAmount  decimal.Decimal
	StrategyUsed   string
}

// WithdrawalByAccount returns the gross amounts keyed by account ID.
func (p *Plan) WithdrawalByAccount() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(p.Allocations))
	for _, alloc := range p.Allocations {
		out[alloc.AccountID] = alloc.Gross
	}
	return out
}

// TappedType reports whether any dollars came out of accounts of the given
// type.
func (p *Plan) TappedType(at domain.AccountType) bool {
	for _, alloc := range p.Allocations {
		if alloc.AccountType == at && alloc.Gross.GreaterThan(decimal.Zero) {
			return true
		}
	}
	return false
}

// Strategy decides which sources cover a withdrawal need.
type Strategy interface {
	Name() string
	Plan(sources []Source, need decimal.Decimal) Plan
}

// drain pulls up to amount from src, decomposes it by tax treatment, and
// folds it into the plan. It returns what was actually taken. The source's
// balance and basis shrink so a second draw from the same source keeps the
// gain ratio consistent.
func (p *Plan) drain(src *Source, amount decimal.Decimal) decimal.Decimal {
	if amount.GreaterThan(src.Balance) {
		amount = src.Balance
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	alloc := Allocation{AccountID: src.ID, AccountType: src.AccountType, Gross: amount}
	switch src.Treatment {
	case OrdinaryIncome:
		alloc.OrdinaryPortion = amount
	case TaxFree:
		alloc.TaxFreePortion = amount
	case CapitalGains:
		unrealized := src.Balance.Sub(src.CostBasis)
		if unrealized.LessThan(decimal.Zero) {
			unrealized = decimal.Zero
		}
		gain := amount.Mul(unrealized.Div(src.Balance))
		alloc.CapitalGainsPortion = gain
		alloc.TaxFreePortion = amount.Sub(gain)
		src.CostBasis = src.CostBasis.Sub(amount.Sub(gain))
	}
	src.Balance = src.Balance.Sub(amount)

	p.merge(alloc)
	p.TotalWithdrawn = p.TotalWithdrawn.Add(amount)
	p.OrdinaryIncome = p.OrdinaryIncome.Add(alloc.OrdinaryPortion)
	p.CapitalGains = p.CapitalGains.Add(alloc.CapitalGainsPortion)
	p.TaxFreeAmount = p.TaxFreeAmount.Add(alloc.TaxFreePortion)
	return amount
}

// merge folds an allocation into an existing entry for the same account, so
// an RMD draw and a strategy draw from one account appear as one line.
func (p *Plan) merge(alloc Allocation) {
	for i := range p.Allocations {
		if p.Allocations[i].AccountID == alloc.AccountID {
			p.Allocations[i].Gross = p.Allocations[i].Gross.Add(alloc.Gross)
			p.Allocations[i].OrdinaryPortion = p.Allocations[i].OrdinaryPortion.Add(alloc.OrdinaryPortion)
			p.Allocations[i].CapitalGainsPortion = p.Allocations[i].CapitalGainsPortion.Add(alloc.CapitalGainsPortion)
			p.Allocations[i].TaxFreePortion = p.Allocations[i].TaxFreePortion.Add(alloc.TaxFreePortion)
			return
		}
	}
	p.Allocations = append(p.Allocations, alloc)
}

// planWithFloor runs the shared two-phase pipeline: satisfy every pending
// RMD first, then let the strategy's fill function cover what remains of
// need plus floor. Strategies receive a copy of the sources, so the
// caller's slice is never mutated.
func planWithFloor(name string, sources []Source, need decimal.Decimal, fill func(p *Plan, sources []Source, remaining decimal.Decimal) decimal.Decimal) Plan {
	srcs := make([]Source, len(sources))
	copy(srcs, sources)

	plan := Plan{StrategyUsed: name, Allocations: []Allocation{}}
	for i := range srcs {
		if srcs[i].PendingRMD.GreaterThan(decimal.Zero) {
			taken := plan.drain(&srcs[i], srcs[i].PendingRMD)
			plan.RMDFloor = plan.RMDFloor.Add(taken)
		}
	}
	plan.RMDForced = plan.RMDFloor.GreaterThan(need)
	plan.Requested = need.Add(plan.RMDFloor)

	remaining := plan.Requested.Sub(plan.TotalWithdrawn)
	if remaining.GreaterThan(decimal.Zero) {
		remaining = fill(&plan, srcs, remaining)
	}
	if remaining.LessThan(decimal.Zero) {
		remaining = decimal.Zero
	}
	plan.Shortfall = remaining
	return plan
}
