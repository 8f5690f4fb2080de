package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// RMDStartAge is when required minimum distributions begin under SECURE 2.0.
const RMDStartAge = 73

// RMDTable maps age to the IRS Uniform Lifetime Table distribution-period
// divisor. Constructed explicitly and passed in wherever RMDs are computed;
// there is no package-level instance.
type RMDTable struct {
	StartAge int
	Divisors map[int]decimal.Decimal

	// fallback covers ages past the last table entry.
	fallback decimal.Decimal
}

// NewRMDTable creates the Uniform Lifetime Table with the current start age.
func NewRMDTable() *RMDTable {
	f := decimal.NewFromFloat
	return &RMDTable{
		StartAge: RMDStartAge,
		Divisors: map[int]decimal.Decimal{
			72:  f(27.4),
			73:  f(26.5),
			74:  f(25.5),
			75:  f(24.6),
			76:  f(23.7),
			77:  f(22.9),
			78:  f(22.0),
			79:  f(21.1),
			80:  f(20.2),
			81:  f(19.4),
			82:  f(18.5),
			83:  f(17.7),
			84:  f(16.8),
			85:  f(16.0),
			86:  f(15.2),
			87:  f(14.4),
			88:  f(13.7),
			89:  f(12.9),
			90:  f(12.2),
			91:  f(11.5),
			92:  f(10.8),
			93:  f(10.1),
			94:  f(9.5),
			95:  f(8.9),
			96:  f(8.4),
			97:  f(7.8),
			98:  f(7.3),
			99:  f(6.8),
			100: f(6.4),
		},
		fallback: f(6.0),
	}
}

// DivisorForAge returns the distribution period for an age at or past the
// start age.
func (rt *RMDTable) DivisorForAge(age int) decimal.Decimal {
	if divisor, ok := rt.Divisors[age]; ok {
		return divisor
	}
	return rt.fallback
}

// RequiredMinimum computes the RMD for one account balance at the given age.
// Below the start age there is no requirement.
func (rt *RMDTable) RequiredMinimum(balance decimal.Decimal, age int) decimal.Decimal {
	if age < rt.StartAge || balance.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return balance.Div(rt.DivisorForAge(age))
}

// RequiredMinimumForAccounts sums the RMD floors across a portfolio,
// returning per-account amounts keyed by account ID. Only RMD-applicable
// accounts participate.
func (rt *RMDTable) RequiredMinimumForAccounts(accounts []*domain.Account, age int) map[string]decimal.Decimal {
	rmds := make(map[string]decimal.Decimal)
	for _, acct := range accounts {
		if !acct.IsRMDApplicable() {
			continue
		}
		if rmd := rt.RequiredMinimum(acct.Balance, age); rmd.GreaterThan(decimal.Zero) {
			rmds[acct.ID] = rmd
		}
	}
	return rmds
}
