package calculation

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// StateTaxInput carries the income mix a state calculator needs. Ordinary
// income here is retirement-sourced (tax-deferred withdrawals plus pension);
// components are kept separate because states differ on what they exempt.
type StateTaxInput struct {
	OrdinaryIncome decimal.Decimal
	CapitalGains   decimal.Decimal
	SocialSecurity decimal.Decimal
	FilingStatus   domain.FilingStatus
	Age            int
}

// StateTaxCalculator is a per-state strategy: flat rate, bracket table, or
// no income tax. Unsupported states fail with a ConfigurationGap, never a
// silent zero.
type StateTaxCalculator interface {
	Name() string
	CalculateTax(in StateTaxInput) decimal.Decimal
}

// PennsylvaniaTaxCalculator applies PA's flat rate. PA exempts
// retirement-account withdrawals, pensions, and Social Security, so of the
// income this engine models only capital gains are taxable.
type PennsylvaniaTaxCalculator struct {
	Rate decimal.Decimal
}

// NewPennsylvaniaTaxCalculator creates the PA calculator at the current
// 3.07% rate.
func NewPennsylvaniaTaxCalculator() *PennsylvaniaTaxCalculator {
	return &PennsylvaniaTaxCalculator{Rate: decimal.NewFromFloat(0.0307)}
}

func (p *PennsylvaniaTaxCalculator) Name() string { return "PA" }

func (p *PennsylvaniaTaxCalculator) CalculateTax(in StateTaxInput) decimal.Decimal {
	if in.CapitalGains.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return in.CapitalGains.Mul(p.Rate)
}

// VirginiaTaxCalculator applies VA's bracket table. VA taxes retirement
// income and gains as ordinary income after its standard deduction and
// exempts Social Security. The income-limited age deduction is not modeled.
type VirginiaTaxCalculator struct {
	Brackets          []TaxBracket
	StandardDeduction map[domain.FilingStatus]decimal.Decimal
}

// NewVirginiaTaxCalculator creates the VA calculator with current brackets.
func NewVirginiaTaxCalculator() *VirginiaTaxCalculator {
	d := decimal.NewFromInt
	f := decimal.NewFromFloat
	return &VirginiaTaxCalculator{
		Brackets: []TaxBracket{
			{d(0), d(3000), f(0.02)},
			{d(3000), d(5000), f(0.03)},
			{d(5000), d(17000), f(0.05)},
			{d(17000), d(topBracketSentinel), f(0.0575)},
		},
		StandardDeduction: map[domain.FilingStatus]decimal.Decimal{
			domain.FilingSingle:         d(8000),
			domain.FilingMarriedJointly: d(16000),
		},
	}
}

func (v *VirginiaTaxCalculator) Name() string { return "VA" }

func (v *VirginiaTaxCalculator) CalculateTax(in StateTaxInput) decimal.Decimal {
	taxable := in.OrdinaryIncome.
		Add(in.CapitalGains).
		Sub(v.StandardDeduction[in.FilingStatus])
	return MarginalTax(v.Brackets, taxable)
}

// NoIncomeTaxCalculator covers states with no individual income tax.
type NoIncomeTaxCalculator struct {
	State string
}

func (n *NoIncomeTaxCalculator) Name() string { return n.State }

func (n *NoIncomeTaxCalculator) CalculateTax(StateTaxInput) decimal.Decimal {
	return decimal.Zero
}

// StateTaxRegistry maps state codes to their calculators.
type StateTaxRegistry struct {
	calculators map[string]StateTaxCalculator
}

// noIncomeTaxStates lists states with no individual income tax.
var noIncomeTaxStates = []string{"AK", "FL", "NV", "SD", "TN", "TX", "WA", "WY"}

// NewStateTaxRegistry builds the registry with every implemented state.
func NewStateTaxRegistry() *StateTaxRegistry {
	r := &StateTaxRegistry{calculators: make(map[string]StateTaxCalculator)}
	r.Register("PA", NewPennsylvaniaTaxCalculator())
	r.Register("VA", NewVirginiaTaxCalculator())
	for _, st := range noIncomeTaxStates {
		r.Register(st, &NoIncomeTaxCalculator{State: st})
	}
	return r
}

// Register adds or replaces a state calculator.
func (r *StateTaxRegistry) Register(code string, calc StateTaxCalculator) {
	r.calculators[strings.ToUpper(code)] = calc
}

// Lookup finds the calculator for a state code. An unimplemented state is a
// ConfigurationGap: missing data, not malformed input.
func (r *StateTaxRegistry) Lookup(state string) (StateTaxCalculator, error) {
	code := strings.ToUpper(strings.TrimSpace(state))
	if code == "" {
		return nil, domain.NewValidationError("state", "state of residence is required")
	}
	calc, ok := r.calculators[code]
	if !ok {
		return nil, domain.NewConfigurationGap("state", "no tax table implemented for state %q (supported: %s)", state, strings.Join(r.Supported(), ", "))
	}
	return calc, nil
}

// Supported returns the implemented state codes, sorted.
func (r *StateTaxRegistry) Supported() []string {
	codes := make([]string, 0, len(r.calculators))
	for code := range r.calculators {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
