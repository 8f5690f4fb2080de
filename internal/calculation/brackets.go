package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// TAX DATA ASSUMPTIONS:
//
// 1. Federal brackets, deductions, and capital-gains thresholds are 2025
//    values held constant for all projection years (no inflation indexing).
// 2. Social Security provisional-income thresholds are statutory and
//    unindexed ($25k/$34k single, $32k/$44k joint).
// 3. NIIT thresholds are statutory and unindexed.
// 4. IRMAA tiers are the 2025 schedule; real IRMAA uses MAGI from two years
//    prior, which this planning model approximates with current-year MAGI.

// TaxBracket is one marginal bracket: income between Min and Max is taxed
// at Rate. Brackets are contiguous; the top bracket uses a large sentinel
// Max.
type TaxBracket struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Rate decimal.Decimal
}

// IRMAATier is one Medicare surcharge step: MAGI above the filing-status
// threshold adds MonthlySurcharge to the Part B premium.
type IRMAATier struct {
	ThresholdSingle  decimal.Decimal
	ThresholdJoint   decimal.Decimal
	MonthlySurcharge decimal.Decimal
}

// TaxBracketTable holds the static tax reference data for one tax year,
// keyed by filing status. Constructed once, safe for concurrent reads, and
// passed explicitly into calculators; there are no package-level singletons.
type TaxBracketTable struct {
	Year int

	OrdinaryBrackets   map[domain.FilingStatus][]TaxBracket
	StandardDeduction  map[domain.FilingStatus]decimal.Decimal
	AdditionalStdDed65 decimal.Decimal // per filer aged 65+

	CapitalGainsBrackets map[domain.FilingStatus][]TaxBracket

	SSBaseThreshold  map[domain.FilingStatus]decimal.Decimal
	SSUpperThreshold map[domain.FilingStatus]decimal.Decimal

	NIITThreshold map[domain.FilingStatus]decimal.Decimal
	NIITRate      decimal.Decimal

	IRMAABasePremium decimal.Decimal // monthly Part B base
	IRMAATiers       []IRMAATier
}

const topBracketSentinel = 999999999

// NewTaxBracketTable2025 builds the 2025 federal table.
func NewTaxBracketTable2025() *TaxBracketTable {
	d := decimal.NewFromInt
	f := decimal.NewFromFloat

	return &TaxBracketTable{
		Year: 2025,
		OrdinaryBrackets: map[domain.FilingStatus][]TaxBracket{
			domain.FilingMarriedJointly: {
				{d(0), d(23200), f(0.10)},
				{d(23200), d(94300), f(0.12)},
				{d(94300), d(201050), f(0.22)},
				{d(201050), d(383900), f(0.24)},
				{d(383900), d(487450), f(0.32)},
				{d(487450), d(731200), f(0.35)},
				{d(731200), d(topBracketSentinel), f(0.37)},
			},
			domain.FilingSingle: {
				{d(0), d(11600), f(0.10)},
				{d(11600), d(47150), f(0.12)},
				{d(47150), d(100525), f(0.22)},
				{d(100525), d(191950), f(0.24)},
				{d(191950), d(243725), f(0.32)},
				{d(243725), d(609350), f(0.35)},
				{d(609350), d(topBracketSentinel), f(0.37)},
			},
		},
		StandardDeduction: map[domain.FilingStatus]decimal.Decimal{
			domain.FilingMarriedJointly: d(30000),
			domain.FilingSingle:         d(15000),
		},
		AdditionalStdDed65: d(1550),
		CapitalGainsBrackets: map[domain.FilingStatus][]TaxBracket{
			domain.FilingMarriedJointly: {
				{d(0), d(94050), decimal.Zero},
				{d(94050), d(583750), f(0.15)},
				{d(583750), d(topBracketSentinel), f(0.20)},
			},
			domain.FilingSingle: {
				{d(0), d(47025), decimal.Zero},
				{d(47025), d(518900), f(0.15)},
				{d(518900), d(topBracketSentinel), f(0.20)},
			},
		},
		SSBaseThreshold: map[domain.FilingStatus]decimal.Decimal{
			domain.FilingMarriedJointly: d(32000),
			domain.FilingSingle:         d(25000),
		},
		SSUpperThreshold: map[domain.FilingStatus]decimal.Decimal{
			domain.FilingMarriedJointly: d(44000),
			domain.FilingSingle:         d(34000),
		},
		NIITThreshold: map[domain.FilingStatus]decimal.Decimal{
			domain.FilingMarriedJointly: d(250000),
			domain.FilingSingle:         d(200000),
		},
		NIITRate:         f(0.038),
		IRMAABasePremium: f(185.00),
		IRMAATiers: []IRMAATier{
			{d(103000), d(206000), f(69.90)},
			{d(129000), d(258000), f(174.70)},
			{d(161000), d(322000), f(279.50)},
			{d(193000), d(386000), f(384.30)},
			{d(500000), d(750000), f(489.10)},
		},
	}
}

// StandardDeductionFor returns the deduction for the filing status, with
// the 65+ addition applied per filer (both spouses assumed the same age for
// a joint return).
func (t *TaxBracketTable) StandardDeductionFor(fs domain.FilingStatus, age int) decimal.Decimal {
	ded := t.StandardDeduction[fs]
	if age >= 65 {
		filers := int64(1)
		if fs == domain.FilingMarriedJointly {
			filers = 2
		}
		ded = ded.Add(t.AdditionalStdDed65.Mul(decimal.NewFromInt(filers)))
	}
	return ded
}

// MarginalTax walks the bracket table over already-deducted taxable income.
func MarginalTax(brackets []TaxBracket, taxableIncome decimal.Decimal) decimal.Decimal {
	if taxableIncome.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	var totalTax decimal.Decimal
	for _, bracket := range brackets {
		if taxableIncome.LessThanOrEqual(bracket.Min) {
			break
		}
		incomeInBracket := decimal.Min(taxableIncome, bracket.Max).Sub(bracket.Min)
		if incomeInBracket.GreaterThan(decimal.Zero) {
			totalTax = totalTax.Add(incomeInBracket.Mul(bracket.Rate))
		}
	}
	return totalTax
}

// StackedGainsTax taxes long-term gains in the preferential brackets they
// occupy after being stacked on top of ordinary taxable income; the gains
// bracket is determined by where the gains land, never evaluated
// independently.
func StackedGainsTax(brackets []TaxBracket, ordinaryTaxable, gains decimal.Decimal) decimal.Decimal {
	if gains.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	stackTop := ordinaryTaxable.Add(gains)
	var tax decimal.Decimal
	for _, bracket := range brackets {
		lower := decimal.Max(bracket.Min, ordinaryTaxable)
		upper := decimal.Min(bracket.Max, stackTop)
		if upper.GreaterThan(lower) {
			tax = tax.Add(upper.Sub(lower).Mul(bracket.Rate))
		}
	}
	return tax
}
