package compare

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// ComparisonResult holds one strategy's outcome plus its deltas against
// the base strategy.
type ComparisonResult struct {
	Strategy string                   `json:"strategy"`
	Summary  domain.SimulationSummary `json:"summary"`

	// Key metrics
	FinalBalance     decimal.Decimal `json:"final_balance"`
	LifetimeTaxes    decimal.Decimal `json:"lifetime_taxes"`
	EffectiveTaxRate decimal.Decimal `json:"effective_tax_rate"`
	DepletionYear    *int            `json:"depletion_year,omitempty"`

	// Deltas from base (zero on the base row itself)
	BalanceDiffFromBase decimal.Decimal `json:"balance_diff_from_base"`
	BalancePctFromBase  decimal.Decimal `json:"balance_pct_from_base"`
	TaxDiffFromBase     decimal.Decimal `json:"tax_diff_from_base"`
}

// ComparisonSet is a full strategy comparison for one scenario.
type ComparisonSet struct {
	ScenarioName string             `json:"scenario_name"`
	BaseStrategy string             `json:"base_strategy"`
	Base         *ComparisonResult  `json:"base"`
	Alternatives []ComparisonResult `json:"alternatives"`

	// BestStrategy names the alternative with the lowest lifetime taxes
	// among runs that stayed funded; empty when none beat the base.
	BestStrategy string `json:"best_strategy,omitempty"`
}

// MetricsCalculator derives comparison metrics from run summaries.
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator.
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics extracts a result's standalone metrics.
func (mc *MetricsCalculator) CalculateMetrics(strategy string, summary domain.SimulationSummary) ComparisonResult {
	return ComparisonResult{
		Strategy:         strategy,
		Summary:          summary,
		FinalBalance:     summary.FinalPortfolioValue,
		LifetimeTaxes:    summary.TotalTaxesPaid,
		EffectiveTaxRate: summary.EffectiveTaxRate,
		DepletionYear:    summary.FirstDepletionYear,
	}
}

// CalculateComparison fills in an alternative's deltas against the base.
func (mc *MetricsCalculator) CalculateComparison(alt, base ComparisonResult) ComparisonResult {
	alt.BalanceDiffFromBase = alt.FinalBalance.Sub(base.FinalBalance)
	if base.FinalBalance.IsPositive() {
		alt.BalancePctFromBase = alt.BalanceDiffFromBase.
			Div(base.FinalBalance).
			Mul(decimal.NewFromInt(100)).Round(2)
	}
	alt.TaxDiffFromBase = alt.LifetimeTaxes.Sub(base.LifetimeTaxes)
	return alt
}
