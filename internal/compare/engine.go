package compare

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/drawdown/internal/calculation"
	"github.com/rgehrsitz/drawdown/internal/domain"
	"github.com/rgehrsitz/drawdown/internal/sequencing"
)

// CompareEngine runs one scenario under each sequencing strategy and
// reports the differences.
type CompareEngine struct {
	CalcEngine        *calculation.Engine
	MetricsCalculator *MetricsCalculator
}

// NewCompareEngine creates a new comparison engine.
func NewCompareEngine(calcEngine *calculation.Engine) *CompareEngine {
	return &CompareEngine{
		CalcEngine:        calcEngine,
		MetricsCalculator: NewMetricsCalculator(),
	}
}

// CompareOptions configures comparison behavior.
type CompareOptions struct {
	// BaseStrategy is the strategy the deltas are measured against.
	// Defaults to the scenario's own strategy, or taxable_first.
	BaseStrategy string

	// Strategies limits the comparison; empty means every applicable
	// strategy.
	Strategies []string
}

// Compare runs the scenario once per strategy against the same return
// source. Each run clones the scenario, so runs cannot contaminate one
// another.
func (ce *CompareEngine) Compare(ctx context.Context, sc *domain.Scenario, source calculation.ReturnSource, options CompareOptions) (*ComparisonSet, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	base := options.BaseStrategy
	if base == "" {
		base = sc.Strategy
	}
	if base == "" {
		base = sequencing.StrategyTaxableFirst
	}

	strategies := options.Strategies
	if len(strategies) == 0 {
		strategies = ce.applicableStrategies(sc)
	}

	baseResult, err := ce.runStrategy(sc, source, base)
	if err != nil {
		return nil, fmt.Errorf("base strategy %s: %w", base, err)
	}

	set := &ComparisonSet{
		ScenarioName: sc.Name,
		BaseStrategy: base,
		Base:         baseResult,
	}

	for _, name := range strategies {
		if name == base {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		alt, err := ce.runStrategy(sc, source, name)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", name, err)
		}
		*alt = ce.MetricsCalculator.CalculateComparison(*alt, *baseResult)
		set.Alternatives = append(set.Alternatives, *alt)
	}

	set.BestStrategy = pickBest(set)
	return set, nil
}

func (ce *CompareEngine) runStrategy(sc *domain.Scenario, source calculation.ReturnSource, strategy string) (*ComparisonResult, error) {
	run := *sc
	run.Strategy = strategy

	// Bucket-level strategy overrides would defeat the whole-horizon
	// comparison, so clear them for the run. TaxOptimized counts: left
	// set, EffectiveStrategy resolves every bucket to "optimized" no
	// matter which strategy this run is measuring.
	run.Buckets = append([]domain.WithdrawalBucket(nil), sc.Buckets...)
	for i := range run.Buckets {
		run.Buckets[i].Strategy = ""
		run.Buckets[i].WithdrawalOrder = nil
		run.Buckets[i].TaxOptimized = false
	}

	_, summary, err := ce.CalcEngine.Run(&run, source)
	if err != nil {
		return nil, err
	}
	result := ce.MetricsCalculator.CalculateMetrics(strategy, summary)
	return &result, nil
}

// applicableStrategies omits custom when the scenario has no split to
// honor.
func (ce *CompareEngine) applicableStrategies(sc *domain.Scenario) []string {
	strategies := []string{
		sequencing.StrategyTaxableFirst,
		sequencing.StrategyTaxDeferredFirst,
		sequencing.StrategyRothFirst,
		sequencing.StrategyOptimized,
	}
	if len(sc.CustomSplit) > 0 {
		strategies = append(strategies, sequencing.StrategyCustom)
	}
	return strategies
}

// pickBest prefers the funded alternative with the lowest lifetime taxes
// that strictly beats the base.
func pickBest(set *ComparisonSet) string {
	best := ""
	bestTaxes := set.Base.LifetimeTaxes
	baseFunded := set.Base.Summary.Success
	for _, alt := range set.Alternatives {
		if !alt.Summary.Success {
			continue
		}
		if !baseFunded || alt.LifetimeTaxes.LessThan(bestTaxes) {
			best = alt.Strategy
			bestTaxes = alt.LifetimeTaxes
			baseFunded = true
		}
	}
	return best
}
