package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
	"github.com/rgehrsitz/drawdown/internal/sequencing"
)

// Engine drives the year simulator across the retirement horizon using a
// caller-supplied return source. It is stateless between calls: every run
// works on fresh local copies of the account balances, so one engine may
// serve many concurrent runs.
type Engine struct {
	Years  *YearSimulator
	logger Logger
}

// NewEngine creates an engine on the 2025 tax table and the current
// Uniform Lifetime Table.
func NewEngine() *Engine {
	return NewEngineWith(NewTaxCalculator(), NewRMDTable())
}

// NewEngineWith creates an engine over explicit reference tables.
func NewEngineWith(taxes *TaxCalculator, rmds *RMDTable) *Engine {
	return &Engine{
		Years:  NewYearSimulator(taxes, rmds),
		logger: NopLogger{},
	}
}

// SetLogger injects a logger; the default discards everything.
func (e *Engine) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	e.logger = l
}

// Run validates the scenario, resolves the sequencing strategy for every
// bucket, and simulates each year from retirement age to life expectancy.
// Validation failures surface before any simulation work; once the loop
// starts nothing aborts it.
func (e *Engine) Run(sc *domain.Scenario, source ReturnSource) ([]domain.YearProjection, domain.SimulationSummary, error) {
	if err := sc.Validate(); err != nil {
		return nil, domain.SimulationSummary{}, err
	}
	strategies, err := e.resolveStrategies(sc, source)
	if err != nil {
		return nil, domain.SimulationSummary{}, err
	}
	projection := e.simulate(sc, source, strategies)
	return projection, domain.Summarize(projection), nil
}

// RunDeterministic runs the scenario under its fixed assumed return and
// inflation rates. An unset return assumption falls back to the
// balance-weighted blend of the accounts' growth rates.
func (e *Engine) RunDeterministic(sc *domain.Scenario) ([]domain.YearProjection, domain.SimulationSummary, error) {
	annual := sc.Parameters.AssumedReturnRate
	if annual.IsZero() {
		annual = sc.BlendedGrowthRate()
	}
	return e.Run(sc, ConstantReturnSource{
		AnnualReturn: annual,
		Inflation:    sc.Parameters.AssumedInflationRate,
	})
}

// simulate is the validated core loop: bucket selection, return lookup,
// year step, balance carry. Callers guarantee the scenario is valid and a
// strategy exists per bucket.
func (e *Engine) simulate(sc *domain.Scenario, source ReturnSource, strategies []sequencing.Strategy) []domain.YearProjection {
	params := &sc.Parameters
	accounts := domain.CloneAccounts(sc.Accounts)
	horizon := params.HorizonYears()
	projection := make([]domain.YearProjection, 0, horizon)

	one := decimal.NewFromInt(1)
	inflationFactor := one
	for n := 0; n < horizon; n++ {
		age := params.RetirementAge + n
		idx := bucketIndexForAge(sc.Buckets, age, params.LifeExpectancy)
		market := source.ReturnFor(n)

		yp := e.Years.SimulateYear(YearInput{
			YearIndex:       n,
			Age:             age,
			Accounts:        accounts,
			Bucket:          &sc.Buckets[idx],
			Strategy:        strategies[idx],
			Market:          market,
			InflationFactor: inflationFactor,
			FilingStatus:    params.FilingStatus,
			State:           params.State,
			SSClaimingAge:   params.SSClaimingAge,
		})
		projection = append(projection, yp)
		e.logger.Debugf("year %d age %d: withdrew %s, taxes %s, ending %s",
			n, age, yp.ActualWithdrawal.StringFixed(2), yp.TaxesOwed.Total.StringFixed(2), yp.PortfolioValueEnd.StringFixed(2))

		// This year's inflation scales next year's targets.
		inflationFactor = inflationFactor.Mul(one.Add(market.Inflation))
	}
	return projection
}

// resolveStrategies binds one sequencing strategy per bucket. Buckets
// naming the optimized strategy all share a single ordering chosen by
// evaluateOrderings; everything else resolves through the factory.
func (e *Engine) resolveStrategies(sc *domain.Scenario, source ReturnSource) ([]sequencing.Strategy, error) {
	strategies := make([]sequencing.Strategy, len(sc.Buckets))
	optimized := make([]int, 0)
	for i := range sc.Buckets {
		b := &sc.Buckets[i]
		if len(b.WithdrawalOrder) > 0 {
			strategies[i] = sequencing.NewOrderedStrategy("preferred_order", completeOrdering(b.WithdrawalOrder))
			continue
		}
		name := b.EffectiveStrategy(sc.Strategy)
		if name == sequencing.StrategyOptimized {
			optimized = append(optimized, i)
			continue
		}
		split := b.CustomSplit
		if len(split) == 0 {
			split = sc.CustomSplit
		}
		strategy, err := sequencing.NewStrategy(name, split)
		if err != nil {
			return nil, fmt.Errorf("bucket %d: %w", b.Order, err)
		}
		strategies[i] = strategy
	}
	if len(optimized) > 0 {
		best, err := e.evaluateOrderings(sc, source, strategies, optimized)
		if err != nil {
			return nil, err
		}
		for _, i := range optimized {
			strategies[i] = best
		}
	}
	return strategies, nil
}

// evaluateOrderings implements the optimized strategy as a bounded
// brute-force comparison: run the full horizon once per fixed candidate
// ordering and keep the one with the lowest total lifetime tax. An
// enumeration over six orderings, not an open-ended search.
func (e *Engine) evaluateOrderings(sc *domain.Scenario, source ReturnSource, strategies []sequencing.Strategy, optimized []int) (sequencing.Strategy, error) {
	var best sequencing.Strategy
	var bestTax decimal.Decimal
	for _, ordering := range sequencing.CandidateOrderings() {
		candidate := sequencing.NewOrderedStrategy(sequencing.StrategyOptimized, ordering)
		trial := make([]sequencing.Strategy, len(strategies))
		copy(trial, strategies)
		for _, i := range optimized {
			trial[i] = candidate
		}
		summary := domain.Summarize(e.simulate(sc, source, trial))
		e.logger.Debugf("optimized candidate %v: lifetime tax %s", ordering, summary.TotalTaxesPaid.StringFixed(2))
		if best == nil || summary.TotalTaxesPaid.LessThan(bestTax) {
			best = candidate
			bestTax = summary.TotalTaxesPaid
		}
	}
	if best == nil {
		return nil, domain.NewConfigurationGap("strategy", "no candidate orderings to evaluate")
	}
	return best, nil
}

// completeOrdering appends any account types a preferred withdrawal order
// leaves out, so mandatory distributions and spillover still have a place
// to land.
func completeOrdering(preferred []domain.AccountType) []domain.AccountType {
	all := []domain.AccountType{
		domain.AccountTaxable,
		domain.AccountTaxDeferred,
		domain.AccountTaxFree,
		domain.AccountHealthSavings,
	}
	order := append([]domain.AccountType(nil), preferred...)
	for _, at := range all {
		seen := false
		for _, have := range order {
			if have == at {
				seen = true
				break
			}
		}
		if !seen {
			order = append(order, at)
		}
	}
	return order
}

// bucketIndexForAge locates the bucket covering the age. Coverage is
// validated before the loop starts, so a miss cannot happen; falling back
// to the last bucket keeps the loop total.
func bucketIndexForAge(buckets []domain.WithdrawalBucket, age, lifeExpectancy int) int {
	for i := range buckets {
		if buckets[i].Contains(age, lifeExpectancy) {
			return i
		}
	}
	return len(buckets) - 1
}
