package sequencing

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// Strategy names accepted in configuration.
const (
	StrategyTaxableFirst     = "taxable_first"
	StrategyTaxDeferredFirst = "tax_deferred_first"
	StrategyRothFirst        = "roth_first"
	StrategyCustom           = "custom"
	StrategyOptimized        = "optimized"
)

// OrderedStrategy drains accounts by type priority until the need is met or
// everything is exhausted.
type OrderedStrategy struct {
	name  string
	order []domain.AccountType
}

// NewOrderedStrategy builds a strategy over an explicit type ordering. The
// engine uses this directly when evaluating candidate orderings for the
// optimized strategy.
func NewOrderedStrategy(name string, order []domain.AccountType) *OrderedStrategy {
	return &OrderedStrategy{name: name, order: order}
}

// NewTaxableFirstStrategy spends taxable money first, preserving
// tax-advantaged growth: taxable, then tax-deferred, then Roth, HSA last.
func NewTaxableFirstStrategy() *OrderedStrategy {
	return NewOrderedStrategy(StrategyTaxableFirst, []domain.AccountType{
		domain.AccountTaxable,
		domain.AccountTaxDeferred,
		domain.AccountTaxFree,
		domain.AccountHealthSavings,
	})
}

// NewTaxDeferredFirstStrategy draws down traditional balances early, a
// common move to shrink future RMDs.
func NewTaxDeferredFirstStrategy() *OrderedStrategy {
	return NewOrderedStrategy(StrategyTaxDeferredFirst, []domain.AccountType{
		domain.AccountTaxDeferred,
		domain.AccountTaxable,
		domain.AccountTaxFree,
		domain.AccountHealthSavings,
	})
}

// NewRothFirstStrategy spends Roth money first.
func NewRothFirstStrategy() *OrderedStrategy {
	return NewOrderedStrategy(StrategyRothFirst, []domain.AccountType{
		domain.AccountTaxFree,
		domain.AccountTaxable,
		domain.AccountTaxDeferred,
		domain.AccountHealthSavings,
	})
}

func (s *OrderedStrategy) Name() string { return s.name }

func (s *OrderedStrategy) Plan(sources []Source, need decimal.Decimal) Plan {
	return planWithFloor(s.name, sources, need, func(p *Plan, srcs []Source, remaining decimal.Decimal) decimal.Decimal {
		return drainInOrder(p, srcs, remaining, s.order)
	})
}

// drainInOrder pulls from sources grouped by the given type priority.
func drainInOrder(p *Plan, srcs []Source, remaining decimal.Decimal, order []domain.AccountType) decimal.Decimal {
	for _, at := range order {
		for i := range srcs {
			if remaining.LessThanOrEqual(decimal.Zero) {
				return remaining
			}
			if srcs[i].AccountType != at {
				continue
			}
			remaining = remaining.Sub(p.drain(&srcs[i], remaining))
		}
	}
	return remaining
}

// CandidateOrderings enumerates the fixed set the optimized strategy
// evaluates: every permutation of taxable, tax-deferred, and tax-free, with
// HSA always the last resort. The search space is bounded on purpose.
func CandidateOrderings() [][]domain.AccountType {
	types := []domain.AccountType{
		domain.AccountTaxable,
		domain.AccountTaxDeferred,
		domain.AccountTaxFree,
	}
	var orderings [][]domain.AccountType
	for i := range types {
		for j := range types {
			if j == i {
				continue
			}
			for k := range types {
				if k == i || k == j {
					continue
				}
				orderings = append(orderings, []domain.AccountType{
					types[i], types[j], types[k], domain.AccountHealthSavings,
				})
			}
		}
	}
	return orderings
}
