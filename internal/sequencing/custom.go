package sequencing

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// CustomSplitStrategy divides the need across account types by
// caller-supplied percentages. A type without the balance to absorb its
// share spills the difference to the remaining accounts in taxable-first
// order rather than leaving the need unmet.
type CustomSplitStrategy struct {
	Split map[domain.AccountType]decimal.Decimal
}

// NewCustomSplitStrategy builds a percentage-split strategy. The factory
// validates the split; a nil or empty map plans nothing beyond RMD floors
// and spillover.
func NewCustomSplitStrategy(split map[domain.AccountType]decimal.Decimal) *CustomSplitStrategy {
	return &CustomSplitStrategy{Split: split}
}

func (s *CustomSplitStrategy) Name() string { return StrategyCustom }

func (s *CustomSplitStrategy) Plan(sources []Source, need decimal.Decimal) Plan {
	return planWithFloor(StrategyCustom, sources, need, func(p *Plan, srcs []Source, remaining decimal.Decimal) decimal.Decimal {
		spillOrder := []domain.AccountType{
			domain.AccountTaxable,
			domain.AccountTaxDeferred,
			domain.AccountTaxFree,
			domain.AccountHealthSavings,
		}

		target := remaining
		for _, at := range spillOrder {
			pct, ok := s.Split[at]
			if !ok || pct.LessThanOrEqual(decimal.Zero) {
				continue
			}
			share := target.Mul(pct)
			for i := range srcs {
				if share.LessThanOrEqual(decimal.Zero) {
					break
				}
				if srcs[i].AccountType != at {
					continue
				}
				taken := p.drain(&srcs[i], decimal.Min(share, remaining))
				share = share.Sub(taken)
				remaining = remaining.Sub(taken)
			}
		}

		if remaining.GreaterThan(decimal.Zero) {
			remaining = drainInOrder(p, srcs, remaining, spillOrder)
		}
		return remaining
	})
}
