package sequencing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// KnownStrategies lists every strategy name configuration may reference.
func KnownStrategies() []string {
	return []string{
		StrategyTaxableFirst,
		StrategyTaxDeferredFirst,
		StrategyRothFirst,
		StrategyCustom,
		StrategyOptimized,
	}
}

// NewStrategy resolves a strategy name from configuration. An unrecognized
// name is a configuration error, never a silent fallback. The optimized
// strategy cannot be built here: it needs full-horizon simulation, so the
// engine expands it into candidate orderings itself.
func NewStrategy(name string, customSplit map[domain.AccountType]decimal.Decimal) (Strategy, error) {
	switch name {
	case StrategyTaxableFirst, "":
		return NewTaxableFirstStrategy(), nil
	case StrategyTaxDeferredFirst:
		return NewTaxDeferredFirstStrategy(), nil
	case StrategyRothFirst:
		return NewRothFirstStrategy(), nil
	case StrategyCustom:
		if err := validateSplit(customSplit); err != nil {
			return nil, err
		}
		return NewCustomSplitStrategy(customSplit), nil
	case StrategyOptimized:
		return nil, domain.NewConfigurationGap("strategy", "optimized sequencing is resolved by the simulation engine, not a fixed ordering")
	default:
		return nil, domain.NewConfigurationGap("strategy", "unknown withdrawal strategy %q (known: %s)", name, strings.Join(KnownStrategies(), ", "))
	}
}

// validateSplit requires a custom split over known account types whose
// shares sum to exactly 1.
func validateSplit(split map[domain.AccountType]decimal.Decimal) error {
	if len(split) == 0 {
		return domain.NewValidationError("custom_split", "custom strategy requires a non-empty split")
	}
	total := decimal.Zero
	for at, pct := range split {
		if _, err := domain.ParseAccountType(string(at)); err != nil {
			return err
		}
		if pct.LessThan(decimal.Zero) {
			return domain.NewValidationError("custom_split", "share for %s must not be negative, got %s", at, pct)
		}
		total = total.Add(pct)
	}
	if !total.Equal(decimal.NewFromInt(1)) {
		return domain.NewValidationError("custom_split", "shares must sum to 1, got %s", total)
	}
	return nil
}
