package output

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// Formatter renders simulation results in one output format. Every
// formatter handles all three result shapes so the CLI can pick a format
// once and reuse it across subcommands.
type Formatter interface {
	Name() string
	FormatProjection(sc *domain.Scenario, projection []domain.YearProjection, summary domain.SimulationSummary) ([]byte, error)
	FormatBacktest(sc *domain.Scenario, result *domain.BacktestResult) ([]byte, error)
	FormatMonteCarlo(sc *domain.Scenario, result *domain.MonteCarloResult) ([]byte, error)
}

// NewFormatter resolves a format name from the command line.
func NewFormatter(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "table", "":
		return TableFormatter{}, nil
	case "csv":
		return CSVFormatter{}, nil
	case "json":
		return JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q (supported: table, csv, json)", name)
	}
}

// FormatCurrency formats a decimal as currency with thousands separators.
func FormatCurrency(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

// FormatPercent formats a fractional rate as a percentage.
func FormatPercent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}
