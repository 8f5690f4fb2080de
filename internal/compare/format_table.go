package compare

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TableFormatter formats comparison results as a console table.
type TableFormatter struct{}

// Format renders the strategy comparison.
func (tf *TableFormatter) Format(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString("WITHDRAWAL STRATEGY COMPARISON\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Scenario:      %s\n", compSet.ScenarioName))
	sb.WriteString(fmt.Sprintf("Base strategy: %s\n", compSet.BaseStrategy))
	sb.WriteString("\n")

	nameWidth := 20
	numWidth := 14

	sb.WriteString(fmt.Sprintf("%-*s %*s %*s %*s %*s\n",
		nameWidth, "Strategy",
		numWidth, "Final Balance",
		numWidth, "Lifetime Tax",
		numWidth, "Eff Tax Rate",
		numWidth, "Outcome"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	sb.WriteString(tf.formatRow(compSet.Base, nameWidth, numWidth, true))
	for i := range compSet.Alternatives {
		sb.WriteString(tf.formatRow(&compSet.Alternatives[i], nameWidth, numWidth, false))
	}
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	if len(compSet.Alternatives) > 0 {
		sb.WriteString("\nCOMPARISON TO BASE\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, alt := range compSet.Alternatives {
			sb.WriteString(fmt.Sprintf("\n%s:\n", alt.Strategy))

			balanceSymbol := tf.deltaSymbol(alt.BalanceDiffFromBase)
			sb.WriteString(fmt.Sprintf("  Final balance: %s$%s (%s%%)\n",
				balanceSymbol,
				tf.formatDecimal(alt.BalanceDiffFromBase.Abs()),
				alt.BalancePctFromBase.StringFixed(1)))

			if !alt.TaxDiffFromBase.IsZero() {
				taxSymbol := tf.deltaSymbol(alt.TaxDiffFromBase)
				sb.WriteString(fmt.Sprintf("  Lifetime tax:  %s$%s\n",
					taxSymbol,
					tf.formatDecimal(alt.TaxDiffFromBase.Abs())))
			}
		}
		sb.WriteString("\n")
	}

	if compSet.BestStrategy != "" {
		sb.WriteString(fmt.Sprintf("\nLowest-tax funded strategy: %s\n", compSet.BestStrategy))
	}

	return sb.String()
}

func (tf *TableFormatter) formatRow(result *ComparisonResult, nameWidth, numWidth int, isBase bool) string {
	name := result.Strategy
	if isBase {
		name += " (base)"
	}

	outcome := "funded"
	if result.DepletionYear != nil {
		outcome = fmt.Sprintf("dry year %d", *result.DepletionYear)
	}

	return fmt.Sprintf("%-*s %*s %*s %*s %*s\n",
		nameWidth, name,
		numWidth, "$"+tf.formatDecimal(result.FinalBalance),
		numWidth, "$"+tf.formatDecimal(result.LifetimeTaxes),
		numWidth, result.EffectiveTaxRate.Mul(decimal.NewFromInt(100)).StringFixed(1)+"%",
		numWidth, outcome)
}

// formatDecimal compacts large figures to K/M units for the table.
func (tf *TableFormatter) formatDecimal(d decimal.Decimal) string {
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000000)) {
		return d.Div(decimal.NewFromInt(1000000)).StringFixed(2) + "M"
	} else if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		return d.Div(decimal.NewFromInt(1000)).StringFixed(1) + "K"
	}
	return d.StringFixed(0)
}

func (tf *TableFormatter) deltaSymbol(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+"
	} else if delta.IsNegative() {
		return "-"
	}
	return ""
}
