package compare

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// CSVFormatter formats comparison results as CSV.
type CSVFormatter struct{}

// Format generates CSV output for comparison results.
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"strategy",
		"role",
		"final_balance",
		"lifetime_taxes",
		"effective_tax_rate",
		"depletion_year",
		"balance_diff_from_base",
		"balance_pct_from_base",
		"tax_diff_from_base",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if err := writer.Write(cf.formatRow(compSet.Base, "base")); err != nil {
		return "", err
	}
	for i := range compSet.Alternatives {
		if err := writer.Write(cf.formatRow(&compSet.Alternatives[i], "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (cf *CSVFormatter) formatRow(result *ComparisonResult, role string) []string {
	depletion := ""
	if result.DepletionYear != nil {
		depletion = strconv.Itoa(*result.DepletionYear)
	}
	return []string{
		result.Strategy,
		role,
		result.FinalBalance.StringFixed(2),
		result.LifetimeTaxes.StringFixed(2),
		result.EffectiveTaxRate.StringFixed(6),
		depletion,
		result.BalanceDiffFromBase.StringFixed(2),
		result.BalancePctFromBase.StringFixed(2),
		result.TaxDiffFromBase.StringFixed(2),
	}
}
