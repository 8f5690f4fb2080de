package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// TableFormatter renders human-readable tables for the terminal.
type TableFormatter struct{}

func (TableFormatter) Name() string { return "table" }

func (TableFormatter) FormatProjection(sc *domain.Scenario, projection []domain.YearProjection, summary domain.SimulationSummary) ([]byte, error) {
	buf := &bytes.Buffer{}
	fmt.Fprintln(buf, titleStyle.Render(fmt.Sprintf("Drawdown projection: %s", sc.Name)))
	fmt.Fprintln(buf)

	cols := []string{"Year", "Age", "Start", "Withdrawal", "Taxes", "End", "Flags"}
	widths := []int{4, 3, 15, 13, 12, 15, 0}
	writeRow(buf, headerStyle, cols, widths)
	for _, yp := range projection {
		writeRow(buf, lipgloss.NewStyle(), []string{
			fmt.Sprintf("%d", yp.YearIndex),
			fmt.Sprintf("%d", yp.Age),
			FormatCurrency(yp.PortfolioValueStart),
			FormatCurrency(yp.ActualWithdrawal),
			FormatCurrency(yp.TaxesOwed.Total),
			FormatCurrency(yp.PortfolioValueEnd),
			flagList(yp.Flags),
		}, widths)
	}
	fmt.Fprintln(buf)

	verdict := goodStyle.Render("FUNDED")
	if !summary.Success {
		verdict = badStyle.Render("DEPLETED")
	}
	fmt.Fprintf(buf, "Outcome: %s\n", verdict)
	fmt.Fprintf(buf, "Final balance:     %s\n", FormatCurrency(summary.FinalPortfolioValue))
	fmt.Fprintf(buf, "Total withdrawals: %s\n", FormatCurrency(summary.TotalWithdrawals))
	fmt.Fprintf(buf, "Total taxes paid:  %s\n", FormatCurrency(summary.TotalTaxesPaid))
	fmt.Fprintf(buf, "Effective tax rate: %s\n", FormatPercent(summary.EffectiveTaxRate))
	if summary.FirstDepletionYear != nil {
		fmt.Fprintf(buf, "Depleted in year %d (age %d)\n",
			*summary.FirstDepletionYear, sc.Parameters.RetirementAge+*summary.FirstDepletionYear)
	}
	return buf.Bytes(), nil
}

func (TableFormatter) FormatBacktest(sc *domain.Scenario, result *domain.BacktestResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	fmt.Fprintln(buf, titleStyle.Render(fmt.Sprintf("Historical backtest: %s", sc.Name)))
	fmt.Fprintln(buf, mutedStyle.Render("run "+result.RunID))
	fmt.Fprintln(buf)

	fmt.Fprintf(buf, "Start years tested: %d\n", result.StartYearsTested)
	fmt.Fprintf(buf, "Success rate:       %s\n", FormatPercent(result.SuccessRate))
	fmt.Fprintf(buf, "Worst start year:   %d (%s)\n", result.WorstStartYear, FormatCurrency(result.WorstFinalBalance))
	fmt.Fprintf(buf, "Median final:       %s\n", FormatCurrency(result.MedianFinalBalance))
	fmt.Fprintf(buf, "Best start year:    %d (%s)\n", result.BestStartYear, FormatCurrency(result.BestFinalBalance))
	if len(result.FailedStartYears) > 0 {
		years := make([]string, len(result.FailedStartYears))
		for i, y := range result.FailedStartYears {
			years[i] = fmt.Sprintf("%d", y)
		}
		fmt.Fprintf(buf, "Failed start years: %s\n", badStyle.Render(strings.Join(years, ", ")))
	}
	fmt.Fprintln(buf)

	cols := []string{"Start", "Years", "Final", "Taxes", "Outcome"}
	widths := []int{5, 5, 15, 13, 0}
	writeRow(buf, headerStyle, cols, widths)
	for _, run := range result.Runs {
		outcome := goodStyle.Render("funded")
		if !run.Summary.Success {
			outcome = badStyle.Render("depleted")
		}
		if run.Truncated {
			outcome += mutedStyle.Render(" (truncated)")
		}
		writeRow(buf, lipgloss.NewStyle(), []string{
			fmt.Sprintf("%d", run.StartYear),
			fmt.Sprintf("%d", run.YearsSimulated),
			FormatCurrency(run.Summary.FinalPortfolioValue),
			FormatCurrency(run.Summary.TotalTaxesPaid),
			outcome,
		}, widths)
	}
	return buf.Bytes(), nil
}

func (TableFormatter) FormatMonteCarlo(sc *domain.Scenario, result *domain.MonteCarloResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	fmt.Fprintln(buf, titleStyle.Render(fmt.Sprintf("Monte Carlo simulation: %s", sc.Name)))
	fmt.Fprintln(buf, mutedStyle.Render(fmt.Sprintf("run %s, seed %d", result.RunID, result.Seed)))
	fmt.Fprintln(buf)

	fmt.Fprintf(buf, "Iterations:   %d", result.Iterations)
	if result.Cancelled {
		fmt.Fprintf(buf, " %s, %d completed", badStyle.Render("(cancelled)"), result.CompletedIterations)
	}
	fmt.Fprintln(buf)
	fmt.Fprintf(buf, "Success rate: %s\n", FormatPercent(result.SuccessRate))
	fmt.Fprintf(buf, "Median final: %s\n", FormatCurrency(result.MedianFinalBalance))
	fmt.Fprintln(buf)

	cols := []string{"Year", "Age", "P10", "P25", "P50", "P75", "P90"}
	widths := []int{4, 3, 14, 14, 14, 14, 0}
	writeRow(buf, headerStyle, cols, widths)
	for _, band := range result.PercentileBands {
		writeRow(buf, lipgloss.NewStyle(), []string{
			fmt.Sprintf("%d", band.YearIndex),
			fmt.Sprintf("%d", band.Age),
			FormatCurrency(band.P10),
			FormatCurrency(band.P25),
			FormatCurrency(band.P50),
			FormatCurrency(band.P75),
			FormatCurrency(band.P90),
		}, widths)
	}
	return buf.Bytes(), nil
}

// writeRow pads each cell to its column width; the final column runs free.
func writeRow(buf *bytes.Buffer, style lipgloss.Style, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		if i < len(widths) && widths[i] > 0 {
			parts[i] = fmt.Sprintf("%*s", widths[i], cell)
		} else {
			parts[i] = cell
		}
	}
	fmt.Fprintln(buf, style.Render(strings.Join(parts, "  ")))
}

func flagList(flags []domain.ComputationFlag) string {
	if len(flags) == 0 {
		return ""
	}
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = string(f)
	}
	return mutedStyle.Render(strings.Join(parts, ","))
}
