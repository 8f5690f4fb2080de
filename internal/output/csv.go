package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// CSVFormatter emits one row per projection year, backtest window, or
// Monte Carlo band, ready for a spreadsheet.
type CSVFormatter struct{}

func (CSVFormatter) Name() string { return "csv" }

func (CSVFormatter) FormatProjection(_ *domain.Scenario, projection []domain.YearProjection, _ domain.SimulationSummary) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{
		"year_index", "age", "portfolio_start", "target_withdrawal", "actual_withdrawal",
		"income_total", "federal_tax", "state_tax", "total_tax",
		"portfolio_growth", "portfolio_end", "flags",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, yp := range projection {
		row := []string{
			strconv.Itoa(yp.YearIndex),
			strconv.Itoa(yp.Age),
			yp.PortfolioValueStart.StringFixed(2),
			yp.TargetWithdrawal.StringFixed(2),
			yp.ActualWithdrawal.StringFixed(2),
			yp.IncomeTotal.StringFixed(2),
			yp.TaxesOwed.FederalOrdinary.Add(yp.TaxesOwed.CapitalGains).StringFixed(2),
			yp.TaxesOwed.State.StringFixed(2),
			yp.TaxesOwed.Total.StringFixed(2),
			yp.PortfolioGrowth.StringFixed(2),
			yp.PortfolioValueEnd.StringFixed(2),
			flagString(yp.Flags),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (CSVFormatter) FormatBacktest(_ *domain.Scenario, result *domain.BacktestResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"start_year", "years_simulated", "truncated", "success", "final_balance", "total_taxes"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, run := range result.Runs {
		row := []string{
			strconv.Itoa(run.StartYear),
			strconv.Itoa(run.YearsSimulated),
			strconv.FormatBool(run.Truncated),
			strconv.FormatBool(run.Summary.Success),
			run.Summary.FinalPortfolioValue.StringFixed(2),
			run.Summary.TotalTaxesPaid.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (CSVFormatter) FormatMonteCarlo(_ *domain.Scenario, result *domain.MonteCarloResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"year_index", "age", "p10", "p25", "p50", "p75", "p90"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, band := range result.PercentileBands {
		row := []string{
			strconv.Itoa(band.YearIndex),
			strconv.Itoa(band.Age),
			band.P10.StringFixed(2),
			band.P25.StringFixed(2),
			band.P50.StringFixed(2),
			band.P75.StringFixed(2),
			band.P90.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func flagString(flags []domain.ComputationFlag) string {
	out := ""
	for i, f := range flags {
		if i > 0 {
			out += ";"
		}
		out += string(f)
	}
	return out
}
