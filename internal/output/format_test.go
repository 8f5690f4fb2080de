package output

import (
	"encoding/csv"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

func sampleProjection() (*domain.Scenario, []domain.YearProjection, domain.SimulationSummary) {
	sc := &domain.Scenario{
		Name: "sample",
		Parameters: domain.RetirementParameters{
			RetirementAge:  65,
			LifeExpectancy: 67,
		},
	}
	projection := []domain.YearProjection{
		{
			YearIndex:           0,
			Age:                 65,
			PortfolioValueStart: decimal.NewFromInt(1000000),
			TargetWithdrawal:    decimal.NewFromInt(40000),
			ActualWithdrawal:    decimal.NewFromInt(40000),
			TaxesOwed:           domain.TaxBreakdown{Total: decimal.NewFromInt(3200)},
			PortfolioValueEnd:   decimal.NewFromInt(1027200),
		},
		{
			YearIndex:           1,
			Age:                 66,
			PortfolioValueStart: decimal.NewFromInt(1027200),
			ActualWithdrawal:    decimal.NewFromInt(41200),
			PortfolioValueEnd:   decimal.NewFromInt(1055020),
			Flags:               []domain.ComputationFlag{domain.FlagRMDForced},
		},
	}
	return sc, projection, domain.Summarize(projection)
}

func TestNewFormatterDispatch(t *testing.T) {
	for name, want := range map[string]string{
		"":      "table",
		"table": "table",
		"CSV":   "csv",
		"json":  "json",
	} {
		f, err := NewFormatter(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, f.Name())
	}

	_, err := NewFormatter("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.Zero, "$0.00"},
		{decimal.NewFromInt(950), "$950.00"},
		{decimal.NewFromFloat(1027200.5), "$1,027,200.50"},
		{decimal.NewFromInt(-40000), "-$40,000.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(tt.in))
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "95.0%", FormatPercent(decimal.NewFromFloat(0.95)))
	assert.Equal(t, "4.2%", FormatPercent(decimal.NewFromFloat(0.042)))
}

func TestTableProjectionOutput(t *testing.T) {
	sc, projection, summary := sampleProjection()
	out, err := TableFormatter{}.FormatProjection(sc, projection, summary)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "sample")
	assert.Contains(t, text, "$1,027,200.00")
	assert.Contains(t, text, "rmd_forced")
	assert.Contains(t, text, "FUNDED")
}

func TestCSVProjectionOutput(t *testing.T) {
	sc, projection, summary := sampleProjection()
	out, err := CSVFormatter{}.FormatProjection(sc, projection, summary)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "year_index", rows[0][0])
	assert.Equal(t, "1027200.00", rows[1][10])
	assert.Equal(t, "rmd_forced", rows[2][11])
}

func TestJSONProjectionRoundTrips(t *testing.T) {
	sc, projection, summary := sampleProjection()
	out, err := JSONFormatter{}.FormatProjection(sc, projection, summary)
	require.NoError(t, err)

	var decoded struct {
		Scenario   string                  `json:"scenario"`
		Projection []domain.YearProjection `json:"projection"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "sample", decoded.Scenario)
	require.Len(t, decoded.Projection, 2)
	assert.True(t, decoded.Projection[0].PortfolioValueEnd.Equal(decimal.NewFromInt(1027200)))
}

func TestBacktestFormatters(t *testing.T) {
	sc, _, _ := sampleProjection()
	result := &domain.BacktestResult{
		RunID:            "run-1",
		StartYearsTested: 2,
		SuccessRate:      decimal.NewFromFloat(0.5),
		WorstStartYear:   1929,
		BestStartYear:    1982,
		FailedStartYears: []int{1929},
		Runs: []domain.BacktestRun{
			{StartYear: 1929, YearsSimulated: 30, Summary: domain.SimulationSummary{}},
			{StartYear: 1982, YearsSimulated: 30, Summary: domain.SimulationSummary{Success: true, FinalPortfolioValue: decimal.NewFromInt(2500000)}},
		},
	}

	table, err := TableFormatter{}.FormatBacktest(sc, result)
	require.NoError(t, err)
	assert.Contains(t, string(table), "50.0%")
	assert.Contains(t, string(table), "1929")

	csvOut, err := CSVFormatter{}.FormatBacktest(sc, result)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(csvOut))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "false", rows[1][3])
	assert.Equal(t, "true", rows[2][3])
}

func TestMonteCarloFormatters(t *testing.T) {
	sc, _, _ := sampleProjection()
	result := &domain.MonteCarloResult{
		RunID:               "run-2",
		Seed:                42,
		Iterations:          1000,
		CompletedIterations: 1000,
		SuccessRate:         decimal.NewFromFloat(0.934),
		MedianFinalBalance:  decimal.NewFromInt(1400000),
		PercentileBands: []domain.YearPercentiles{
			{YearIndex: 0, Age: 65, P10: decimal.NewFromInt(900000), P25: decimal.NewFromInt(950000), P50: decimal.NewFromInt(1000000), P75: decimal.NewFromInt(1050000), P90: decimal.NewFromInt(1100000)},
		},
	}

	table, err := TableFormatter{}.FormatMonteCarlo(sc, result)
	require.NoError(t, err)
	assert.Contains(t, string(table), "93.4%")
	assert.Contains(t, string(table), "seed 42")

	csvOut, err := CSVFormatter{}.FormatMonteCarlo(sc, result)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(csvOut))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1000000.00", rows[1][4])
}
