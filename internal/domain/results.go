package domain

import "github.com/shopspring/decimal"

// BacktestRun records one historical start year's outcome.
type BacktestRun struct {
	StartYear      int               `json:"start_year"`
	YearsSimulated int               `json:"years_simulated"`
	Truncated      bool              `json:"truncated,omitempty"`
	Summary        SimulationSummary `json:"summary"`
}

// BacktestResult aggregates a historical backtest across start years.
type BacktestResult struct {
	RunID            string          `json:"run_id"`
	StartYearsTested int             `json:"start_years_tested"`
	SuccessRate      decimal.Decimal `json:"success_rate"`

	BestFinalBalance   decimal.Decimal `json:"best_final_balance"`
	BestStartYear      int             `json:"best_start_year"`
	MedianFinalBalance decimal.Decimal `json:"median_final_balance"`
	WorstFinalBalance  decimal.Decimal `json:"worst_final_balance"`
	WorstStartYear     int             `json:"worst_start_year"`

	FailedStartYears []int         `json:"failed_start_years,omitempty"`
	Runs             []BacktestRun `json:"runs"`
}

// YearPercentiles is one simulated year's portfolio-value confidence band
// across Monte Carlo iterations.
type YearPercentiles struct {
	YearIndex int             `json:"year_index"`
	Age       int             `json:"age"`
	P10       decimal.Decimal `json:"p10"`
	P25       decimal.Decimal `json:"p25"`
	P50       decimal.Decimal `json:"p50"`
	P75       decimal.Decimal `json:"p75"`
	P90       decimal.Decimal `json:"p90"`
}

// MonteCarloResult aggregates a Monte Carlo run. A cancelled run is still a
// valid result over the iterations that completed; Cancelled and
// CompletedIterations label it as partial.
type MonteCarloResult struct {
	RunID               string            `json:"run_id"`
	Seed                int64             `json:"seed"`
	Iterations          int               `json:"iterations"`
	CompletedIterations int               `json:"completed_iterations"`
	Cancelled           bool              `json:"cancelled,omitempty"`
	SuccessRate         decimal.Decimal   `json:"success_rate"`
	MedianFinalBalance  decimal.Decimal   `json:"median_final_balance"`
	PercentileBands     []YearPercentiles `json:"percentile_bands"`
}
