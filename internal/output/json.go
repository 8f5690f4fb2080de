package output

import (
	json "github.com/goccy/go-json"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// JSONFormatter emits machine-readable reports. Decimal fields marshal as
// strings, so downstream consumers keep exact values.
type JSONFormatter struct{}

func (JSONFormatter) Name() string { return "json" }

type projectionReport struct {
	Scenario   string                   `json:"scenario"`
	Projection []domain.YearProjection  `json:"projection"`
	Summary    domain.SimulationSummary `json:"summary"`
}

func (JSONFormatter) FormatProjection(sc *domain.Scenario, projection []domain.YearProjection, summary domain.SimulationSummary) ([]byte, error) {
	return json.MarshalIndent(projectionReport{
		Scenario:   sc.Name,
		Projection: projection,
		Summary:    summary,
	}, "", "  ")
}

type backtestReport struct {
	Scenario string                 `json:"scenario"`
	Result   *domain.BacktestResult `json:"result"`
}

func (JSONFormatter) FormatBacktest(sc *domain.Scenario, result *domain.BacktestResult) ([]byte, error) {
	return json.MarshalIndent(backtestReport{Scenario: sc.Name, Result: result}, "", "  ")
}

type monteCarloReport struct {
	Scenario string                   `json:"scenario"`
	Result   *domain.MonteCarloResult `json:"result"`
}

func (JSONFormatter) FormatMonteCarlo(sc *domain.Scenario, result *domain.MonteCarloResult) ([]byte, error) {
	return json.MarshalIndent(monteCarloReport{Scenario: sc.Name, Result: result}, "", "  ")
}
