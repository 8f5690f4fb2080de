package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

const validScenarioYAML = `scenario:
  name: baseline
  parameters:
    current_age: 60
    retirement_age: 65
    life_expectancy: 95
    assumed_return_rate: 0.07
    assumed_inflation_rate: 0.03
    filing_status: married_filing_jointly
    state: PA
  accounts:
    - id: brokerage
      type: taxable
      balance: 600000
      cost_basis: 400000
    - id: ira
      type: tax_deferred
      balance: 350000
    - id: roth
      type: tax_free
      balance: 50000
  buckets:
    - order: 1
      start_age: 65
      end_age: 75
      target_withdrawal_rate: 0.05
    - order: 2
      start_age: 75
      target_withdrawal_rate: 0.04
simulation:
  stock_allocation: 0.7
  monte_carlo:
    iterations: 500
    seed: 42
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFileValid(t *testing.T) {
	parser := NewInputParser()
	input, err := parser.LoadFromFile(writeScenario(t, validScenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "baseline", input.Scenario.Name)
	assert.Len(t, input.Scenario.Accounts, 3)
	assert.Len(t, input.Scenario.Buckets, 2)
	assert.True(t, input.Scenario.Accounts[0].Balance.Equal(decimal.NewFromInt(600000)))
	assert.Equal(t, 500, input.Simulation.MonteCarlo.Iterations)
	assert.Equal(t, int64(42), input.Simulation.MonteCarlo.Seed)
	assert.True(t, input.Simulation.StockAllocation.Equal(decimal.NewFromFloat(0.7)))
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	yaml := `scenario:
  name: minimal
  parameters:
    current_age: 60
    retirement_age: 65
    life_expectancy: 90
    filing_status: single
    state: TX
  accounts:
    - id: brokerage
      type: taxable
      balance: 500000
      cost_basis: 500000
  buckets:
    - order: 1
      start_age: 65
      target_withdrawal_rate: 0.04
`
	parser := NewInputParser()
	input, err := parser.LoadFromFile(writeScenario(t, yaml))
	require.NoError(t, err)

	assert.Equal(t, 1000, input.Simulation.MonteCarlo.Iterations)
	assert.True(t, input.Simulation.StockAllocation.Equal(decimal.NewFromFloat(0.6)))
}

func TestLoadFromFileMissing(t *testing.T) {
	parser := NewInputParser()
	_, err := parser.LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadFromFileMalformedYAML(t *testing.T) {
	parser := NewInputParser()
	_, err := parser.LoadFromFile(writeScenario(t, "scenario: [not: a: mapping"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestValidateRejectsBucketGap(t *testing.T) {
	yaml := `scenario:
  name: gap
  parameters:
    current_age: 60
    retirement_age: 65
    life_expectancy: 95
    filing_status: single
    state: TX
  accounts:
    - id: brokerage
      type: taxable
      balance: 500000
      cost_basis: 500000
  buckets:
    - order: 1
      start_age: 65
      end_age: 74
      target_withdrawal_rate: 0.05
    - order: 2
      start_age: 75
      target_withdrawal_rate: 0.04
`
	parser := NewInputParser()
	_, err := parser.LoadFromFile(writeScenario(t, yaml))
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
}

func TestValidateRejectsUnknownStrategy(t *testing.T) {
	parser := NewInputParser()
	input, err := parser.LoadFromFile(writeScenario(t, validScenarioYAML))
	require.NoError(t, err)

	input.Scenario.Buckets[0].Strategy = "biggest_first"
	err = parser.ValidateInput(input)
	var gap *domain.ConfigurationGap
	require.True(t, errors.As(err, &gap), "got %v", err)
	assert.Contains(t, gap.Error(), "biggest_first")
}

func TestValidateAcceptsOptimizedStrategy(t *testing.T) {
	parser := NewInputParser()
	input, err := parser.LoadFromFile(writeScenario(t, validScenarioYAML))
	require.NoError(t, err)

	input.Scenario.Strategy = "optimized"
	assert.NoError(t, parser.ValidateInput(input))
}

func TestValidateRejectsCustomWithoutSplit(t *testing.T) {
	parser := NewInputParser()
	input, err := parser.LoadFromFile(writeScenario(t, validScenarioYAML))
	require.NoError(t, err)

	input.Scenario.Strategy = "custom"
	input.Scenario.CustomSplit = nil
	assert.Error(t, parser.ValidateInput(input))

	input.Scenario.CustomSplit = map[domain.AccountType]decimal.Decimal{
		domain.AccountTaxable:     decimal.NewFromFloat(0.6),
		domain.AccountTaxDeferred: decimal.NewFromFloat(0.4),
	}
	assert.NoError(t, parser.ValidateInput(input))
}

func TestValidateRejectsUnsupportedState(t *testing.T) {
	parser := NewInputParser()
	input, err := parser.LoadFromFile(writeScenario(t, validScenarioYAML))
	require.NoError(t, err)

	input.Scenario.Parameters.State = "CA"
	err = parser.ValidateInput(input)
	var gap *domain.ConfigurationGap
	require.True(t, errors.As(err, &gap), "unsupported state should be an explicit gap, got %v", err)
	assert.Contains(t, gap.Error(), "CA")
}

func TestValidateRejectsBadSimulationSettings(t *testing.T) {
	parser := NewInputParser()

	for name, mutate := range map[string]func(*Input){
		"allocation above one": func(in *Input) { in.Simulation.StockAllocation = decimal.NewFromFloat(1.3) },
		"negative iterations":  func(in *Input) { in.Simulation.MonteCarlo.Iterations = -1 },
		"negative workers":     func(in *Input) { in.Simulation.Backtest.Workers = -2 },
		"missing data file":    func(in *Input) { in.Simulation.HistoricalDataFile = "/nonexistent/returns.yaml" },
	} {
		t.Run(name, func(t *testing.T) {
			input, err := parser.LoadFromFile(writeScenario(t, validScenarioYAML))
			require.NoError(t, err)
			mutate(input)
			assert.Error(t, parser.ValidateInput(input))
		})
	}
}
