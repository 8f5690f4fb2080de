package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rgehrsitz/drawdown/internal/calculation"
	"github.com/rgehrsitz/drawdown/internal/domain"
	"github.com/rgehrsitz/drawdown/internal/sequencing"
)

// SimulationSettings carries the optional run controls that live alongside
// the scenario in an input file. Flags on the command line override them.
type SimulationSettings struct {
	StockAllocation decimal.Decimal `yaml:"stock_allocation,omitempty" json:"stock_allocation,omitempty"`

	MonteCarlo MonteCarloSettings `yaml:"monte_carlo,omitempty" json:"monte_carlo,omitempty"`
	Backtest   BacktestSettings   `yaml:"backtest,omitempty" json:"backtest,omitempty"`

	// HistoricalDataFile points at an external returns series. Empty means
	// the bundled dataset.
	HistoricalDataFile string `yaml:"historical_data_file,omitempty" json:"historical_data_file,omitempty"`
}

// MonteCarloSettings configures the stochastic runner.
type MonteCarloSettings struct {
	Iterations int   `yaml:"iterations,omitempty" json:"iterations,omitempty"`
	Seed       int64 `yaml:"seed,omitempty" json:"seed,omitempty"`
	Workers    int   `yaml:"workers,omitempty" json:"workers,omitempty"`
	Bootstrap  bool  `yaml:"bootstrap,omitempty" json:"bootstrap,omitempty"`
}

// BacktestSettings configures the historical runner.
type BacktestSettings struct {
	IncludePartial bool `yaml:"include_partial,omitempty" json:"include_partial,omitempty"`
	Workers        int  `yaml:"workers,omitempty" json:"workers,omitempty"`
}

// Input is the root of a scenario file.
type Input struct {
	Scenario   domain.Scenario    `yaml:"scenario" json:"scenario"`
	Simulation SimulationSettings `yaml:"simulation,omitempty" json:"simulation,omitempty"`
}

// InputParser handles parsing of input configuration files.
type InputParser struct {
	taxes *calculation.TaxCalculator
}

// NewInputParser creates a new input parser.
func NewInputParser() *InputParser {
	return &InputParser{taxes: calculation.NewTaxCalculator()}
}

// LoadFromFile loads and validates a scenario file from YAML.
func (ip *InputParser) LoadFromFile(filename string) (*Input, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var input Input
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidateInput(&input); err != nil {
		return nil, err
	}
	input.applyDefaults()
	return &input, nil
}

// ValidateInput validates the loaded input: scenario data invariants first,
// then strategy-name resolution, then tax-support checks, then run settings.
// Validation is fail-fast; the engine never papers over a bad file.
func (ip *InputParser) ValidateInput(input *Input) error {
	if err := input.Scenario.Validate(); err != nil {
		return err
	}
	if err := ip.validateStrategies(&input.Scenario); err != nil {
		return err
	}
	if err := ip.validateTaxSupport(&input.Scenario); err != nil {
		return err
	}
	return ip.validateSimulation(&input.Simulation)
}

// validateStrategies resolves every strategy name the scenario references,
// so an unknown name fails at load time rather than mid-run. Optimized is
// legal here: the engine expands it itself.
func (ip *InputParser) validateStrategies(sc *domain.Scenario) error {
	check := func(name string, split map[domain.AccountType]decimal.Decimal) error {
		if name == sequencing.StrategyOptimized {
			return nil
		}
		_, err := sequencing.NewStrategy(name, split)
		return err
	}

	if err := check(sc.Strategy, sc.CustomSplit); err != nil {
		return err
	}
	for i := range sc.Buckets {
		b := &sc.Buckets[i]
		if len(b.WithdrawalOrder) > 0 {
			continue
		}
		split := b.CustomSplit
		if len(split) == 0 {
			split = sc.CustomSplit
		}
		if err := check(b.EffectiveStrategy(sc.Strategy), split); err != nil {
			return fmt.Errorf("bucket %d: %w", b.Order, err)
		}
	}
	return nil
}

// validateTaxSupport rejects states without an implemented calculator.
func (ip *InputParser) validateTaxSupport(sc *domain.Scenario) error {
	if !ip.taxes.SupportsState(sc.Parameters.State) {
		return domain.NewConfigurationGap("state", "no tax model for state %q (supported: %v)", sc.Parameters.State, ip.taxes.States.Supported())
	}
	return nil
}

func (ip *InputParser) validateSimulation(s *SimulationSettings) error {
	if s.StockAllocation.IsNegative() || s.StockAllocation.GreaterThan(decimal.NewFromInt(1)) {
		return domain.NewValidationError("stock_allocation", "must be between 0 and 1, got %s", s.StockAllocation)
	}
	if s.MonteCarlo.Iterations < 0 {
		return domain.NewValidationError("monte_carlo.iterations", "must not be negative, got %d", s.MonteCarlo.Iterations)
	}
	if s.MonteCarlo.Workers < 0 {
		return domain.NewValidationError("monte_carlo.workers", "must not be negative, got %d", s.MonteCarlo.Workers)
	}
	if s.Backtest.Workers < 0 {
		return domain.NewValidationError("backtest.workers", "must not be negative, got %d", s.Backtest.Workers)
	}
	if s.HistoricalDataFile != "" {
		if _, err := os.Stat(s.HistoricalDataFile); err != nil {
			return fmt.Errorf("historical data file: %w", err)
		}
	}
	return nil
}

func (in *Input) applyDefaults() {
	if in.Simulation.StockAllocation.IsZero() {
		in.Simulation.StockAllocation = decimal.NewFromFloat(0.6)
	}
	if in.Simulation.MonteCarlo.Iterations == 0 {
		in.Simulation.MonteCarlo.Iterations = 1000
	}
}
