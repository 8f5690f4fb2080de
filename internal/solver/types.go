package solver

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/calculation"
	"github.com/rgehrsitz/drawdown/internal/domain"
)

// Options configures the solver algorithm.
type Options struct {
	// Tolerance is the rate-interval width at which bisection stops.
	Tolerance     decimal.Decimal
	MaxIterations int
}

// DefaultOptions returns the default solver configuration.
func DefaultOptions() Options {
	return Options{
		Tolerance:     decimal.NewFromFloat(0.0001),
		MaxIterations: 50,
	}
}

// RateRequest asks for the highest first-bucket withdrawal rate whose
// historical backtest still meets a success-rate target.
type RateRequest struct {
	Scenario   *domain.Scenario
	Records    []domain.HistoricalReturnRecord
	Allocation decimal.Decimal

	// TargetSuccessRate defaults to 0.95.
	TargetSuccessRate decimal.Decimal

	// Rate search bounds; default to [0.01, 0.15].
	MinRate decimal.Decimal
	MaxRate decimal.Decimal

	Backtest calculation.BacktestOptions
}

// RateResult reports the solved rate and the backtest behind it.
type RateResult struct {
	OptimalRate decimal.Decimal        `json:"optimal_rate"`
	SuccessRate decimal.Decimal        `json:"success_rate"`
	Iterations  int                    `json:"iterations"`
	Converged   bool                   `json:"converged"`
	Backtest    *domain.BacktestResult `json:"backtest"`
}

// SolverError wraps failures with the solver operation that produced them.
type SolverError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *SolverError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *SolverError) Unwrap() error {
	return e.Cause
}
