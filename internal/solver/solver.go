package solver

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/calculation"
	"github.com/rgehrsitz/drawdown/internal/domain"
)

// Solver searches withdrawal-rate space against historical backtests.
type Solver struct {
	Backtests *calculation.BacktestRunner
	Options   Options
}

// NewSolver creates a solver over a backtest runner.
func NewSolver(backtests *calculation.BacktestRunner, options Options) *Solver {
	return &Solver{Backtests: backtests, Options: options}
}

// NewDefaultSolver creates a solver with default options.
func NewDefaultSolver(backtests *calculation.BacktestRunner) *Solver {
	return NewSolver(backtests, DefaultOptions())
}

// SolveWithdrawalRate bisects the first bucket's withdrawal rate for the
// highest value whose backtest success rate still meets the target.
// Success rate is monotone non-increasing in the rate, which is what makes
// bisection valid here.
func (s *Solver) SolveWithdrawalRate(ctx context.Context, req RateRequest) (*RateResult, error) {
	if err := req.Scenario.Validate(); err != nil {
		return nil, err
	}
	applyDefaults(&req)
	if req.MinRate.GreaterThanOrEqual(req.MaxRate) {
		return nil, &SolverError{
			Operation: "solve_withdrawal_rate",
			Message:   fmt.Sprintf("min rate %s must be below max rate %s", req.MinRate, req.MaxRate),
		}
	}

	// The floor of the search range must itself be sustainable, otherwise
	// there is nothing to solve.
	lo, hi := req.MinRate, req.MaxRate
	floor, err := s.evaluate(ctx, req, lo)
	if err != nil {
		return nil, err
	}
	if floor.SuccessRate.LessThan(req.TargetSuccessRate) {
		return nil, &SolverError{
			Operation: "solve_withdrawal_rate",
			Message: fmt.Sprintf("even the minimum rate %s only reaches %s success against a %s target",
				lo, floor.SuccessRate, req.TargetSuccessRate),
		}
	}

	best := &RateResult{OptimalRate: lo, SuccessRate: floor.SuccessRate, Backtest: floor}
	iterations := 0
	for iterations < s.Options.MaxIterations {
		iterations++
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		mid := lo.Add(hi).Div(decimal.NewFromInt(2))
		result, err := s.evaluate(ctx, req, mid)
		if err != nil {
			return nil, err
		}

		if result.SuccessRate.GreaterThanOrEqual(req.TargetSuccessRate) {
			lo = mid
			best = &RateResult{OptimalRate: mid, SuccessRate: result.SuccessRate, Backtest: result}
		} else {
			hi = mid
		}

		if hi.Sub(lo).LessThan(s.Options.Tolerance) {
			best.Iterations = iterations
			best.Converged = true
			best.OptimalRate = best.OptimalRate.Round(4)
			return best, nil
		}
	}

	best.Iterations = iterations
	best.OptimalRate = best.OptimalRate.Round(4)
	return best, nil
}

func (s *Solver) evaluate(ctx context.Context, req RateRequest, rate decimal.Decimal) (*domain.BacktestResult, error) {
	run := *req.Scenario
	run.Buckets = append([]domain.WithdrawalBucket(nil), req.Scenario.Buckets...)
	run.Buckets[0].TargetWithdrawalRate = rate
	run.Buckets[0].ManualOverride = nil

	result, err := s.Backtests.Run(ctx, &run, req.Records, req.Allocation, req.Backtest)
	if err != nil {
		return nil, &SolverError{
			Operation: "solve_withdrawal_rate",
			Message:   fmt.Sprintf("backtest at rate %s failed", rate),
			Cause:     err,
		}
	}
	return result, nil
}

func applyDefaults(req *RateRequest) {
	if req.TargetSuccessRate.IsZero() {
		req.TargetSuccessRate = decimal.NewFromFloat(0.95)
	}
	if req.MinRate.IsZero() {
		req.MinRate = decimal.NewFromFloat(0.01)
	}
	if req.MaxRate.IsZero() {
		req.MaxRate = decimal.NewFromFloat(0.15)
	}
}
