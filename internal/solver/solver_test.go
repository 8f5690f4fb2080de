package solver

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgehrsitz/drawdown/internal/calculation"
	"github.com/rgehrsitz/drawdown/internal/domain"
)

func solverScenario() *domain.Scenario {
	return &domain.Scenario{
		Name: "rate-search",
		Parameters: domain.RetirementParameters{
			CurrentAge:     60,
			RetirementAge:  65,
			LifeExpectancy: 80,
			FilingStatus:   domain.FilingSingle,
			State:          "TX",
		},
		Accounts: []domain.Account{
			{ID: "brokerage", Type: domain.AccountTaxable, Balance: decimal.NewFromInt(1000000), CostBasis: decimal.NewFromInt(1000000)},
		},
		Buckets: []domain.WithdrawalBucket{
			{Order: 1, StartAge: 65, TargetWithdrawalRate: decimal.NewFromFloat(0.04)},
		},
	}
}

// steadyRecords yields identical flat years, so every start window behaves
// the same and the solved rate is easy to reason about.
func steadyRecords(firstYear, count int) []domain.HistoricalReturnRecord {
	records := make([]domain.HistoricalReturnRecord, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, domain.HistoricalReturnRecord{
			Year:        firstYear + i,
			StockReturn: decimal.NewFromFloat(0.05),
			BondReturn:  decimal.NewFromFloat(0.05),
			Inflation:   decimal.Zero,
		})
	}
	return records
}

func newTestSolver() *Solver {
	return NewDefaultSolver(calculation.NewBacktestRunner(calculation.NewEngine()))
}

func TestSolveWithdrawalRateConverges(t *testing.T) {
	s := newTestSolver()
	result, err := s.SolveWithdrawalRate(context.Background(), RateRequest{
		Scenario:   solverScenario(),
		Records:    steadyRecords(1980, 30),
		Allocation: decimal.NewFromFloat(0.6),
	})
	require.NoError(t, err)

	assert.True(t, result.Converged)
	assert.Positive(t, result.Iterations)
	// Rate-based withdrawals never empty the portfolio, so every rate in
	// the bracket sustains and bisection pushes to the ceiling.
	assert.True(t, result.OptimalRate.GreaterThan(decimal.NewFromFloat(0.14)),
		"got %s", result.OptimalRate)
	assert.True(t, result.SuccessRate.GreaterThanOrEqual(decimal.NewFromFloat(0.95)))
	require.NotNil(t, result.Backtest)
}

func TestSolveRespectsRateCeiling(t *testing.T) {
	s := newTestSolver()
	result, err := s.SolveWithdrawalRate(context.Background(), RateRequest{
		Scenario:   solverScenario(),
		Records:    steadyRecords(1980, 30),
		Allocation: decimal.NewFromFloat(0.6),
		MinRate:    decimal.NewFromFloat(0.03),
		MaxRate:    decimal.NewFromFloat(0.05),
	})
	require.NoError(t, err)

	assert.True(t, result.OptimalRate.GreaterThanOrEqual(decimal.NewFromFloat(0.03)))
	assert.True(t, result.OptimalRate.LessThanOrEqual(decimal.NewFromFloat(0.05)))
}

func TestSolveInfeasibleFloor(t *testing.T) {
	sc := solverScenario()
	// Force failure at any rate: a fixed draw far beyond the portfolio.
	override := decimal.NewFromInt(500000)
	sc.Buckets[0].ManualOverride = &override
	sc.Buckets = append(sc.Buckets, domain.WithdrawalBucket{
		Order: 2, StartAge: 70, ManualOverride: &override,
	})
	sc.Buckets[0].EndAge = 70

	s := newTestSolver()
	_, err := s.SolveWithdrawalRate(context.Background(), RateRequest{
		Scenario:   sc,
		Records:    steadyRecords(1980, 30),
		Allocation: decimal.NewFromFloat(0.6),
	})
	var serr *SolverError
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.Contains(t, serr.Error(), "minimum rate")
}

func TestSolveRejectsInvertedBounds(t *testing.T) {
	s := newTestSolver()
	_, err := s.SolveWithdrawalRate(context.Background(), RateRequest{
		Scenario:   solverScenario(),
		Records:    steadyRecords(1980, 30),
		Allocation: decimal.NewFromFloat(0.6),
		MinRate:    decimal.NewFromFloat(0.10),
		MaxRate:    decimal.NewFromFloat(0.05),
	})
	var serr *SolverError
	require.True(t, errors.As(err, &serr))
}

func TestSolveCancelledContext(t *testing.T) {
	s := newTestSolver()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SolveWithdrawalRate(ctx, RateRequest{
		Scenario:   solverScenario(),
		Records:    steadyRecords(1980, 30),
		Allocation: decimal.NewFromFloat(0.6),
	})
	require.Error(t, err)
}

func TestSolveDoesNotMutateScenario(t *testing.T) {
	sc := solverScenario()
	s := newTestSolver()
	_, err := s.SolveWithdrawalRate(context.Background(), RateRequest{
		Scenario:   sc,
		Records:    steadyRecords(1980, 30),
		Allocation: decimal.NewFromFloat(0.6),
	})
	require.NoError(t, err)
	assert.True(t, sc.Buckets[0].TargetWithdrawalRate.Equal(decimal.NewFromFloat(0.04)))
}
