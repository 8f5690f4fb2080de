package calculation

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// BacktestOptions tunes a historical backtest run.
type BacktestOptions struct {
	// IncludePartial admits start years too close to the end of the data
	// to cover the full horizon. Such runs simulate only the years the
	// data covers and are marked Truncated; success is judged over that
	// shortened window. The default excludes them entirely. Either way
	// the policy is explicit, never silent truncation.
	IncludePartial bool

	// Workers bounds the start-year fan-out; <= 0 means 4.
	Workers int
}

// BacktestRunner replays a scenario against every candidate start year in
// a historical return series. Start years share no mutable state, so they
// run in parallel and aggregate after the group waits.
type BacktestRunner struct {
	Engine *Engine
}

// NewBacktestRunner creates a backtest runner over an engine.
func NewBacktestRunner(engine *Engine) *BacktestRunner {
	return &BacktestRunner{Engine: engine}
}

// Run backtests the scenario across all candidate start years.
func (r *BacktestRunner) Run(ctx context.Context, sc *domain.Scenario, records []domain.HistoricalReturnRecord, allocation decimal.Decimal, opts BacktestOptions) (*domain.BacktestResult, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if err := validateAllocation(allocation); err != nil {
		return nil, err
	}
	horizon := sc.Parameters.HorizonYears()
	if len(records) == 0 {
		return nil, domain.NewConfigurationGap("historical_data", "no historical records supplied")
	}
	if !opts.IncludePartial && len(records) < horizon {
		return nil, domain.NewConfigurationGap("historical_data",
			"%d years of data cannot cover a %d-year horizon (set IncludePartial to run shortened windows)", len(records), horizon)
	}

	// Candidate start indexes: full windows always; shortened windows of
	// at least one year only when admitted.
	lastFull := len(records) - horizon
	candidates := make([]int, 0, len(records))
	for i := 0; i < len(records); i++ {
		if i <= lastFull || (opts.IncludePartial && i < len(records)) {
			candidates = append(candidates, i)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	runs := make([]domain.BacktestRun, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for slot, start := range candidates {
		slot, start := slot, start
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			run, err := r.runWindow(sc, records, start, horizon, allocation)
			if err != nil {
				return fmt.Errorf("start year %d: %w", records[start].Year, err)
			}
			runs[slot] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return aggregateBacktest(runs), nil
}

// runWindow simulates one start year. A window shorter than the horizon
// yields a truncated run summarized over the years the data covers.
func (r *BacktestRunner) runWindow(sc *domain.Scenario, records []domain.HistoricalReturnRecord, start, horizon int, allocation decimal.Decimal) (domain.BacktestRun, error) {
	available := len(records) - start
	years := horizon
	if available < years {
		years = available
	}
	source := HistoricalWindowSource{Records: records[start:], Allocation: allocation}
	projection, _, err := r.Engine.Run(sc, source)
	if err != nil {
		return domain.BacktestRun{}, err
	}
	truncated := years < horizon
	if truncated {
		projection = projection[:years]
	}
	return domain.BacktestRun{
		StartYear:      records[start].Year,
		YearsSimulated: years,
		Truncated:      truncated,
		Summary:        domain.Summarize(projection),
	}, nil
}

func aggregateBacktest(runs []domain.BacktestRun) *domain.BacktestResult {
	result := &domain.BacktestResult{
		RunID:            uuid.NewString(),
		StartYearsTested: len(runs),
		Runs:             runs,
	}

	successes := 0
	for _, run := range runs {
		if run.Summary.Success {
			successes++
		} else {
			result.FailedStartYears = append(result.FailedStartYears, run.StartYear)
		}
	}
	if len(runs) > 0 {
		result.SuccessRate = decimal.NewFromInt(int64(successes)).
			Div(decimal.NewFromInt(int64(len(runs)))).Round(6)
	}

	byBalance := append([]domain.BacktestRun(nil), runs...)
	sort.Slice(byBalance, func(i, j int) bool {
		return byBalance[i].Summary.FinalPortfolioValue.LessThan(byBalance[j].Summary.FinalPortfolioValue)
	})
	if n := len(byBalance); n > 0 {
		result.WorstFinalBalance = byBalance[0].Summary.FinalPortfolioValue
		result.WorstStartYear = byBalance[0].StartYear
		result.BestFinalBalance = byBalance[n-1].Summary.FinalPortfolioValue
		result.BestStartYear = byBalance[n-1].StartYear
		mid := n / 2
		if n%2 == 0 {
			result.MedianFinalBalance = byBalance[mid-1].Summary.FinalPortfolioValue.
				Add(byBalance[mid].Summary.FinalPortfolioValue).Div(decimal.NewFromInt(2))
		} else {
			result.MedianFinalBalance = byBalance[mid].Summary.FinalPortfolioValue
		}
	}
	return result
}

func validateAllocation(allocation decimal.Decimal) error {
	if allocation.LessThan(decimal.Zero) || allocation.GreaterThan(decimal.NewFromInt(1)) {
		return domain.NewValidationError("allocation", "stock allocation must be between 0 and 1, got %s", allocation)
	}
	return nil
}
