package calculation

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// DistributionConfig describes the per-asset return distributions a Monte
// Carlo run draws from, blended by stock allocation.
type DistributionConfig struct {
	StockMean       decimal.Decimal
	StockStdDev     decimal.Decimal
	BondMean        decimal.Decimal
	BondStdDev      decimal.Decimal
	InflationMean   decimal.Decimal
	InflationStdDev decimal.Decimal
	StockAllocation decimal.Decimal
}

// DefaultDistribution reflects long-run US market behavior: stocks 10%/17%,
// bonds 5%/8%, inflation 3%/2%.
func DefaultDistribution(stockAllocation decimal.Decimal) DistributionConfig {
	f := decimal.NewFromFloat
	return DistributionConfig{
		StockMean:       f(0.10),
		StockStdDev:     f(0.17),
		BondMean:        f(0.05),
		BondStdDev:      f(0.08),
		InflationMean:   f(0.03),
		InflationStdDev: f(0.02),
		StockAllocation: stockAllocation,
	}
}

// MonteCarloConfig configures one Monte Carlo run.
type MonteCarloConfig struct {
	Iterations   int
	Seed         int64 // 0 draws a seed from the clock; the result records it
	Workers      int   // <= 0 means 4
	Distribution DistributionConfig

	// Bootstrap resamples whole historical years instead of drawing from
	// the normal distributions; it requires Records.
	Bootstrap bool
	Records   []domain.HistoricalReturnRecord

	// Progress, when set, is called after each completed iteration with
	// (completed, total). Keep it cheap; workers call it concurrently.
	Progress func(completed, total int)
}

// Validate rejects malformed Monte Carlo configuration before any work
// begins.
func (cfg *MonteCarloConfig) Validate() error {
	if cfg.Iterations <= 0 {
		return domain.NewValidationError("iterations", "must be positive, got %d", cfg.Iterations)
	}
	if err := validateAllocation(cfg.Distribution.StockAllocation); err != nil {
		return err
	}
	for _, sd := range []struct {
		name string
		v    decimal.Decimal
	}{
		{"stock_stddev", cfg.Distribution.StockStdDev},
		{"bond_stddev", cfg.Distribution.BondStdDev},
		{"inflation_stddev", cfg.Distribution.InflationStdDev},
	} {
		if sd.v.LessThan(decimal.Zero) {
			return domain.NewValidationError(sd.name, "must not be negative, got %s", sd.v)
		}
	}
	if cfg.Bootstrap && len(cfg.Records) == 0 {
		return domain.NewConfigurationGap("bootstrap", "bootstrap resampling requires historical records")
	}
	return nil
}

// MonteCarloRunner fans a scenario out across randomized return sequences
// and aggregates the outcomes into percentile bands.
type MonteCarloRunner struct {
	Engine *Engine
}

// NewMonteCarloRunner creates a Monte Carlo runner over an engine.
func NewMonteCarloRunner(engine *Engine) *MonteCarloRunner {
	return &MonteCarloRunner{Engine: engine}
}

// mcOutcome is one iteration's contribution to the aggregate.
type mcOutcome struct {
	success bool
	final   decimal.Decimal
	byYear  []decimal.Decimal // portfolio value at each year end
}

// Run executes the configured iterations over a bounded worker pool.
// Iteration i seeds its own generator with cfg.Seed + i, so a top-level
// seed reproduces every iteration and draws are independent across
// iterations. Cancelling the context stops dispatching further iterations;
// the ones already finished still aggregate into a result labeled partial.
func (r *MonteCarloRunner) Run(ctx context.Context, sc *domain.Scenario, cfg MonteCarloConfig) (*domain.MonteCarloResult, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	horizon := sc.Parameters.HorizonYears()
	outcomes := make([]*mcOutcome, cfg.Iterations)
	jobs := make(chan int)
	var wg sync.WaitGroup
	var completed atomic.Int64

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcome, err := r.runIteration(sc, cfg, seed+int64(i), horizon)
				if err != nil {
					// Scenario and config were validated up front; a
					// failure here would be a programming error, so the
					// iteration just drops out of the aggregate.
					continue
				}
				outcomes[i] = outcome
				done := completed.Add(1)
				if cfg.Progress != nil {
					cfg.Progress(int(done), cfg.Iterations)
				}
			}
		}()
	}

	cancelled := false
dispatch:
	for i := 0; i < cfg.Iterations; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			cancelled = true
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	result := aggregateMonteCarlo(sc, outcomes)
	result.Seed = seed
	result.Iterations = cfg.Iterations
	result.Cancelled = cancelled
	return result, nil
}

func (r *MonteCarloRunner) runIteration(sc *domain.Scenario, cfg MonteCarloConfig, seed int64, horizon int) (*mcOutcome, error) {
	rng := rand.New(rand.NewSource(seed))
	var years []YearReturn
	if cfg.Bootstrap {
		years = DrawBootstrapSequence(rng, horizon, cfg.Records, cfg.Distribution.StockAllocation)
	} else {
		years = DrawNormalSequence(rng, horizon, cfg.Distribution)
	}

	projection, summary, err := r.Engine.Run(sc, SequenceSource{Years: years})
	if err != nil {
		return nil, err
	}
	byYear := make([]decimal.Decimal, len(projection))
	for i := range projection {
		byYear[i] = projection[i].PortfolioValueEnd
	}
	return &mcOutcome{
		success: summary.Success,
		final:   summary.FinalPortfolioValue,
		byYear:  byYear,
	}, nil
}

func aggregateMonteCarlo(sc *domain.Scenario, outcomes []*mcOutcome) *domain.MonteCarloResult {
	result := &domain.MonteCarloResult{RunID: uuid.NewString()}

	finished := make([]*mcOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o != nil {
			finished = append(finished, o)
		}
	}
	result.CompletedIterations = len(finished)
	if len(finished) == 0 {
		return result
	}

	successes := 0
	finals := make([]decimal.Decimal, len(finished))
	for i, o := range finished {
		if o.success {
			successes++
		}
		finals[i] = o.final
	}
	result.SuccessRate = decimal.NewFromInt(int64(successes)).
		Div(decimal.NewFromInt(int64(len(finished)))).Round(6)
	result.MedianFinalBalance = percentileOf(finals, 0.5)

	horizon := len(finished[0].byYear)
	result.PercentileBands = make([]domain.YearPercentiles, horizon)
	values := make([]decimal.Decimal, len(finished))
	for year := 0; year < horizon; year++ {
		for i, o := range finished {
			values[i] = o.byYear[year]
		}
		sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })
		result.PercentileBands[year] = domain.YearPercentiles{
			YearIndex: year,
			Age:       sc.Parameters.RetirementAge + year,
			P10:       percentileOfSorted(values, 0.10),
			P25:       percentileOfSorted(values, 0.25),
			P50:       percentileOfSorted(values, 0.50),
			P75:       percentileOfSorted(values, 0.75),
			P90:       percentileOfSorted(values, 0.90),
		}
	}
	return result
}

// percentileOf sorts a copy and interpolates the requested percentile.
func percentileOf(values []decimal.Decimal, p float64) decimal.Decimal {
	sorted := append([]decimal.Decimal(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	return percentileOfSorted(sorted, p)
}

// percentileOfSorted linearly interpolates between the neighboring ranks.
func percentileOfSorted(sorted []decimal.Decimal, p float64) decimal.Decimal {
	if len(sorted) == 0 {
		return decimal.Zero
	}
	index := p * float64(len(sorted)-1)
	lower := int(index)
	if float64(lower) == index || lower+1 >= len(sorted) {
		return sorted[lower]
	}
	fraction := decimal.NewFromFloat(index - float64(lower))
	return sorted[lower].Add(sorted[lower+1].Sub(sorted[lower]).Mul(fraction))
}
