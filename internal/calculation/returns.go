package calculation

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

// YearReturn carries the market inputs for one simulated year: the blended
// portfolio return applied after the withdrawal, and the inflation rate
// that scales the following year's withdrawal targets.
type YearReturn struct {
	Return    decimal.Decimal
	Inflation decimal.Decimal
}

// ReturnSource supplies market conditions by simulation-year index. The
// engine is agnostic to where they come from: a constant assumption, a
// historical window, or a random draw. Implementations must be pure indexed
// lookups so a run can be replayed (the optimized strategy re-simulates the
// horizon per candidate ordering) and shared across goroutines.
type ReturnSource interface {
	ReturnFor(yearIndex int) YearReturn
}

// ConstantReturnSource yields the same return and inflation every year.
// This is the deterministic mode.
type ConstantReturnSource struct {
	AnnualReturn decimal.Decimal
	Inflation    decimal.Decimal
}

func (s ConstantReturnSource) ReturnFor(int) YearReturn {
	return YearReturn{Return: s.AnnualReturn, Inflation: s.Inflation}
}

// HistoricalWindowSource replays a sequential slice of market history,
// blending each year's stock and bond returns by stock allocation. Indexes
// past the window clamp to the final record; the backtest runner marks such
// runs truncated rather than letting this happen silently.
type HistoricalWindowSource struct {
	Records    []domain.HistoricalReturnRecord
	Allocation decimal.Decimal
}

func (s HistoricalWindowSource) ReturnFor(yearIndex int) YearReturn {
	if len(s.Records) == 0 {
		return YearReturn{}
	}
	if yearIndex >= len(s.Records) {
		yearIndex = len(s.Records) - 1
	}
	rec := s.Records[yearIndex]
	return YearReturn{
		Return:    rec.BlendedReturn(s.Allocation),
		Inflation: rec.Inflation,
	}
}

// SequenceSource replays a pre-drawn sequence. Monte Carlo iterations
// materialize their random draws up front so the source stays a pure
// indexed lookup.
type SequenceSource struct {
	Years []YearReturn
}

func (s SequenceSource) ReturnFor(yearIndex int) YearReturn {
	if yearIndex >= len(s.Years) {
		yearIndex = len(s.Years) - 1
	}
	return s.Years[yearIndex]
}

// DrawNormalSequence materializes one iteration's returns from independent
// normal draws per asset class, blended by stock allocation. Returns below
// -95% are floored; a single year cannot lose more than the portfolio.
func DrawNormalSequence(rng *rand.Rand, years int, cfg DistributionConfig) []YearReturn {
	floor := decimal.NewFromFloat(-0.95)
	bondAlloc := decimal.NewFromInt(1).Sub(cfg.StockAllocation)
	seq := make([]YearReturn, years)
	for i := range seq {
		stock := normalDraw(rng, cfg.StockMean, cfg.StockStdDev)
		bond := normalDraw(rng, cfg.BondMean, cfg.BondStdDev)
		blended := stock.Mul(cfg.StockAllocation).Add(bond.Mul(bondAlloc))
		if blended.LessThan(floor) {
			blended = floor
		}
		inflation := normalDraw(rng, cfg.InflationMean, cfg.InflationStdDev)
		seq[i] = YearReturn{Return: blended, Inflation: inflation}
	}
	return seq
}

// DrawBootstrapSequence materializes one iteration by resampling whole
// historical years with replacement, keeping each year's return and
// inflation paired.
func DrawBootstrapSequence(rng *rand.Rand, years int, records []domain.HistoricalReturnRecord, allocation decimal.Decimal) []YearReturn {
	seq := make([]YearReturn, years)
	for i := range seq {
		rec := records[rng.Intn(len(records))]
		seq[i] = YearReturn{
			Return:    rec.BlendedReturn(allocation),
			Inflation: rec.Inflation,
		}
	}
	return seq
}

func normalDraw(rng *rand.Rand, mean, stddev decimal.Decimal) decimal.Decimal {
	return mean.Add(decimal.NewFromFloat(rng.NormFloat64()).Mul(stddev))
}
