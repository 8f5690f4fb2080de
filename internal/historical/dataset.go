// Package historical supplies the read-only annual market dataset the
// backtest and Monte Carlo runners consume: S&P 500 total returns, 10-year
// Treasury total returns, and CPI inflation, 1928 through 2024. A bundled
// copy ships in the binary; LoadFile swaps in an external file of the same
// shape.
package historical

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

//go:embed data/returns.yaml
var embeddedReturns []byte

// Dataset is an immutable, year-indexed collection of return records. Safe
// for concurrent reads once constructed.
type Dataset struct {
	records []domain.HistoricalReturnRecord
	byYear  map[int]int
}

type datasetFile struct {
	Records []domain.HistoricalReturnRecord `yaml:"records"`
}

// Load parses the embedded dataset.
func Load() (*Dataset, error) {
	return parse(embeddedReturns)
}

// LoadFile parses a dataset from an external YAML file.
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read historical data %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Dataset, error) {
	var file datasetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse historical data: %w", err)
	}
	if len(file.Records) == 0 {
		return nil, domain.NewConfigurationGap("historical_data", "dataset contains no records")
	}
	records := append([]domain.HistoricalReturnRecord(nil), file.Records...)
	sort.Slice(records, func(i, j int) bool { return records[i].Year < records[j].Year })
	ds := &Dataset{records: records, byYear: make(map[int]int, len(records))}
	for i, rec := range records {
		if prev, dup := ds.byYear[rec.Year]; dup {
			return nil, domain.NewConfigurationGap("historical_data", "duplicate records for year %d (indexes %d and %d)", rec.Year, prev, i)
		}
		ds.byYear[rec.Year] = i
	}
	for i := 1; i < len(records); i++ {
		if records[i].Year != records[i-1].Year+1 {
			return nil, domain.NewConfigurationGap("historical_data", "gap in coverage between %d and %d", records[i-1].Year, records[i].Year)
		}
	}
	return ds, nil
}

// Years reports the covered range, inclusive.
func (ds *Dataset) Years() (first, last int) {
	return ds.records[0].Year, ds.records[len(ds.records)-1].Year
}

// Len returns the number of annual records.
func (ds *Dataset) Len() int { return len(ds.records) }

// Records returns the full series in year order. Callers must treat it as
// read-only.
func (ds *Dataset) Records() []domain.HistoricalReturnRecord {
	return ds.records
}

// Record looks up a single year.
func (ds *Dataset) Record(year int) (domain.HistoricalReturnRecord, error) {
	i, ok := ds.byYear[year]
	if !ok {
		first, last := ds.Years()
		return domain.HistoricalReturnRecord{}, domain.NewConfigurationGap("historical_data", "no record for year %d (coverage %d-%d)", year, first, last)
	}
	return ds.records[i], nil
}

// From returns the series starting at the given year through the end of
// the data.
func (ds *Dataset) From(year int) ([]domain.HistoricalReturnRecord, error) {
	i, ok := ds.byYear[year]
	if !ok {
		first, last := ds.Years()
		return nil, domain.NewConfigurationGap("historical_data", "no record for year %d (coverage %d-%d)", year, first, last)
	}
	return ds.records[i:], nil
}

// SeriesStats summarizes a dataset's per-series mean and sample standard
// deviation; the Monte Carlo runner seeds its distribution defaults from
// these.
type SeriesStats struct {
	StockMean       decimal.Decimal
	StockStdDev     decimal.Decimal
	BondMean        decimal.Decimal
	BondStdDev      decimal.Decimal
	InflationMean   decimal.Decimal
	InflationStdDev decimal.Decimal
}

// Stats computes series statistics across the full dataset.
func (ds *Dataset) Stats() SeriesStats {
	stock := make([]decimal.Decimal, len(ds.records))
	bond := make([]decimal.Decimal, len(ds.records))
	inflation := make([]decimal.Decimal, len(ds.records))
	for i, rec := range ds.records {
		stock[i] = rec.StockReturn
		bond[i] = rec.BondReturn
		inflation[i] = rec.Inflation
	}
	var s SeriesStats
	s.StockMean, s.StockStdDev = meanStdDev(stock)
	s.BondMean, s.BondStdDev = meanStdDev(bond)
	s.InflationMean, s.InflationStdDev = meanStdDev(inflation)
	return s
}

func meanStdDev(values []decimal.Decimal) (mean, stddev decimal.Decimal) {
	n := decimal.NewFromInt(int64(len(values)))
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	mean = sum.Div(n).Round(6)

	if len(values) < 2 {
		return mean, decimal.Zero
	}
	sumSq := decimal.Zero
	for _, v := range values {
		d := v.Sub(mean)
		sumSq = sumSq.Add(d.Mul(d))
	}
	variance, _ := sumSq.Div(n.Sub(decimal.NewFromInt(1))).Float64()
	stddev = decimal.NewFromFloat(math.Sqrt(variance)).Round(6)
	return mean, stddev
}
