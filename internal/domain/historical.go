package domain

import "github.com/shopspring/decimal"

// HistoricalReturnRecord is one calendar year of market history: total
// returns for stocks and bonds plus the inflation rate, all as fractions
// (0.07 = 7%). Read-only reference data.
type HistoricalReturnRecord struct {
	Year        int             `yaml:"year" json:"year"`
	StockReturn decimal.Decimal `yaml:"stock_return" json:"stock_return"`
	BondReturn  decimal.Decimal `yaml:"bond_return" json:"bond_return"`
	Inflation   decimal.Decimal `yaml:"inflation" json:"inflation"`
}

// BlendedReturn mixes the year's stock and bond returns by stock allocation.
func (r *HistoricalReturnRecord) BlendedReturn(stockAllocation decimal.Decimal) decimal.Decimal {
	bondAllocation := decimal.NewFromInt(1).Sub(stockAllocation)
	return r.StockReturn.Mul(stockAllocation).Add(r.BondReturn.Mul(bondAllocation))
}
