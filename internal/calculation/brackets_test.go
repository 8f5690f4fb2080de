package calculation

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

func TestMarginalTax(t *testing.T) {
	table := NewTaxBracketTable2025()
	brackets := table.OrdinaryBrackets[domain.FilingSingle]

	tests := []struct {
		name     string
		taxable  decimal.Decimal
		expected decimal.Decimal
	}{
		{"zero income", decimal.Zero, decimal.Zero},
		{"negative income", decimal.NewFromInt(-5000), decimal.Zero},
		{"entirely in first bracket", decimal.NewFromInt(10000), decimal.NewFromInt(1000)},
		// 11600*0.10 + 35550*0.12
		{"exactly at bracket boundary", decimal.NewFromInt(47150), decimal.NewFromInt(5426)},
		// 11600*0.10 + 35550*0.12 + 2850*0.22
		{"spans three brackets", decimal.NewFromInt(50000), decimal.NewFromInt(6053)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarginalTax(brackets, tt.taxable)
			if !got.Equal(tt.expected) {
				t.Errorf("MarginalTax(%s) = %s, expected %s", tt.taxable, got, tt.expected)
			}
		})
	}
}

func TestStackedGainsTax(t *testing.T) {
	table := NewTaxBracketTable2025()
	brackets := table.CapitalGainsBrackets[domain.FilingMarriedJointly]

	tests := []struct {
		name     string
		ordinary decimal.Decimal
		gains    decimal.Decimal
		expected decimal.Decimal
	}{
		{"no gains", decimal.NewFromInt(50000), decimal.Zero, decimal.Zero},
		{"gains fill the zero bracket exactly", decimal.Zero, decimal.NewFromInt(94050), decimal.Zero},
		// (100000-94050) * 0.15
		{"gains spill into 15 percent", decimal.Zero, decimal.NewFromInt(100000), decimal.NewFromFloat(892.50)},
		// ordinary income above 583750 pushes all gains to 20 percent
		{"high earner pays top gains rate", decimal.NewFromInt(600000), decimal.NewFromInt(50000), decimal.NewFromInt(10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StackedGainsTax(brackets, tt.ordinary, tt.gains)
			if !got.Equal(tt.expected) {
				t.Errorf("StackedGainsTax(%s, %s) = %s, expected %s", tt.ordinary, tt.gains, got, tt.expected)
			}
		})
	}
}

func TestStandardDeductionFor(t *testing.T) {
	table := NewTaxBracketTable2025()

	tests := []struct {
		name     string
		fs       domain.FilingStatus
		age      int
		expected decimal.Decimal
	}{
		{"MFJ under 65", domain.FilingMarriedJointly, 60, decimal.NewFromInt(30000)},
		{"MFJ at 65 adds both filers", domain.FilingMarriedJointly, 65, decimal.NewFromInt(33100)},
		{"single under 65", domain.FilingSingle, 64, decimal.NewFromInt(15000)},
		{"single at 65", domain.FilingSingle, 65, decimal.NewFromInt(16550)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.StandardDeductionFor(tt.fs, tt.age)
			if !got.Equal(tt.expected) {
				t.Errorf("StandardDeductionFor(%s, %d) = %s, expected %s", tt.fs, tt.age, got, tt.expected)
			}
		})
	}
}
