package calculation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgehrsitz/drawdown/internal/domain"
)

func TestTaxCalculatorOrdinaryIncome(t *testing.T) {
	tc := NewTaxCalculator()

	tests := []struct {
		name     string
		in       TaxInput
		expected decimal.Decimal
	}{
		{
			name: "MFJ 100k at 60",
			in: TaxInput{
				OrdinaryIncome: decimal.NewFromInt(100000),
				FilingStatus:   domain.FilingMarriedJointly,
				State:          "PA",
				Age:            60,
			},
			// taxable 70000: 23200*0.10 + 46800*0.12
			expected: decimal.NewFromInt(7936),
		},
		{
			name: "MFJ 100k at 65 gets senior deduction for both filers",
			in: TaxInput{
				OrdinaryIncome: decimal.NewFromInt(100000),
				FilingStatus:   domain.FilingMarriedJointly,
				State:          "PA",
				Age:            65,
			},
			// taxable 66900: 23200*0.10 + 43700*0.12
			expected: decimal.NewFromInt(7564),
		},
		{
			name: "single 50k at 60",
			in: TaxInput{
				OrdinaryIncome: decimal.NewFromInt(50000),
				FilingStatus:   domain.FilingSingle,
				State:          "PA",
				Age:            60,
			},
			// taxable 35000: 11600*0.10 + 23400*0.12
			expected: decimal.NewFromInt(3968),
		},
		{
			name: "deduction floors taxable income at zero",
			in: TaxInput{
				OrdinaryIncome: decimal.NewFromInt(20000),
				FilingStatus:   domain.FilingMarriedJointly,
				State:          "PA",
				Age:            60,
			},
			expected: decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breakdown, err := tc.Compute(tt.in)
			require.NoError(t, err)
			assert.True(t, breakdown.FederalOrdinary.Equal(tt.expected),
				"Expected federal %s, got %s", tt.expected, breakdown.FederalOrdinary)
			assert.True(t, breakdown.Total.Equal(tt.expected),
				"Expected total %s, got %s", tt.expected, breakdown.Total)
		})
	}
}

func TestSocialSecurityTaxability(t *testing.T) {
	ss := NewSSTaxCalculator(NewTaxBracketTable2025())

	tests := []struct {
		name        string
		otherIncome decimal.Decimal
		benefit     decimal.Decimal
		fs          domain.FilingStatus
		expected    decimal.Decimal
	}{
		{
			name:        "below base threshold none taxable",
			otherIncome: decimal.Zero,
			benefit:     decimal.NewFromInt(20000),
			fs:          domain.FilingMarriedJointly,
			expected:    decimal.Zero,
		},
		{
			name:        "between thresholds up to 50 percent",
			otherIncome: decimal.NewFromInt(30000),
			benefit:     decimal.NewFromInt(20000),
			fs:          domain.FilingMarriedJointly,
			// provisional 40000: 0.5 * (40000-32000)
			expected: decimal.NewFromInt(4000),
		},
		{
			name:        "above upper threshold capped at 85 percent of benefit",
			otherIncome: decimal.NewFromInt(60000),
			benefit:     decimal.NewFromInt(20000),
			fs:          domain.FilingMarriedJointly,
			// provisional 70000: formula gives 28100, cap 0.85*20000 wins
			expected: decimal.NewFromInt(17000),
		},
		{
			name:        "above upper threshold formula below cap",
			otherIncome: decimal.NewFromInt(40000),
			benefit:     decimal.NewFromInt(24000),
			fs:          domain.FilingSingle,
			// provisional 52000: 0.85*(52000-34000) + 0.5*(34000-25000)
			expected: decimal.NewFromInt(19800),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provisional := ss.CalculateProvisionalIncome(tt.otherIncome, decimal.Zero, tt.benefit)
			taxable := ss.CalculateTaxableSocialSecurity(tt.benefit, provisional, tt.fs)
			assert.True(t, taxable.Equal(tt.expected),
				"Expected taxable SS %s, got %s", tt.expected, taxable)
		})
	}
}

func TestComputeResolvesSocialSecurityBeforeBrackets(t *testing.T) {
	tc := NewTaxCalculator()

	breakdown, err := tc.Compute(TaxInput{
		OrdinaryIncome:        decimal.NewFromInt(30000),
		SocialSecurityBenefit: decimal.NewFromInt(20000),
		FilingStatus:          domain.FilingMarriedJointly,
		State:                 "PA",
		Age:                   60,
	})
	require.NoError(t, err)

	// taxable SS 4000 raises ordinary taxable from 0 to 4000
	expected := decimal.NewFromInt(400)
	assert.True(t, breakdown.FederalOrdinary.Equal(expected),
		"Expected federal %s, got %s", expected, breakdown.FederalOrdinary)
	assert.True(t, breakdown.State.IsZero(), "PA exempts Social Security, got %s", breakdown.State)
}

func TestCapitalGainsStackOnOrdinaryIncome(t *testing.T) {
	tc := NewTaxCalculator()

	t.Run("gains pushed into 15 percent bracket by ordinary income", func(t *testing.T) {
		breakdown, err := tc.Compute(TaxInput{
			OrdinaryIncome: decimal.NewFromInt(100000),
			CapitalGains:   decimal.NewFromInt(50000),
			FilingStatus:   domain.FilingMarriedJointly,
			State:          "PA",
			Age:            60,
		})
		require.NoError(t, err)

		// stack runs 70000..120000: 24050 at 0%, 25950 at 15%
		expectedGains := decimal.NewFromFloat(3892.50)
		assert.True(t, breakdown.CapitalGains.Equal(expectedGains),
			"Expected gains tax %s, got %s", expectedGains, breakdown.CapitalGains)

		expectedState := decimal.NewFromInt(1535) // PA 3.07% on gains only
		assert.True(t, breakdown.State.Equal(expectedState),
			"Expected state tax %s, got %s", expectedState, breakdown.State)
	})

	t.Run("gains alone stay in zero bracket", func(t *testing.T) {
		breakdown, err := tc.Compute(TaxInput{
			CapitalGains: decimal.NewFromInt(90000),
			FilingStatus: domain.FilingMarriedJointly,
			State:        "PA",
			Age:          60,
		})
		require.NoError(t, err)
		assert.True(t, breakdown.CapitalGains.IsZero(),
			"Expected zero gains tax, got %s", breakdown.CapitalGains)
	})
}

func TestNetInvestmentIncomeTax(t *testing.T) {
	tc := NewTaxCalculator()

	t.Run("single filer above threshold", func(t *testing.T) {
		breakdown, err := tc.Compute(TaxInput{
			OrdinaryIncome: decimal.NewFromInt(190000),
			CapitalGains:   decimal.NewFromInt(30000),
			FilingStatus:   domain.FilingSingle,
			State:          "PA",
			Age:            60,
		})
		require.NoError(t, err)

		// MAGI 220000, excess 20000 below the 30000 of investment income
		expected := decimal.NewFromInt(760)
		assert.True(t, breakdown.NIIT.Equal(expected),
			"Expected NIIT %s, got %s", expected, breakdown.NIIT)
	})

	t.Run("joint filer below threshold pays none", func(t *testing.T) {
		breakdown, err := tc.Compute(TaxInput{
			OrdinaryIncome: decimal.NewFromInt(190000),
			CapitalGains:   decimal.NewFromInt(30000),
			FilingStatus:   domain.FilingMarriedJointly,
			State:          "PA",
			Age:            60,
		})
		require.NoError(t, err)
		assert.True(t, breakdown.NIIT.IsZero(), "Expected zero NIIT, got %s", breakdown.NIIT)
	})
}

func TestIRMAASurchargeTiers(t *testing.T) {
	ic := NewIRMAACalculator(NewTaxBracketTable2025())

	tests := []struct {
		name     string
		magi     decimal.Decimal
		fs       domain.FilingStatus
		expected decimal.Decimal
	}{
		{"single at threshold pays base", decimal.NewFromInt(103000), domain.FilingSingle, decimal.Zero},
		{"single just over first tier", decimal.NewFromInt(103001), domain.FilingSingle, decimal.NewFromFloat(69.90)},
		{"single in fourth tier", decimal.NewFromInt(400000), domain.FilingSingle, decimal.NewFromFloat(384.30)},
		{"single above top tier", decimal.NewFromInt(600000), domain.FilingSingle, decimal.NewFromFloat(489.10)},
		{"joint thresholds are higher", decimal.NewFromInt(210000), domain.FilingMarriedJointly, decimal.NewFromFloat(69.90)},
		{"joint below first tier", decimal.NewFromInt(200000), domain.FilingMarriedJointly, decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ic.MonthlySurcharge(tt.magi, tt.fs)
			if !got.Equal(tt.expected) {
				t.Errorf("MonthlySurcharge(%s) = %s, expected %s", tt.magi, got, tt.expected)
			}
		})
	}
}

func TestIRMAARequiresMedicareAge(t *testing.T) {
	tc := NewTaxCalculator()
	in := TaxInput{
		OrdinaryIncome: decimal.NewFromInt(210000),
		FilingStatus:   domain.FilingMarriedJointly,
		State:          "PA",
		Age:            64,
	}

	before, err := tc.Compute(in)
	require.NoError(t, err)
	assert.True(t, before.IRMAA.IsZero(), "no IRMAA before 65, got %s", before.IRMAA)

	in.Age = 65
	after, err := tc.Compute(in)
	require.NoError(t, err)
	expected := decimal.NewFromFloat(838.80) // 69.90 * 12
	assert.True(t, after.IRMAA.Equal(expected),
		"Expected annual IRMAA %s, got %s", expected, after.IRMAA)
}

func TestStateTaxDelegation(t *testing.T) {
	tc := NewTaxCalculator()

	t.Run("virginia taxes ordinary income after its deduction", func(t *testing.T) {
		breakdown, err := tc.Compute(TaxInput{
			OrdinaryIncome: decimal.NewFromInt(50000),
			FilingStatus:   domain.FilingMarriedJointly,
			State:          "VA",
			Age:            60,
		})
		require.NoError(t, err)

		// taxable 34000: 3000*2% + 2000*3% + 12000*5% + 17000*5.75%
		expected := decimal.NewFromFloat(1697.50)
		assert.True(t, breakdown.State.Equal(expected),
			"Expected VA tax %s, got %s", expected, breakdown.State)
	})

	t.Run("virginia exempts social security", func(t *testing.T) {
		base, err := tc.Compute(TaxInput{
			OrdinaryIncome: decimal.NewFromInt(50000),
			FilingStatus:   domain.FilingMarriedJointly,
			State:          "VA",
			Age:            60,
		})
		require.NoError(t, err)

		withSS, err := tc.Compute(TaxInput{
			OrdinaryIncome:        decimal.NewFromInt(50000),
			SocialSecurityBenefit: decimal.NewFromInt(20000),
			FilingStatus:          domain.FilingMarriedJointly,
			State:                 "VA",
			Age:                   60,
		})
		require.NoError(t, err)

		assert.True(t, withSS.State.Equal(base.State),
			"VA tax changed when SS added: %s vs %s", withSS.State, base.State)
		assert.True(t, withSS.FederalOrdinary.GreaterThan(base.FederalOrdinary),
			"federal should rise with taxable SS")
	})

	t.Run("no income tax states return zero", func(t *testing.T) {
		breakdown, err := tc.Compute(TaxInput{
			OrdinaryIncome: decimal.NewFromInt(200000),
			CapitalGains:   decimal.NewFromInt(50000),
			FilingStatus:   domain.FilingSingle,
			State:          "FL",
			Age:            70,
		})
		require.NoError(t, err)
		assert.True(t, breakdown.State.IsZero(), "Expected zero FL tax, got %s", breakdown.State)
	})

	t.Run("lowercase state codes accepted", func(t *testing.T) {
		_, err := tc.Compute(TaxInput{
			OrdinaryIncome: decimal.NewFromInt(50000),
			FilingStatus:   domain.FilingSingle,
			State:          "pa",
			Age:            60,
		})
		require.NoError(t, err)
	})
}

func TestUnsupportedStateFailsExplicitly(t *testing.T) {
	tc := NewTaxCalculator()

	_, err := tc.Compute(TaxInput{
		OrdinaryIncome: decimal.NewFromInt(50000),
		FilingStatus:   domain.FilingSingle,
		State:          "ZZ",
		Age:            60,
	})
	require.Error(t, err)

	var gap *domain.ConfigurationGap
	require.ErrorAs(t, err, &gap)
	assert.Contains(t, err.Error(), "ZZ")

	_, err = tc.Compute(TaxInput{
		OrdinaryIncome: decimal.NewFromInt(50000),
		FilingStatus:   domain.FilingSingle,
		State:          "",
		Age:            60,
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	tc := NewTaxCalculator()

	tests := []struct {
		name string
		in   TaxInput
	}{
		{"negative ordinary income", TaxInput{
			OrdinaryIncome: decimal.NewFromInt(-1),
			FilingStatus:   domain.FilingSingle, State: "PA", Age: 60,
		}},
		{"negative gains", TaxInput{
			CapitalGains: decimal.NewFromInt(-500),
			FilingStatus: domain.FilingSingle, State: "PA", Age: 60,
		}},
		{"negative benefit", TaxInput{
			SocialSecurityBenefit: decimal.NewFromInt(-500),
			FilingStatus:          domain.FilingSingle, State: "PA", Age: 60,
		}},
		{"unknown filing status", TaxInput{
			FilingStatus: "head_of_household", State: "PA", Age: 60,
		}},
		{"negative age", TaxInput{
			FilingStatus: domain.FilingSingle, State: "PA", Age: -1,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tc.Compute(tt.in)
			require.Error(t, err)
			var verr *domain.ValidationError
			assert.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
		})
	}
}

func TestTotalTaxMonotonicInOrdinaryIncome(t *testing.T) {
	tc := NewTaxCalculator()

	prev := decimal.Zero
	step := decimal.NewFromInt(12500)
	income := decimal.Zero
	for i := 0; i <= 24; i++ {
		breakdown, err := tc.Compute(TaxInput{
			OrdinaryIncome:        income,
			CapitalGains:          decimal.NewFromInt(20000),
			SocialSecurityBenefit: decimal.NewFromInt(30000),
			FilingStatus:          domain.FilingMarriedJointly,
			State:                 "PA",
			Age:                   66,
		})
		require.NoError(t, err)
		assert.True(t, breakdown.Total.GreaterThanOrEqual(prev),
			"total tax fell from %s to %s at income %s", prev, breakdown.Total, income)
		prev = breakdown.Total
		income = income.Add(step)
	}
}
