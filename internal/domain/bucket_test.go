package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func rate(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func bucket(order, start, end int, r float64) WithdrawalBucket {
	return WithdrawalBucket{Order: order, StartAge: start, EndAge: end, TargetWithdrawalRate: rate(r)}
}

func TestValidateBuckets(t *testing.T) {
	tests := []struct {
		name          string
		buckets       []WithdrawalBucket
		retirementAge int
		lifeExp       int
		wantErr       bool
		wantContains  string
	}{
		{
			name:          "single bucket exact coverage",
			buckets:       []WithdrawalBucket{bucket(1, 65, 95, 0.04)},
			retirementAge: 65,
			lifeExp:       95,
		},
		{
			name:          "single bucket unbounded end",
			buckets:       []WithdrawalBucket{bucket(1, 65, 0, 0.04)},
			retirementAge: 65,
			lifeExp:       95,
		},
		{
			name: "three contiguous buckets",
			buckets: []WithdrawalBucket{
				bucket(1, 65, 73, 0.05),
				bucket(2, 73, 85, 0.04),
				bucket(3, 85, 0, 0.035),
			},
			retirementAge: 65,
			lifeExp:       95,
		},
		{
			name: "out-of-order declaration still valid",
			buckets: []WithdrawalBucket{
				bucket(2, 75, 95, 0.04),
				bucket(1, 65, 75, 0.05),
			},
			retirementAge: 65,
			lifeExp:       95,
		},
		{
			name:          "no buckets",
			buckets:       nil,
			retirementAge: 65,
			lifeExp:       95,
			wantErr:       true,
			wantContains:  "at least one",
		},
		{
			name: "gap between buckets",
			buckets: []WithdrawalBucket{
				bucket(1, 65, 75, 0.05),
				bucket(2, 78, 95, 0.04),
			},
			retirementAge: 65,
			lifeExp:       95,
			wantErr:       true,
			wantContains:  "gap",
		},
		{
			name: "overlapping buckets",
			buckets: []WithdrawalBucket{
				bucket(1, 65, 80, 0.05),
				bucket(2, 75, 95, 0.04),
			},
			retirementAge: 65,
			lifeExp:       95,
			wantErr:       true,
			wantContains:  "overlap",
		},
		{
			name:          "starts after retirement age",
			buckets:       []WithdrawalBucket{bucket(1, 66, 95, 0.04)},
			retirementAge: 65,
			lifeExp:       95,
			wantErr:       true,
			wantContains:  "begin at retirement age",
		},
		{
			name:          "ends before life expectancy",
			buckets:       []WithdrawalBucket{bucket(1, 65, 90, 0.04)},
			retirementAge: 65,
			lifeExp:       95,
			wantErr:       true,
			wantContains:  "extend to life expectancy",
		},
		{
			name:          "empty interval",
			buckets:       []WithdrawalBucket{bucket(1, 65, 65, 0.04)},
			retirementAge: 65,
			lifeExp:       95,
			wantErr:       true,
			wantContains:  "empty interval",
		},
		{
			name: "unbounded bucket in the middle",
			buckets: []WithdrawalBucket{
				bucket(1, 65, 0, 0.05),
				bucket(2, 80, 95, 0.04),
			},
			retirementAge: 65,
			lifeExp:       95,
			wantErr:       true,
		},
		{
			name:          "rate above one",
			buckets:       []WithdrawalBucket{bucket(1, 65, 95, 1.5)},
			retirementAge: 65,
			lifeExp:       95,
			wantErr:       true,
			wantContains:  "between 0 and 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBuckets(tt.buckets, tt.retirementAge, tt.lifeExp)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("expected *ValidationError, got %T: %v", err, err)
				}
				if tt.wantContains != "" && !strings.Contains(err.Error(), tt.wantContains) {
					t.Errorf("error %q does not mention %q", err.Error(), tt.wantContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateBucketsCustomSplit(t *testing.T) {
	good := bucket(1, 65, 95, 0.04)
	good.CustomSplit = map[AccountType]decimal.Decimal{
		AccountTaxable:     rate(0.5),
		AccountTaxDeferred: rate(0.3),
		AccountTaxFree:     rate(0.2),
	}
	if err := ValidateBuckets([]WithdrawalBucket{good}, 65, 95); err != nil {
		t.Fatalf("valid split rejected: %v", err)
	}

	bad := bucket(1, 65, 95, 0.04)
	bad.CustomSplit = map[AccountType]decimal.Decimal{
		AccountTaxable:     rate(0.5),
		AccountTaxDeferred: rate(0.3),
	}
	if err := ValidateBuckets([]WithdrawalBucket{bad}, 65, 95); err == nil {
		t.Fatal("split summing to 0.8 should be rejected")
	}
}

func TestBucketForAge(t *testing.T) {
	buckets := []WithdrawalBucket{
		bucket(1, 65, 75, 0.05),
		bucket(2, 75, 0, 0.04),
	}

	b, ok := BucketForAge(buckets, 65, 95)
	if !ok || b.Order != 1 {
		t.Fatalf("age 65 should land in bucket 1, got %+v ok=%v", b, ok)
	}
	b, ok = BucketForAge(buckets, 74, 95)
	if !ok || b.Order != 1 {
		t.Fatalf("age 74 should land in bucket 1, got %+v ok=%v", b, ok)
	}
	b, ok = BucketForAge(buckets, 75, 95)
	if !ok || b.Order != 2 {
		t.Fatalf("age 75 should land in bucket 2 (half-open intervals), got %+v ok=%v", b, ok)
	}
	b, ok = BucketForAge(buckets, 94, 95)
	if !ok || b.Order != 2 {
		t.Fatalf("age 94 should land in bucket 2, got %+v ok=%v", b, ok)
	}
	if _, ok := BucketForAge(buckets, 95, 95); ok {
		t.Fatal("age 95 is outside the half-open horizon")
	}
}

func TestEffectiveStrategy(t *testing.T) {
	b := bucket(1, 65, 95, 0.04)
	if got := b.EffectiveStrategy(""); got != "taxable_first" {
		t.Errorf("default strategy = %q, want taxable_first", got)
	}
	if got := b.EffectiveStrategy("roth_first"); got != "roth_first" {
		t.Errorf("scenario default not inherited, got %q", got)
	}
	b.TaxOptimized = true
	if got := b.EffectiveStrategy("roth_first"); got != "optimized" {
		t.Errorf("tax_optimized shorthand = %q, want optimized", got)
	}
	b.Strategy = "tax_deferred_first"
	if got := b.EffectiveStrategy("roth_first"); got != "tax_deferred_first" {
		t.Errorf("explicit strategy not honored, got %q", got)
	}
}
