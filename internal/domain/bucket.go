package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// WithdrawalBucket is one age-range segment of retirement with its own
// withdrawal policy. Buckets apply to the half-open interval
// [start_age, end_age); end_age 0 on the final bucket means "through
// life expectancy".
type WithdrawalBucket struct {
	Order                int              `yaml:"order" json:"order"`
	StartAge             int              `yaml:"start_age" json:"start_age"`
	EndAge               int              `yaml:"end_age,omitempty" json:"end_age,omitempty"`
	TargetWithdrawalRate decimal.Decimal  `yaml:"target_withdrawal_rate" json:"target_withdrawal_rate"`
	MinWithdrawal        *decimal.Decimal `yaml:"min_withdrawal,omitempty" json:"min_withdrawal,omitempty"`
	MaxWithdrawal        *decimal.Decimal `yaml:"max_withdrawal,omitempty" json:"max_withdrawal,omitempty"`
	ManualOverride       *decimal.Decimal `yaml:"manual_override,omitempty" json:"manual_override,omitempty"`
	PensionIncome        decimal.Decimal  `yaml:"pension_income,omitempty" json:"pension_income,omitempty"`
	SocialSecurityIncome decimal.Decimal  `yaml:"social_security_income,omitempty" json:"social_security_income,omitempty"`
	HealthcareAdjustment decimal.Decimal  `yaml:"healthcare_adjustment,omitempty" json:"healthcare_adjustment,omitempty"`

	// Strategy names the sequencing strategy for years in this bucket;
	// empty inherits the scenario default. TaxOptimized is shorthand for
	// the "optimized" strategy when no explicit name is given.
	Strategy     string                          `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	TaxOptimized bool                            `yaml:"tax_optimized,omitempty" json:"tax_optimized,omitempty"`
	CustomSplit  map[AccountType]decimal.Decimal `yaml:"custom_split,omitempty" json:"custom_split,omitempty"`

	AllowedAccountTypes    []AccountType `yaml:"allowed_account_types,omitempty" json:"allowed_account_types,omitempty"`
	ProhibitedAccountTypes []AccountType `yaml:"prohibited_account_types,omitempty" json:"prohibited_account_types,omitempty"`
	WithdrawalOrder        []AccountType `yaml:"withdrawal_order,omitempty" json:"withdrawal_order,omitempty"`
}

// EffectiveEndAge resolves an unbounded end_age against the horizon.
func (b *WithdrawalBucket) EffectiveEndAge(lifeExpectancy int) int {
	if b.EndAge == 0 {
		return lifeExpectancy
	}
	return b.EndAge
}

// Contains reports whether the bucket's interval covers the given age.
func (b *WithdrawalBucket) Contains(age, lifeExpectancy int) bool {
	return age >= b.StartAge && age < b.EffectiveEndAge(lifeExpectancy)
}

// EffectiveStrategy resolves the sequencing strategy for this bucket,
// falling back to the scenario default.
func (b *WithdrawalBucket) EffectiveStrategy(scenarioDefault string) string {
	if b.Strategy != "" {
		return b.Strategy
	}
	if b.TaxOptimized {
		return "optimized"
	}
	if scenarioDefault != "" {
		return scenarioDefault
	}
	return "taxable_first"
}

// AllowsType applies the allowed/prohibited account-type lists.
func (b *WithdrawalBucket) AllowsType(t AccountType) bool {
	for _, p := range b.ProhibitedAccountTypes {
		if p == t {
			return false
		}
	}
	if len(b.AllowedAccountTypes) == 0 {
		return true
	}
	for _, a := range b.AllowedAccountTypes {
		if a == t {
			return true
		}
	}
	return false
}

// BucketForAge selects the bucket whose interval contains the age. Buckets
// are few, so a linear scan is fine.
func BucketForAge(buckets []WithdrawalBucket, age, lifeExpectancy int) (*WithdrawalBucket, bool) {
	for i := range buckets {
		if buckets[i].Contains(age, lifeExpectancy) {
			return &buckets[i], true
		}
	}
	return nil, false
}

// ValidateBuckets enforces the coverage invariant: the bucket intervals must
// be contiguous, non-overlapping, and exactly cover
// [retirementAge, lifeExpectancy). Violations are ValidationErrors raised
// before any simulation runs.
func ValidateBuckets(buckets []WithdrawalBucket, retirementAge, lifeExpectancy int) error {
	if len(buckets) == 0 {
		return NewValidationError("buckets", "at least one withdrawal bucket is required")
	}

	sorted := append([]WithdrawalBucket(nil), buckets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartAge < sorted[j].StartAge })

	for i := range sorted {
		b := &sorted[i]
		end := b.EffectiveEndAge(lifeExpectancy)
		if b.StartAge >= end {
			return NewValidationError("buckets", "bucket %d has empty interval [%d, %d)", b.Order, b.StartAge, end)
		}
		if err := validateBucketPolicy(b); err != nil {
			return err
		}
		if b.EndAge == 0 && i != len(sorted)-1 {
			return NewValidationError("buckets", "bucket %d: only the final bucket may leave end_age unbounded", b.Order)
		}
	}

	if sorted[0].StartAge != retirementAge {
		return NewValidationError("buckets", "coverage must begin at retirement age %d, first bucket starts at %d", retirementAge, sorted[0].StartAge)
	}
	for i := 1; i < len(sorted); i++ {
		prevEnd := sorted[i-1].EffectiveEndAge(lifeExpectancy)
		if sorted[i].StartAge < prevEnd {
			return NewValidationError("buckets", "buckets %d and %d overlap at age %d", sorted[i-1].Order, sorted[i].Order, sorted[i].StartAge)
		}
		if sorted[i].StartAge > prevEnd {
			return NewValidationError("buckets", "gap in coverage between ages %d and %d", prevEnd, sorted[i].StartAge)
		}
	}
	lastEnd := sorted[len(sorted)-1].EffectiveEndAge(lifeExpectancy)
	if lastEnd != lifeExpectancy {
		return NewValidationError("buckets", "coverage must extend to life expectancy %d, last bucket ends at %d", lifeExpectancy, lastEnd)
	}
	return nil
}

func validateBucketPolicy(b *WithdrawalBucket) error {
	one := decimal.NewFromInt(1)
	if b.TargetWithdrawalRate.IsNegative() || b.TargetWithdrawalRate.GreaterThan(one) {
		return NewValidationError("buckets", "bucket %d: target_withdrawal_rate must be between 0 and 1", b.Order)
	}
	if b.ManualOverride != nil && b.ManualOverride.IsNegative() {
		return NewValidationError("buckets", "bucket %d: manual_override must not be negative", b.Order)
	}
	if b.MinWithdrawal != nil && b.MinWithdrawal.IsNegative() {
		return NewValidationError("buckets", "bucket %d: min_withdrawal must not be negative", b.Order)
	}
	if b.MinWithdrawal != nil && b.MaxWithdrawal != nil && b.MinWithdrawal.GreaterThan(*b.MaxWithdrawal) {
		return NewValidationError("buckets", "bucket %d: min_withdrawal exceeds max_withdrawal", b.Order)
	}
	if len(b.CustomSplit) > 0 {
		sum := decimal.Zero
		for t, share := range b.CustomSplit {
			if _, err := ParseAccountType(string(t)); err != nil {
				return NewValidationError("buckets", "bucket %d: custom_split has unknown account type %q", b.Order, t)
			}
			if share.IsNegative() {
				return NewValidationError("buckets", "bucket %d: custom_split share for %s must not be negative", b.Order, t)
			}
			sum = sum.Add(share)
		}
		if !sum.Equal(one) {
			return NewValidationError("buckets", "bucket %d: custom_split shares must sum to 1, got %s", b.Order, sum)
		}
	}
	for _, t := range append(append([]AccountType(nil), b.AllowedAccountTypes...), b.ProhibitedAccountTypes...) {
		if _, err := ParseAccountType(string(t)); err != nil {
			return NewValidationError("buckets", "bucket %d: unknown account type %q", b.Order, t)
		}
	}
	return nil
}
