package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FilingStatus identifies the federal filing status used for bracket lookup.
type FilingStatus string

const (
	FilingSingle         FilingStatus = "single"
	FilingMarriedJointly FilingStatus = "married_filing_jointly"
)

// ParseFilingStatus normalizes a user-supplied filing status string.
func ParseFilingStatus(s string) (FilingStatus, error) {
	switch FilingStatus(strings.ToLower(strings.TrimSpace(s))) {
	case FilingSingle:
		return FilingSingle, nil
	case FilingMarriedJointly, "married", "mfj":
		return FilingMarriedJointly, nil
	}
	return "", NewValidationError("filing_status", "unknown filing status %q", s)
}

// RetirementParameters is the immutable input for one calculation request.
// Ages are whole years; the simulation horizon is the half-open interval
// [retirement_age, life_expectancy).
type RetirementParameters struct {
	CurrentAge           int             `yaml:"current_age" json:"current_age"`
	RetirementAge        int             `yaml:"retirement_age" json:"retirement_age"`
	LifeExpectancy       int             `yaml:"life_expectancy" json:"life_expectancy"`
	StartingPortfolio    decimal.Decimal `yaml:"starting_portfolio,omitempty" json:"starting_portfolio"`
	AssumedReturnRate    decimal.Decimal `yaml:"assumed_return_rate" json:"assumed_return_rate"`
	AssumedInflationRate decimal.Decimal `yaml:"assumed_inflation_rate" json:"assumed_inflation_rate"`
	FilingStatus         FilingStatus    `yaml:"filing_status" json:"filing_status"`
	State                string          `yaml:"state" json:"state"`
	SSClaimingAge        int             `yaml:"ss_claiming_age,omitempty" json:"ss_claiming_age,omitempty"`
}

// HorizonYears returns the number of simulated years.
func (rp *RetirementParameters) HorizonYears() int {
	return rp.LifeExpectancy - rp.RetirementAge
}

// Validate checks the parameter block for internal consistency. It does not
// check bucket coverage; that is ValidateBuckets' job.
func (rp *RetirementParameters) Validate() error {
	if rp.CurrentAge < 0 {
		return NewValidationError("current_age", "must not be negative, got %d", rp.CurrentAge)
	}
	if rp.RetirementAge < 0 {
		return NewValidationError("retirement_age", "must not be negative, got %d", rp.RetirementAge)
	}
	if rp.LifeExpectancy <= rp.RetirementAge {
		return NewValidationError("life_expectancy", "must exceed retirement age (%d <= %d)", rp.LifeExpectancy, rp.RetirementAge)
	}
	if rp.StartingPortfolio.IsNegative() {
		return NewValidationError("starting_portfolio", "must not be negative")
	}
	if rp.AssumedReturnRate.LessThanOrEqual(decimal.NewFromInt(-1)) {
		return NewValidationError("assumed_return_rate", "must be greater than -100%%")
	}
	if _, err := ParseFilingStatus(string(rp.FilingStatus)); err != nil {
		return err
	}
	if rp.SSClaimingAge != 0 && (rp.SSClaimingAge < 62 || rp.SSClaimingAge > 70) {
		return NewValidationError("ss_claiming_age", "must be between 62 and 70, got %d", rp.SSClaimingAge)
	}
	return nil
}
