package domain

import "github.com/shopspring/decimal"

// Scenario is the complete input for one simulation request: who is
// retiring, what they hold, and how they intend to draw it down.
type Scenario struct {
	Name       string               `yaml:"name" json:"name"`
	Parameters RetirementParameters `yaml:"parameters" json:"parameters"`
	Accounts   []Account            `yaml:"accounts" json:"accounts"`
	Buckets    []WithdrawalBucket   `yaml:"buckets" json:"buckets"`

	// Strategy is the scenario-wide sequencing default; individual buckets
	// may override it.
	Strategy    string                          `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	CustomSplit map[AccountType]decimal.Decimal `yaml:"custom_split,omitempty" json:"custom_split,omitempty"`
}

// Validate checks the scenario's data invariants: parameter consistency,
// account records, bucket coverage, and the portfolio total. Strategy-name
// resolution is left to the sequencing factory.
func (s *Scenario) Validate() error {
	if err := s.Parameters.Validate(); err != nil {
		return err
	}
	if len(s.Accounts) == 0 {
		return NewValidationError("accounts", "at least one account is required")
	}
	seen := make(map[string]bool, len(s.Accounts))
	for i := range s.Accounts {
		if err := s.Accounts[i].Validate(); err != nil {
			return err
		}
		if seen[s.Accounts[i].ID] {
			return NewValidationError("accounts", "duplicate account id %q", s.Accounts[i].ID)
		}
		seen[s.Accounts[i].ID] = true
	}
	if err := ValidateBuckets(s.Buckets, s.Parameters.RetirementAge, s.Parameters.LifeExpectancy); err != nil {
		return err
	}
	if s.Parameters.StartingPortfolio.IsPositive() {
		total := TotalBalance(s.Accounts)
		if !s.Parameters.StartingPortfolio.Equal(total) {
			return NewValidationError("starting_portfolio", "declared %s does not match account total %s", s.Parameters.StartingPortfolio, total)
		}
	}
	return nil
}

// BlendedGrowthRate computes the balance-weighted average of per-account
// growth rates. Used as the deterministic return assumption when the
// scenario does not set one explicitly.
func (s *Scenario) BlendedGrowthRate() decimal.Decimal {
	total := TotalBalance(s.Accounts)
	if !total.IsPositive() {
		return decimal.Zero
	}
	weighted := decimal.Zero
	for i := range s.Accounts {
		weighted = weighted.Add(s.Accounts[i].GrowthRate.Mul(s.Accounts[i].Balance))
	}
	return weighted.Div(total).Round(6)
}
