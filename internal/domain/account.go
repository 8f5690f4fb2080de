package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account by its tax treatment.
type AccountType string

const (
	AccountTaxable       AccountType = "taxable"
	AccountTaxDeferred   AccountType = "tax_deferred"
	AccountTaxFree       AccountType = "tax_free"
	AccountHealthSavings AccountType = "health_savings"
)

// ParseAccountType normalizes a user-supplied account type string.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(strings.ToLower(strings.TrimSpace(s))) {
	case AccountTaxable, "brokerage":
		return AccountTaxable, nil
	case AccountTaxDeferred, "traditional", "401k", "ira":
		return AccountTaxDeferred, nil
	case AccountTaxFree, "roth":
		return AccountTaxFree, nil
	case AccountHealthSavings, "hsa":
		return AccountHealthSavings, nil
	}
	return "", NewValidationError("account_type", "unknown account type %q", s)
}

// Account is one holding in the caller's portfolio snapshot. The snapshot is
// read-only to the engine; each run advances its own local copies.
type Account struct {
	ID         string          `yaml:"id" json:"id"`
	Type       AccountType     `yaml:"type" json:"type"`
	Balance    decimal.Decimal `yaml:"balance" json:"balance"`
	CostBasis  decimal.Decimal `yaml:"cost_basis,omitempty" json:"cost_basis,omitempty"`
	GrowthRate decimal.Decimal `yaml:"growth_rate,omitempty" json:"growth_rate,omitempty"`

	// RMDApplicable overrides the by-type default (true for tax_deferred)
	// when set.
	RMDApplicable *bool `yaml:"rmd_applicable,omitempty" json:"rmd_applicable,omitempty"`
}

// IsRMDApplicable reports whether the account is subject to required
// minimum distributions.
func (a *Account) IsRMDApplicable() bool {
	if a.RMDApplicable != nil {
		return *a.RMDApplicable
	}
	return a.Type == AccountTaxDeferred
}

// Clone returns an independent copy safe to mutate within one run.
func (a *Account) Clone() *Account {
	c := *a
	if a.RMDApplicable != nil {
		v := *a.RMDApplicable
		c.RMDApplicable = &v
	}
	return &c
}

// Validate checks a single account record.
func (a *Account) Validate() error {
	if a.ID == "" {
		return NewValidationError("account.id", "id is required")
	}
	if _, err := ParseAccountType(string(a.Type)); err != nil {
		return NewValidationError("account."+a.ID, "unknown account type %q", a.Type)
	}
	if a.Balance.IsNegative() {
		return NewValidationError("account."+a.ID, "balance must not be negative")
	}
	if a.CostBasis.IsNegative() {
		return NewValidationError("account."+a.ID, "cost basis must not be negative")
	}
	if a.Type == AccountTaxable && a.CostBasis.GreaterThan(a.Balance) {
		return NewValidationError("account."+a.ID, "cost basis exceeds balance")
	}
	return nil
}

// CloneAccounts deep-copies a portfolio snapshot for one run.
func CloneAccounts(accounts []Account) []*Account {
	out := make([]*Account, len(accounts))
	for i := range accounts {
		out[i] = accounts[i].Clone()
	}
	return out
}

// TotalBalance sums the balances of a portfolio snapshot.
func TotalBalance(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for i := range accounts {
		total = total.Add(accounts[i].Balance)
	}
	return total
}
