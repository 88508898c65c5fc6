package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MembershipPolicy gathers every pricing and ledger constant of the
// membership program.
type MembershipPolicy struct {
	VIPDiscountRatio     float64 `yaml:"vip_discount_ratio"`
	VIPEligibilityVisits int     `yaml:"vip_eligibility_visits"`
	VIPPrice             int64   `yaml:"vip_price"`
	VIPValidityMonths    int     `yaml:"vip_validity_months"`
	MinDepositAmount     int64   `yaml:"min_deposit_amount"`
	RecentHistoryLimit   int     `yaml:"recent_history_limit"`
	RecentHistoryMonths  int     `yaml:"recent_history_months"`
}

func DefaultMembershipPolicy() MembershipPolicy {
	return MembershipPolicy{
		VIPDiscountRatio:     DefaultVIPDiscountRatio,
		VIPEligibilityVisits: DefaultVIPEligibilityVisits,
		VIPPrice:             DefaultVIPPrice,
		VIPValidityMonths:    DefaultVIPValidityMonths,
		MinDepositAmount:     DefaultMinDepositAmount,
		RecentHistoryLimit:   DefaultRecentHistoryLimit,
		RecentHistoryMonths:  DefaultRecentHistoryMonths,
	}
}

func loadPolicyFromEnv() MembershipPolicy {
	return MembershipPolicy{
		VIPDiscountRatio:     getEnvFloat(EnvVIPDiscountRatio, DefaultVIPDiscountRatio),
		VIPEligibilityVisits: getEnvNum(EnvVIPEligibilityVisits, DefaultVIPEligibilityVisits),
		VIPPrice:             getEnvInt64(EnvVIPPrice, DefaultVIPPrice),
		VIPValidityMonths:    getEnvNum(EnvVIPValidityMonths, DefaultVIPValidityMonths),
		MinDepositAmount:     getEnvInt64(EnvMinDepositAmount, DefaultMinDepositAmount),
		RecentHistoryLimit:   getEnvNum(EnvRecentHistoryLimit, DefaultRecentHistoryLimit),
		RecentHistoryMonths:  getEnvNum(EnvRecentHistoryMonths, DefaultRecentHistoryMonths),
	}
}

// ApplyPolicyFile overlays the fields present in a YAML policy file on top of
// base. Keys missing from the file keep their base value.
func ApplyPolicyFile(base MembershipPolicy, path string) (MembershipPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	policy := base
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return base, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	return policy, nil
}

func (p MembershipPolicy) Validate() []string {
	var errors []string

	if p.VIPDiscountRatio <= 0 || p.VIPDiscountRatio > 1 {
		errors = append(errors, fmt.Sprintf("VIPDiscountRatio must be in (0, 1], got: %v", p.VIPDiscountRatio))
	}
	if p.VIPEligibilityVisits <= 0 {
		errors = append(errors, fmt.Sprintf("VIPEligibilityVisits must be positive, got: %d", p.VIPEligibilityVisits))
	}
	if p.VIPPrice <= 0 {
		errors = append(errors, fmt.Sprintf("VIPPrice must be positive, got: %d", p.VIPPrice))
	}
	if p.VIPValidityMonths <= 0 {
		errors = append(errors, fmt.Sprintf("VIPValidityMonths must be positive, got: %d", p.VIPValidityMonths))
	}
	if p.MinDepositAmount <= 0 {
		errors = append(errors, fmt.Sprintf("MinDepositAmount must be positive, got: %d", p.MinDepositAmount))
	}
	if p.RecentHistoryLimit <= 0 {
		errors = append(errors, fmt.Sprintf("RecentHistoryLimit must be positive, got: %d", p.RecentHistoryLimit))
	}
	if p.RecentHistoryMonths <= 0 {
		errors = append(errors, fmt.Sprintf("RecentHistoryMonths must be positive, got: %d", p.RecentHistoryMonths))
	}

	return errors
}
