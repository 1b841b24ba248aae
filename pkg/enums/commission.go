package enums

import "fmt"

// CommissionRuleScope identifies which slice of the marketplace a rule applies to.
type CommissionRuleScope string

const (
	CommissionRuleScopeGlobal     CommissionRuleScope = "global"
	CommissionRuleScopeCategory   CommissionRuleScope = "category"
	CommissionRuleScopeSeller     CommissionRuleScope = "seller"
	CommissionRuleScopeSellerTier CommissionRuleScope = "seller_tier"
)

var validCommissionRuleScopes = []CommissionRuleScope{
	CommissionRuleScopeGlobal,
	CommissionRuleScopeCategory,
	CommissionRuleScopeSeller,
	CommissionRuleScopeSellerTier,
}

// String implements fmt.Stringer.
func (c CommissionRuleScope) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CommissionRuleScope.
func (c CommissionRuleScope) IsValid() bool {
	for _, candidate := range validCommissionRuleScopes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCommissionRuleScope converts raw input into a CommissionRuleScope.
func ParseCommissionRuleScope(value string) (CommissionRuleScope, error) {
	for _, candidate := range validCommissionRuleScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commission rule scope %q", value)
}

// CommissionTransactionType distinguishes the append-only commission audit rows.
type CommissionTransactionType string

const (
	CommissionTransactionTypeInitial          CommissionTransactionType = "initial"
	CommissionTransactionTypeRefundAdjustment CommissionTransactionType = "refund_adjustment"
	CommissionTransactionTypeClawback         CommissionTransactionType = "clawback"
)

var validCommissionTransactionTypes = []CommissionTransactionType{
	CommissionTransactionTypeInitial,
	CommissionTransactionTypeRefundAdjustment,
	CommissionTransactionTypeClawback,
}

// String implements fmt.Stringer.
func (c CommissionTransactionType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CommissionTransactionType.
func (c CommissionTransactionType) IsValid() bool {
	for _, candidate := range validCommissionTransactionTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCommissionTransactionType converts raw input into a CommissionTransactionType.
func ParseCommissionTransactionType(value string) (CommissionTransactionType, error) {
	for _, candidate := range validCommissionTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commission transaction type %q", value)
}
