package enums

import "fmt"

// SettlementStatus tracks the lifecycle of a generated settlement version.
type SettlementStatus string

const (
	SettlementStatusDraft      SettlementStatus = "draft"
	SettlementStatusFinalized  SettlementStatus = "finalized"
	SettlementStatusSuperseded SettlementStatus = "superseded"
)

var validSettlementStatuses = []SettlementStatus{
	SettlementStatusDraft,
	SettlementStatusFinalized,
	SettlementStatusSuperseded,
}

// String implements fmt.Stringer.
func (s SettlementStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SettlementStatus.
func (s SettlementStatus) IsValid() bool {
	for _, candidate := range validSettlementStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSettlementStatus converts raw input into a SettlementStatus.
func ParseSettlementStatus(value string) (SettlementStatus, error) {
	for _, candidate := range validSettlementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid settlement status %q", value)
}

// SettlementAdjustmentType classifies manual corrections applied to a settlement.
type SettlementAdjustmentType string

const (
	AdjustmentTypePriorPeriod      SettlementAdjustmentType = "prior_period_adjustment"
	AdjustmentTypeCredit           SettlementAdjustmentType = "credit"
	AdjustmentTypeDebit            SettlementAdjustmentType = "debit"
	AdjustmentTypeFee              SettlementAdjustmentType = "fee"
	AdjustmentTypeRefundAdjustment SettlementAdjustmentType = "refund_adjustment"
	AdjustmentTypeOther            SettlementAdjustmentType = "other"
)

var validSettlementAdjustmentTypes = []SettlementAdjustmentType{
	AdjustmentTypePriorPeriod,
	AdjustmentTypeCredit,
	AdjustmentTypeDebit,
	AdjustmentTypeFee,
	AdjustmentTypeRefundAdjustment,
	AdjustmentTypeOther,
}

// String implements fmt.Stringer.
func (s SettlementAdjustmentType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SettlementAdjustmentType.
func (s SettlementAdjustmentType) IsValid() bool {
	for _, candidate := range validSettlementAdjustmentTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSettlementAdjustmentType converts raw input into a SettlementAdjustmentType.
func ParseSettlementAdjustmentType(value string) (SettlementAdjustmentType, error) {
	for _, candidate := range validSettlementAdjustmentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid settlement adjustment type %q", value)
}
