package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendaria/vendaria-backend/pkg/enums"
)

// CommissionTransaction is an append-only audit row for one commission event.
// Refund adjustments carry a negative CommissionAmount and preserve the
// percentage and fixed fee that were applied at the original sale, never the
// rules in force when the refund landed.
type CommissionTransaction struct {
	ID                  uuid.UUID                       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EscrowID            uuid.UUID                       `gorm:"column:escrow_id;type:uuid;not null;index"`
	Type                enums.CommissionTransactionType `gorm:"column:type;type:commission_transaction_type;not null"`
	CommissionAmount    decimal.Decimal                 `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	PercentageApplied   decimal.Decimal                 `gorm:"column:percentage_applied;type:numeric(5,2);not null"`
	FixedFeeApplied     decimal.Decimal                 `gorm:"column:fixed_fee_applied;type:numeric(12,2);not null"`
	Source              enums.CommissionRuleScope       `gorm:"column:source;type:commission_rule_scope;not null"`
	GrossAtCalculation  decimal.Decimal                 `gorm:"column:gross_at_calculation;type:numeric(12,2);not null"`
	CreatedAt           time.Time                       `gorm:"column:created_at;autoCreateTime"`
}
