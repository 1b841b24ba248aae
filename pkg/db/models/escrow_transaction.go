package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendaria/vendaria-backend/pkg/enums"
)

// EscrowTransaction holds one sub-order's buyer payment on behalf of a seller.
// Exactly one row exists per sub-order; all mutation goes through the escrow
// service. GrossAmount, CommissionAmount and NetAmount are frozen at creation
// and never recomputed; RefundedAmount accumulates as refunds land.
type EscrowTransaction struct {
	ID                  uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID           uuid.UUID          `gorm:"column:payment_id;type:uuid;not null;index"`
	SubOrderID          uuid.UUID          `gorm:"column:sub_order_id;type:uuid;not null;uniqueIndex:ux_escrow_transactions_sub_order"`
	SellerStoreID       uuid.UUID          `gorm:"column:seller_store_id;type:uuid;not null;index"`
	CategoryID          *uuid.UUID         `gorm:"column:category_id;type:uuid"`
	SellerTier          enums.SellerTier   `gorm:"column:seller_tier;type:seller_tier;not null;default:'standard'"`
	OrderNumber         string             `gorm:"column:order_number;not null"`
	OrderDate           time.Time          `gorm:"column:order_date;not null;index"`
	Currency            enums.Currency     `gorm:"column:currency;type:text;not null;default:'USD'"`
	GrossAmount         decimal.Decimal    `gorm:"column:gross_amount;type:numeric(12,2);not null"`
	CommissionAmount    decimal.Decimal    `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	NetAmount           decimal.Decimal    `gorm:"column:net_amount;type:numeric(12,2);not null"`
	RefundedAmount      decimal.Decimal    `gorm:"column:refunded_amount;type:numeric(12,2);not null;default:0"`
	Status              enums.EscrowStatus `gorm:"column:status;type:escrow_status;not null;default:'held'"`
	EligibleForPayoutAt *time.Time         `gorm:"column:eligible_for_payout_at"`
	ReleasedAt          *time.Time         `gorm:"column:released_at"`
	ReturnedAt          *time.Time         `gorm:"column:returned_at"`
	Notes               *string            `gorm:"column:notes"`
	CommissionTxns      []CommissionTransaction `gorm:"foreignKey:EscrowID;constraint:OnDelete:RESTRICT"`
	AuditLogs           []EscrowAuditLog        `gorm:"foreignKey:EscrowID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// RemainingBalance returns the gross amount not yet refunded.
func (e EscrowTransaction) RemainingBalance() decimal.Decimal {
	return e.GrossAmount.Sub(e.RefundedAmount)
}
