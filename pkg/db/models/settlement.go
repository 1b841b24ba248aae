package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendaria/vendaria-backend/pkg/enums"
)

// Settlement is one version of a seller's periodic escrow activity report.
// Versions chain backwards through PreviousSettlementID; only one version per
// (seller, period) carries IsCurrentVersion.
type Settlement struct {
	ID                   uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SettlementNumber     string                 `gorm:"column:settlement_number;not null;uniqueIndex:ux_settlements_number"`
	SellerStoreID        uuid.UUID              `gorm:"column:seller_store_id;type:uuid;not null;index"`
	PeriodStart          time.Time              `gorm:"column:period_start;not null"`
	PeriodEnd            time.Time              `gorm:"column:period_end;not null"`
	GrossSales           decimal.Decimal        `gorm:"column:gross_sales;type:numeric(14,2);not null"`
	Refunds              decimal.Decimal        `gorm:"column:refunds;type:numeric(14,2);not null"`
	Commission           decimal.Decimal        `gorm:"column:commission;type:numeric(14,2);not null"`
	Adjustments          decimal.Decimal        `gorm:"column:adjustments;type:numeric(14,2);not null"`
	NetAmount            decimal.Decimal        `gorm:"column:net_amount;type:numeric(14,2);not null"`
	TotalPayouts         decimal.Decimal        `gorm:"column:total_payouts;type:numeric(14,2);not null"`
	Status               enums.SettlementStatus `gorm:"column:status;type:settlement_status;not null;default:'draft'"`
	Version              int                    `gorm:"column:version;not null;default:1"`
	IsCurrentVersion     bool                   `gorm:"column:is_current_version;not null"`
	PreviousSettlementID *uuid.UUID             `gorm:"column:previous_settlement_id;type:uuid"`
	Items                []SettlementItem       `gorm:"foreignKey:SettlementID;constraint:OnDelete:CASCADE"`
	AdjustmentRows       []SettlementAdjustment `gorm:"foreignKey:SettlementID;constraint:OnDelete:CASCADE"`
	GeneratedAt          time.Time              `gorm:"column:generated_at;not null"`
	FinalizedAt          *time.Time             `gorm:"column:finalized_at"`
	CreatedAt            time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// SettlementItem freezes one escrow's figures as of settlement generation.
// Later refunds never rewrite the snapshot; they surface in a future
// settlement or as an explicit adjustment.
type SettlementItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SettlementID     uuid.UUID       `gorm:"column:settlement_id;type:uuid;not null;index"`
	EscrowID         uuid.UUID       `gorm:"column:escrow_id;type:uuid;not null"`
	SubOrderID       uuid.UUID       `gorm:"column:sub_order_id;type:uuid;not null"`
	OrderNumber      string          `gorm:"column:order_number;not null"`
	OrderDate        time.Time       `gorm:"column:order_date;not null"`
	GrossAmount      decimal.Decimal `gorm:"column:gross_amount;type:numeric(12,2);not null"`
	RefundAmount     decimal.Decimal `gorm:"column:refund_amount;type:numeric(12,2);not null"`
	CommissionAmount decimal.Decimal `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	NetAmount        decimal.Decimal `gorm:"column:net_amount;type:numeric(12,2);not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// SettlementAdjustment is a manual correction folded into its owning
// settlement's totals. Prior-period adjustments reference, without mutating,
// an earlier finalized settlement.
type SettlementAdjustment struct {
	ID                      uuid.UUID                      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SettlementID            uuid.UUID                      `gorm:"column:settlement_id;type:uuid;not null;index"`
	Type                    enums.SettlementAdjustmentType `gorm:"column:type;type:settlement_adjustment_type;not null"`
	Amount                  decimal.Decimal                `gorm:"column:amount;type:numeric(12,2);not null"`
	Description             string                         `gorm:"column:description;not null"`
	RelatedSettlementID     *uuid.UUID                     `gorm:"column:related_settlement_id;type:uuid"`
	IsPriorPeriodAdjustment bool                           `gorm:"column:is_prior_period_adjustment;not null;default:false"`
	CreatedBy               uuid.UUID                      `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt               time.Time                      `gorm:"column:created_at;autoCreateTime"`
}
