package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendaria/vendaria-backend/pkg/enums"
)

// EscrowCreatedEvent signals a confirmed payment captured into escrow.
type EscrowCreatedEvent struct {
	EscrowID         uuid.UUID       `json:"escrow_id"`
	PaymentID        uuid.UUID       `json:"payment_id"`
	SubOrderID       uuid.UUID       `json:"sub_order_id"`
	SellerStoreID    uuid.UUID       `json:"seller_store_id"`
	GrossAmount      decimal.Decimal `json:"gross_amount"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	Currency         enums.Currency  `json:"currency"`
}

// EscrowMarkedEligibleEvent is emitted when the hold window has been scheduled.
type EscrowMarkedEligibleEvent struct {
	EscrowID            uuid.UUID `json:"escrow_id"`
	SubOrderID          uuid.UUID `json:"sub_order_id"`
	SellerStoreID       uuid.UUID `json:"seller_store_id"`
	EligibleForPayoutAt time.Time `json:"eligible_for_payout_at"`
}

// EscrowReleasedEvent reports funds released to the seller balance.
type EscrowReleasedEvent struct {
	EscrowID      uuid.UUID       `json:"escrow_id"`
	SubOrderID    uuid.UUID       `json:"sub_order_id"`
	SellerStoreID uuid.UUID       `json:"seller_store_id"`
	NetReleased   decimal.Decimal `json:"net_released"`
	ReleasedAt    time.Time       `json:"released_at"`
}

// EscrowRefundedEvent carries a partial or full refund applied to escrow.
type EscrowRefundedEvent struct {
	EscrowID             uuid.UUID          `json:"escrow_id"`
	SubOrderID           uuid.UUID          `json:"sub_order_id"`
	SellerStoreID        uuid.UUID          `json:"seller_store_id"`
	RefundAmount         decimal.Decimal    `json:"refund_amount"`
	RefundedTotal        decimal.Decimal    `json:"refunded_total"`
	CommissionAdjustment decimal.Decimal    `json:"commission_adjustment"`
	Status               enums.EscrowStatus `json:"status"`
}

// EscrowReturnedEvent is emitted when the full balance goes back to the buyer.
type EscrowReturnedEvent struct {
	EscrowID      uuid.UUID       `json:"escrow_id"`
	SubOrderID    uuid.UUID       `json:"sub_order_id"`
	SellerStoreID uuid.UUID       `json:"seller_store_id"`
	ReturnedTotal decimal.Decimal `json:"returned_total"`
	ReturnedAt    time.Time       `json:"returned_at"`
}

// EscrowDisputedEvent freezes an escrow pending dispute resolution.
type EscrowDisputedEvent struct {
	EscrowID      uuid.UUID `json:"escrow_id"`
	SubOrderID    uuid.UUID `json:"sub_order_id"`
	SellerStoreID uuid.UUID `json:"seller_store_id"`
	Note          string    `json:"note,omitempty"`
}

// EscrowDisputeClosedEvent restores an escrow after a dispute is resolved.
type EscrowDisputeClosedEvent struct {
	EscrowID       uuid.UUID          `json:"escrow_id"`
	SubOrderID     uuid.UUID          `json:"sub_order_id"`
	SellerStoreID  uuid.UUID          `json:"seller_store_id"`
	RestoredStatus enums.EscrowStatus `json:"restored_status"`
	Note           string             `json:"note,omitempty"`
}

// ClawbackRecordedEvent reports a post-release recovery from a seller.
type ClawbackRecordedEvent struct {
	EscrowID      uuid.UUID       `json:"escrow_id"`
	SubOrderID    uuid.UUID       `json:"sub_order_id"`
	SellerStoreID uuid.UUID       `json:"seller_store_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason,omitempty"`
}

// SettlementGeneratedEvent announces a new draft settlement version.
type SettlementGeneratedEvent struct {
	SettlementID     uuid.UUID       `json:"settlement_id"`
	SettlementNumber string          `json:"settlement_number"`
	SellerStoreID    uuid.UUID       `json:"seller_store_id"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	Version          int             `json:"version"`
	NetAmount        decimal.Decimal `json:"net_amount"`
}

// SettlementFinalizedEvent locks a settlement version for payout.
type SettlementFinalizedEvent struct {
	SettlementID     uuid.UUID       `json:"settlement_id"`
	SettlementNumber string          `json:"settlement_number"`
	SellerStoreID    uuid.UUID       `json:"seller_store_id"`
	Version          int             `json:"version"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	FinalizedAt      time.Time       `json:"finalized_at"`
}

// SettlementSupersededEvent points a stale settlement at its replacement.
type SettlementSupersededEvent struct {
	SettlementID     uuid.UUID `json:"settlement_id"`
	SettlementNumber string    `json:"settlement_number"`
	SellerStoreID    uuid.UUID `json:"seller_store_id"`
	ReplacedByID     uuid.UUID `json:"replaced_by_id"`
	Version          int       `json:"version"`
}
