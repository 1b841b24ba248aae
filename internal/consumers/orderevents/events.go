package orderevents

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendaria/vendaria-backend/pkg/enums"
)

// Event types published by the order platform.
const (
	EventPaymentConfirmed = "payment_confirmed"
	EventOrderDelivered   = "order_delivered"
	EventOrderCancelled   = "order_cancelled"
	EventRefundRequested  = "refund_requested"
)

// Envelope is the wire format of inbound order events.
type Envelope struct {
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// PaymentConfirmedEvent carries one paid order split into per-seller
// sub-orders. Each sub-order becomes its own escrow allocation.
type PaymentConfirmedEvent struct {
	PaymentID   uuid.UUID         `json:"payment_id"`
	OrderNumber string            `json:"order_number"`
	OrderDate   time.Time         `json:"order_date"`
	Currency    enums.Currency    `json:"currency"`
	SubOrders   []PaymentSubOrder `json:"sub_orders"`
}

// PaymentSubOrder is one seller's slice of a confirmed payment.
type PaymentSubOrder struct {
	SubOrderID    uuid.UUID        `json:"sub_order_id"`
	SellerStoreID uuid.UUID        `json:"seller_store_id"`
	CategoryID    *uuid.UUID       `json:"category_id,omitempty"`
	SellerTier    enums.SellerTier `json:"seller_tier"`
	GrossAmount   decimal.Decimal  `json:"gross_amount"`
}

// OrderDeliveredEvent reports delivery confirmation for a sub-order.
type OrderDeliveredEvent struct {
	SubOrderID  uuid.UUID `json:"sub_order_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// OrderCancelledEvent reports a pre-delivery cancellation.
type OrderCancelledEvent struct {
	SubOrderID uuid.UUID `json:"sub_order_id"`
	Reason     string    `json:"reason,omitempty"`
}

// RefundRequestedEvent carries an approved refund for a sub-order.
type RefundRequestedEvent struct {
	SubOrderID uuid.UUID       `json:"sub_order_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason,omitempty"`
}
