package orderevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendaria/vendaria-backend/internal/escrow"
	"github.com/vendaria/vendaria-backend/pkg/db/models"
	pkgerrors "github.com/vendaria/vendaria-backend/pkg/errors"
	"github.com/vendaria/vendaria-backend/pkg/logger"
)

const consumerName = "order-events"

type escrowLedger interface {
	CreateAllocation(ctx context.Context, input escrow.CreateAllocationInput) (*models.EscrowTransaction, error)
	MarkEligible(ctx context.Context, subOrderID uuid.UUID, deliveredAt time.Time) (*models.EscrowTransaction, error)
	ReturnFull(ctx context.Context, subOrderID uuid.UUID, reason string) (*models.EscrowTransaction, error)
	Refund(ctx context.Context, input escrow.RefundInput) (*models.EscrowTransaction, error)
}

type escrowFinder interface {
	FindBySubOrderID(ctx context.Context, subOrderID uuid.UUID) (*models.EscrowTransaction, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer maps inbound order events onto escrow ledger operations.
// Malformed events are dropped; ledger failures are returned so the
// message is redelivered.
type Consumer struct {
	ledger  escrowLedger
	escrows escrowFinder
	manager idempotencyChecker
	logg    *logger.Logger
}

// NewConsumer builds the order events consumer.
func NewConsumer(ledger escrowLedger, escrows escrowFinder, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if ledger == nil {
		return nil, errors.New("escrow ledger is required")
	}
	if escrows == nil {
		return nil, errors.New("escrow finder is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		ledger:  ledger,
		escrows: escrows,
		manager: manager,
		logg:    logg,
	}, nil
}

// ErrDrop marks events that must be acked without processing.
var ErrDrop = errors.New("drop event")

// Process handles one decoded envelope. An ErrDrop return means the
// event is unusable and should be acked; any other error is transient
// and the message should be redelivered.
func (c *Consumer) Process(ctx context.Context, envelope Envelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": envelope.EventType,
	})

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Warn(logCtx, "invalid event id")
		return ErrDrop
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	if err := c.dispatch(logCtx, envelope); err != nil {
		if errors.Is(err, ErrDrop) {
			// leave the idempotency mark so the retry is also dropped
			c.logg.Warn(logCtx, "event dropped")
			return ErrDrop
		}
		_ = c.manager.Delete(ctx, consumerName, eventID)
		c.logg.Error(logCtx, "event processing failed", err)
		return err
	}
	return nil
}

func (c *Consumer) dispatch(ctx context.Context, envelope Envelope) error {
	switch envelope.EventType {
	case EventPaymentConfirmed:
		return c.handlePaymentConfirmed(ctx, envelope.Data)
	case EventOrderDelivered:
		return c.handleOrderDelivered(ctx, envelope.Data)
	case EventOrderCancelled:
		return c.handleOrderCancelled(ctx, envelope.Data)
	case EventRefundRequested:
		return c.handleRefundRequested(ctx, envelope.Data)
	default:
		c.logg.Info(ctx, "event type not handled")
		return nil
	}
}

func (c *Consumer) handlePaymentConfirmed(ctx context.Context, data json.RawMessage) error {
	var event PaymentConfirmedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("%w: decode payment confirmed: %s", ErrDrop, err)
	}
	if len(event.SubOrders) == 0 {
		return fmt.Errorf("%w: payment confirmed without sub-orders", ErrDrop)
	}
	// One allocation per sub-order. A transient failure redelivers the
	// whole event; idempotent creation absorbs the already-done items.
	for _, sub := range event.SubOrders {
		_, err := c.ledger.CreateAllocation(ctx, escrow.CreateAllocationInput{
			PaymentID:     event.PaymentID,
			SubOrderID:    sub.SubOrderID,
			SellerStoreID: sub.SellerStoreID,
			CategoryID:    sub.CategoryID,
			SellerTier:    sub.SellerTier,
			OrderNumber:   event.OrderNumber,
			OrderDate:     event.OrderDate,
			Currency:      event.Currency,
			GrossAmount:   sub.GrossAmount,
		})
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeValidation) || pkgerrors.HasCode(err, pkgerrors.CodeInvalidAmount) {
				subCtx := c.logg.WithFields(ctx, map[string]any{"sub_order_id": sub.SubOrderID.String()})
				c.logg.Warn(subCtx, "skipping unprocessable sub-order allocation")
				continue
			}
			return err
		}
	}
	return nil
}

func (c *Consumer) handleOrderDelivered(ctx context.Context, data json.RawMessage) error {
	var event OrderDeliveredEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("%w: decode order delivered: %s", ErrDrop, err)
	}
	_, err := c.ledger.MarkEligible(ctx, event.SubOrderID, event.DeliveredAt)
	return ignoreSettledState(err)
}

func (c *Consumer) handleOrderCancelled(ctx context.Context, data json.RawMessage) error {
	var event OrderCancelledEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("%w: decode order cancelled: %s", ErrDrop, err)
	}
	_, err := c.ledger.ReturnFull(ctx, event.SubOrderID, event.Reason)
	return ignoreSettledState(err)
}

func (c *Consumer) handleRefundRequested(ctx context.Context, data json.RawMessage) error {
	var event RefundRequestedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("%w: decode refund requested: %s", ErrDrop, err)
	}
	target, err := c.escrows.FindBySubOrderID(ctx, event.SubOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// escrow may not exist yet; redeliver until the payment lands
			return fmt.Errorf("escrow missing for sub-order %s", event.SubOrderID)
		}
		return err
	}
	_, err = c.ledger.Refund(ctx, escrow.RefundInput{
		EscrowID: target.ID,
		Amount:   event.Amount,
		Reason:   event.Reason,
	})
	if err != nil && pkgerrors.HasCode(err, pkgerrors.CodeRefundExceedsBal) {
		return fmt.Errorf("%w: %s", ErrDrop, err)
	}
	return ignoreSettledState(err)
}

// ignoreSettledState swallows transition conflicts: replays and late
// events against terminal escrows are facts of life, not failures.
func ignoreSettledState(err error) error {
	if err == nil {
		return nil
	}
	if pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		return nil
	}
	return err
}
