package orderevents

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendaria/vendaria-backend/internal/escrow"
	"github.com/vendaria/vendaria-backend/pkg/db/models"
	"github.com/vendaria/vendaria-backend/pkg/enums"
	pkgerrors "github.com/vendaria/vendaria-backend/pkg/errors"
	"github.com/vendaria/vendaria-backend/pkg/logger"
)

type fakeLedger struct {
	allocations []escrow.CreateAllocationInput
	eligible    []uuid.UUID
	returned    []uuid.UUID
	refunds     []escrow.RefundInput
	err         error
}

func (f *fakeLedger) CreateAllocation(ctx context.Context, input escrow.CreateAllocationInput) (*models.EscrowTransaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.allocations = append(f.allocations, input)
	return &models.EscrowTransaction{ID: uuid.New(), SubOrderID: input.SubOrderID}, nil
}

func (f *fakeLedger) MarkEligible(ctx context.Context, subOrderID uuid.UUID, deliveredAt time.Time) (*models.EscrowTransaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.eligible = append(f.eligible, subOrderID)
	return &models.EscrowTransaction{SubOrderID: subOrderID}, nil
}

func (f *fakeLedger) ReturnFull(ctx context.Context, subOrderID uuid.UUID, reason string) (*models.EscrowTransaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.returned = append(f.returned, subOrderID)
	return &models.EscrowTransaction{SubOrderID: subOrderID}, nil
}

func (f *fakeLedger) Refund(ctx context.Context, input escrow.RefundInput) (*models.EscrowTransaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.refunds = append(f.refunds, input)
	return &models.EscrowTransaction{ID: input.EscrowID}, nil
}

type fakeFinder struct {
	escrow *models.EscrowTransaction
}

func (f *fakeFinder) FindBySubOrderID(ctx context.Context, subOrderID uuid.UUID) (*models.EscrowTransaction, error) {
	if f.escrow == nil || f.escrow.SubOrderID != subOrderID {
		return nil, gorm.ErrRecordNotFound
	}
	return f.escrow, nil
}

type fakeIdempotency struct {
	seen    map[uuid.UUID]bool
	deleted []uuid.UUID
	err     error
}

func (f *fakeIdempotency) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = make(map[uuid.UUID]bool)
	}
	if f.seen[eventID] {
		return true, nil
	}
	f.seen[eventID] = true
	return false, nil
}

func (f *fakeIdempotency) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	f.deleted = append(f.deleted, eventID)
	delete(f.seen, eventID)
	return nil
}

func newTestConsumer(t *testing.T, ledger *fakeLedger, finder *fakeFinder, manager *fakeIdempotency) *Consumer {
	t.Helper()
	consumer, err := NewConsumer(ledger, finder, manager, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	return consumer
}

func envelope(t *testing.T, eventType string, data any) Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now(),
		Data:       raw,
	}
}

func TestProcessPaymentConfirmedAllocatesPerSubOrder(t *testing.T) {
	ledger := &fakeLedger{}
	consumer := newTestConsumer(t, ledger, &fakeFinder{}, &fakeIdempotency{})

	first := PaymentSubOrder{
		SubOrderID:    uuid.New(),
		SellerStoreID: uuid.New(),
		SellerTier:    enums.SellerTierStandard,
		GrossAmount:   decimal.RequireFromString("60.00"),
	}
	second := PaymentSubOrder{
		SubOrderID:    uuid.New(),
		SellerStoreID: uuid.New(),
		SellerTier:    enums.SellerTierGold,
		GrossAmount:   decimal.RequireFromString("25.00"),
	}
	event := PaymentConfirmedEvent{
		PaymentID:   uuid.New(),
		OrderNumber: "ORD-1001",
		OrderDate:   time.Now(),
		Currency:    enums.CurrencyUSD,
		SubOrders:   []PaymentSubOrder{first, second},
	}
	if err := consumer.Process(context.Background(), envelope(t, EventPaymentConfirmed, event)); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if len(ledger.allocations) != 2 {
		t.Fatalf("expected 2 allocations got %d", len(ledger.allocations))
	}
	if ledger.allocations[0].SubOrderID != first.SubOrderID || ledger.allocations[1].SubOrderID != second.SubOrderID {
		t.Fatal("expected one allocation per sub-order")
	}
	if ledger.allocations[1].PaymentID != event.PaymentID || ledger.allocations[1].OrderNumber != event.OrderNumber {
		t.Fatal("expected payment fields carried onto every allocation")
	}
	if !ledger.allocations[1].GrossAmount.Equal(second.GrossAmount) {
		t.Fatalf("expected gross 25.00 got %s", ledger.allocations[1].GrossAmount)
	}
}

func TestProcessPaymentConfirmedWithoutSubOrdersDropped(t *testing.T) {
	ledger := &fakeLedger{}
	consumer := newTestConsumer(t, ledger, &fakeFinder{}, &fakeIdempotency{})

	event := PaymentConfirmedEvent{
		PaymentID:   uuid.New(),
		OrderNumber: "ORD-1002",
		Currency:    enums.CurrencyUSD,
	}
	err := consumer.Process(context.Background(), envelope(t, EventPaymentConfirmed, event))
	if !errors.Is(err, ErrDrop) {
		t.Fatalf("expected drop got %v", err)
	}
	if len(ledger.allocations) != 0 {
		t.Fatal("expected no allocation")
	}
}

func TestProcessDuplicateEventSkipped(t *testing.T) {
	ledger := &fakeLedger{}
	manager := &fakeIdempotency{}
	consumer := newTestConsumer(t, ledger, &fakeFinder{}, manager)

	env := envelope(t, EventOrderDelivered, OrderDeliveredEvent{SubOrderID: uuid.New(), DeliveredAt: time.Now()})
	if err := consumer.Process(context.Background(), env); err != nil {
		t.Fatalf("first process failed: %v", err)
	}
	if err := consumer.Process(context.Background(), env); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if len(ledger.eligible) != 1 {
		t.Fatalf("expected one mark-eligible call got %d", len(ledger.eligible))
	}
}

func TestProcessTransientFailureReleasesIdempotencyMark(t *testing.T) {
	ledger := &fakeLedger{err: errors.New("db down")}
	manager := &fakeIdempotency{}
	consumer := newTestConsumer(t, ledger, &fakeFinder{}, manager)

	env := envelope(t, EventOrderDelivered, OrderDeliveredEvent{SubOrderID: uuid.New(), DeliveredAt: time.Now()})
	if err := consumer.Process(context.Background(), env); err == nil {
		t.Fatal("expected error")
	}
	if len(manager.deleted) != 1 {
		t.Fatal("expected idempotency mark released for redelivery")
	}

	ledger.err = nil
	if err := consumer.Process(context.Background(), env); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if len(ledger.eligible) != 1 {
		t.Fatal("expected retry to process the event")
	}
}

func TestProcessCancelledReturnsFull(t *testing.T) {
	ledger := &fakeLedger{}
	consumer := newTestConsumer(t, ledger, &fakeFinder{}, &fakeIdempotency{})

	subOrderID := uuid.New()
	env := envelope(t, EventOrderCancelled, OrderCancelledEvent{SubOrderID: subOrderID, Reason: "buyer cancelled"})
	if err := consumer.Process(context.Background(), env); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if len(ledger.returned) != 1 || ledger.returned[0] != subOrderID {
		t.Fatal("expected full return")
	}
}

func TestProcessRefundRequestedResolvesEscrow(t *testing.T) {
	subOrderID := uuid.New()
	escrowID := uuid.New()
	ledger := &fakeLedger{}
	finder := &fakeFinder{escrow: &models.EscrowTransaction{ID: escrowID, SubOrderID: subOrderID}}
	consumer := newTestConsumer(t, ledger, finder, &fakeIdempotency{})

	env := envelope(t, EventRefundRequested, RefundRequestedEvent{
		SubOrderID: subOrderID,
		Amount:     decimal.RequireFromString("30.00"),
		Reason:     "item returned",
	})
	if err := consumer.Process(context.Background(), env); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if len(ledger.refunds) != 1 || ledger.refunds[0].EscrowID != escrowID {
		t.Fatal("expected refund against resolved escrow")
	}
}

func TestProcessLateEventAgainstSettledEscrowAcked(t *testing.T) {
	ledger := &fakeLedger{err: pkgerrors.New(pkgerrors.CodeInvalidTransition, "escrow already released")}
	consumer := newTestConsumer(t, ledger, &fakeFinder{}, &fakeIdempotency{})

	env := envelope(t, EventOrderDelivered, OrderDeliveredEvent{SubOrderID: uuid.New(), DeliveredAt: time.Now()})
	if err := consumer.Process(context.Background(), env); err != nil {
		t.Fatalf("late event should be swallowed: %v", err)
	}
}

func TestProcessUnknownEventTypeIgnored(t *testing.T) {
	ledger := &fakeLedger{}
	consumer := newTestConsumer(t, ledger, &fakeFinder{}, &fakeIdempotency{})

	env := envelope(t, "order_shipped", map[string]any{"sub_order_id": uuid.NewString()})
	if err := consumer.Process(context.Background(), env); err != nil {
		t.Fatalf("unknown event should be ignored: %v", err)
	}
}

func TestProcessMalformedPayloadDropped(t *testing.T) {
	ledger := &fakeLedger{}
	consumer := newTestConsumer(t, ledger, &fakeFinder{}, &fakeIdempotency{})

	env := Envelope{
		EventID:   uuid.NewString(),
		EventType: EventPaymentConfirmed,
		Data:      json.RawMessage(`{"gross_amount": "not-a-number"`),
	}
	err := consumer.Process(context.Background(), env)
	if !errors.Is(err, ErrDrop) {
		t.Fatalf("expected drop got %v", err)
	}
	if len(ledger.allocations) != 0 {
		t.Fatal("expected no allocation")
	}
}
