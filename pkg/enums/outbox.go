package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateEscrowTransaction OutboxAggregateType = "escrow_transaction"
	AggregateSettlement        OutboxAggregateType = "settlement"
	AggregateCommissionRule    OutboxAggregateType = "commission_rule"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateEscrowTransaction,
	AggregateSettlement,
	AggregateCommissionRule,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventEscrowCreated        OutboxEventType = "escrow_created"
	EventEscrowMarkedEligible OutboxEventType = "escrow_marked_eligible"
	EventEscrowReleased       OutboxEventType = "escrow_released"
	EventEscrowRefunded       OutboxEventType = "escrow_refunded"
	EventEscrowReturned       OutboxEventType = "escrow_returned"
	EventEscrowDisputed       OutboxEventType = "escrow_disputed"
	EventEscrowDisputeClosed  OutboxEventType = "escrow_dispute_closed"
	EventClawbackRecorded     OutboxEventType = "clawback_recorded"
	EventSettlementGenerated  OutboxEventType = "settlement_generated"
	EventSettlementFinalized  OutboxEventType = "settlement_finalized"
	EventSettlementSuperseded OutboxEventType = "settlement_superseded"
)

var validOutboxEventTypes = []OutboxEventType{
	EventEscrowCreated,
	EventEscrowMarkedEligible,
	EventEscrowReleased,
	EventEscrowRefunded,
	EventEscrowReturned,
	EventEscrowDisputed,
	EventEscrowDisputeClosed,
	EventClawbackRecorded,
	EventSettlementGenerated,
	EventSettlementFinalized,
	EventSettlementSuperseded,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
