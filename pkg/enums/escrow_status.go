package enums

import "fmt"

// EscrowStatus tracks the lifecycle of an escrowed sub-order payment.
type EscrowStatus string

const (
	EscrowStatusHeld               EscrowStatus = "held"
	EscrowStatusEligibleForPayout  EscrowStatus = "eligible_for_payout"
	EscrowStatusReleased           EscrowStatus = "released"
	EscrowStatusReturnedToBuyer    EscrowStatus = "returned_to_buyer"
	EscrowStatusPartiallyRefunded  EscrowStatus = "partially_refunded"
	EscrowStatusInDispute          EscrowStatus = "in_dispute"
)

var validEscrowStatuses = []EscrowStatus{
	EscrowStatusHeld,
	EscrowStatusEligibleForPayout,
	EscrowStatusReleased,
	EscrowStatusReturnedToBuyer,
	EscrowStatusPartiallyRefunded,
	EscrowStatusInDispute,
}

// String implements fmt.Stringer.
func (e EscrowStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EscrowStatus.
func (e EscrowStatus) IsValid() bool {
	for _, candidate := range validEscrowStatuses {
		if candidate == e {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave the status.
func (e EscrowStatus) IsTerminal() bool {
	return e == EscrowStatusReleased || e == EscrowStatusReturnedToBuyer
}

// ParseEscrowStatus converts raw input into an EscrowStatus.
func ParseEscrowStatus(value string) (EscrowStatus, error) {
	for _, candidate := range validEscrowStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid escrow status %q", value)
}
