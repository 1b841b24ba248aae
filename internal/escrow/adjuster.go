package escrow

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/vendaria/vendaria-backend/pkg/errors"
)

// Adjustment describes the commission correction for a refund.
type Adjustment struct {
	// CommissionAdjustment is negative: it gives commission back in
	// proportion to the refunded share of the original gross.
	CommissionAdjustment decimal.Decimal
	// PercentageApplied and FixedFeeApplied echo the terms of the
	// original commission so the ledger row is self-describing.
	PercentageApplied decimal.Decimal
	FixedFeeApplied   decimal.Decimal
}

// AdjustForRefund computes the proportional commission reversal for a
// refund. The ratio is refundAmount over the original gross, applied to
// the commission charged at allocation. The original percentage and
// fixed fee are never re-resolved, rule changes after the sale do not
// move historical money.
func AdjustForRefund(originalGross, originalCommission, refundAmount, pctApplied, feeApplied decimal.Decimal) (*Adjustment, error) {
	if refundAmount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "refund amount must be positive")
	}
	if originalGross.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "original gross must be positive")
	}

	ratio := refundAmount.Div(originalGross)
	reversal := originalCommission.Mul(ratio).Round(2)

	return &Adjustment{
		CommissionAdjustment: reversal.Neg(),
		PercentageApplied:    pctApplied,
		FixedFeeApplied:      feeApplied,
	}, nil
}
