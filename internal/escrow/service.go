package escrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendaria/vendaria-backend/internal/commission"
	dbpkg "github.com/vendaria/vendaria-backend/pkg/db"
	"github.com/vendaria/vendaria-backend/pkg/db/models"
	"github.com/vendaria/vendaria-backend/pkg/enums"
	pkgerrors "github.com/vendaria/vendaria-backend/pkg/errors"
	"github.com/vendaria/vendaria-backend/pkg/logger"
	"github.com/vendaria/vendaria-backend/pkg/outbox"
	"github.com/vendaria/vendaria-backend/pkg/outbox/payloads"
	"github.com/vendaria/vendaria-backend/pkg/pagination"
)

// refundTolerance absorbs sub-cent drift between the payment gateway's
// refund total and the escrowed gross.
var refundTolerance = decimal.RequireFromString("0.01")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type commissionResolver interface {
	Resolve(ctx context.Context, input commission.ResolveInput) (*commission.Decision, error)
}

// Service owns the escrow lifecycle. Every mutation runs in a single
// transaction that re-reads the row, checks the transition, writes the
// ledger rows, and queues the outbox event.
type Service interface {
	CreateAllocation(ctx context.Context, input CreateAllocationInput) (*models.EscrowTransaction, error)
	MarkEligible(ctx context.Context, subOrderID uuid.UUID, deliveredAt time.Time) (*models.EscrowTransaction, error)
	Release(ctx context.Context, escrowID uuid.UUID) (*models.EscrowTransaction, error)
	Refund(ctx context.Context, input RefundInput) (*models.EscrowTransaction, error)
	ReturnFull(ctx context.Context, subOrderID uuid.UUID, reason string) (*models.EscrowTransaction, error)
	MarkDisputed(ctx context.Context, escrowID uuid.UUID, note string) (*models.EscrowTransaction, error)
	ResolveDispute(ctx context.Context, escrowID uuid.UUID, note string) (*models.EscrowTransaction, error)
	RecordClawback(ctx context.Context, input ClawbackInput) (*models.CommissionTransaction, error)
	GetEscrow(ctx context.Context, escrowID uuid.UUID) (*EscrowDetail, error)
	ListEscrows(ctx context.Context, filters ListFilters, params pagination.Params) (*EscrowList, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	resolver commissionResolver
	logg     *logger.Logger
	holdDays int
	now      func() time.Time
}

// NewService wires the escrow service. holdDays is the payout hold
// window applied when an order is delivered.
func NewService(repo Repository, tx txRunner, ob outboxPublisher, resolver commissionResolver, logg *logger.Logger, holdDays int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("escrow repository is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("commission resolver is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if holdDays <= 0 {
		return nil, fmt.Errorf("hold days must be positive")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   ob,
		resolver: resolver,
		logg:     logg,
		holdDays: holdDays,
		now:      time.Now,
	}, nil
}

// CreateAllocationInput carries the payment-confirmed snapshot for one
// seller's slice of an order.
type CreateAllocationInput struct {
	PaymentID     uuid.UUID
	SubOrderID    uuid.UUID
	SellerStoreID uuid.UUID
	CategoryID    *uuid.UUID
	SellerTier    enums.SellerTier
	OrderNumber   string
	OrderDate     time.Time
	Currency      enums.Currency
	GrossAmount   decimal.Decimal
}

// RefundInput describes a partial or full refund against an escrow.
type RefundInput struct {
	EscrowID uuid.UUID
	Amount   decimal.Decimal
	Reason   string
}

// ClawbackInput records a post-release recovery against a seller.
type ClawbackInput struct {
	EscrowID uuid.UUID
	Amount   decimal.Decimal
	Reason   string
}

// EscrowDetail bundles an escrow with its ledger rows for the admin API.
type EscrowDetail struct {
	Escrow                 *models.EscrowTransaction
	CommissionTransactions []models.CommissionTransaction
	AuditLog               []models.EscrowAuditLog
}

// CreateAllocation captures a confirmed payment into escrow. The call
// is idempotent on sub-order: a second confirmation for the same
// sub-order returns the existing escrow unchanged.
func (s *service) CreateAllocation(ctx context.Context, input CreateAllocationInput) (*models.EscrowTransaction, error) {
	if input.GrossAmount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "gross amount must be positive")
	}
	if input.PaymentID == uuid.Nil || input.SubOrderID == uuid.Nil || input.SellerStoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment, sub-order and seller identifiers are required")
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency")
	}

	existing, err := s.repo.FindBySubOrderID(ctx, input.SubOrderID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	decision, err := s.resolver.Resolve(ctx, commission.ResolveInput{
		SellerStoreID: input.SellerStoreID,
		CategoryID:    input.CategoryID,
		SellerTier:    input.SellerTier,
		SaleDate:      input.OrderDate,
		GrossAmount:   input.GrossAmount,
	})
	if err != nil {
		return nil, err
	}

	commissionAmount := decision.CommissionFor(input.GrossAmount)
	netAmount := input.GrossAmount.Sub(commissionAmount)

	escrow := &models.EscrowTransaction{
		ID:               uuid.New(),
		PaymentID:        input.PaymentID,
		SubOrderID:       input.SubOrderID,
		SellerStoreID:    input.SellerStoreID,
		CategoryID:       input.CategoryID,
		SellerTier:       input.SellerTier,
		OrderNumber:      input.OrderNumber,
		OrderDate:        input.OrderDate,
		Currency:         input.Currency,
		GrossAmount:      input.GrossAmount,
		CommissionAmount: commissionAmount,
		NetAmount:        netAmount,
		RefundedAmount:   decimal.Zero,
		Status:           enums.EscrowStatusHeld,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, escrow); err != nil {
			return err
		}
		txn := &models.CommissionTransaction{
			ID:                 uuid.New(),
			EscrowID:           escrow.ID,
			Type:               enums.CommissionTransactionTypeInitial,
			CommissionAmount:   commissionAmount,
			PercentageApplied:  decision.Percentage,
			FixedFeeApplied:    decision.FixedFee,
			Source:             decision.Source,
			GrossAtCalculation: input.GrossAmount,
		}
		if err := repo.CreateCommissionTransaction(ctx, txn); err != nil {
			return err
		}
		if err := repo.AppendAudit(ctx, &models.EscrowAuditLog{
			ID:         uuid.New(),
			EscrowID:   escrow.ID,
			FromStatus: enums.EscrowStatusHeld,
			ToStatus:   enums.EscrowStatusHeld,
			Note:       "escrow created from confirmed payment",
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEscrowCreated,
			AggregateType: enums.AggregateEscrowTransaction,
			AggregateID:   escrow.ID,
			Data: payloads.EscrowCreatedEvent{
				EscrowID:         escrow.ID,
				PaymentID:        escrow.PaymentID,
				SubOrderID:       escrow.SubOrderID,
				SellerStoreID:    escrow.SellerStoreID,
				GrossAmount:      escrow.GrossAmount,
				CommissionAmount: escrow.CommissionAmount,
				NetAmount:        escrow.NetAmount,
				Currency:         escrow.Currency,
			},
			Version: 1,
		})
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_escrow_transactions_sub_order") {
			return s.repo.FindBySubOrderID(ctx, input.SubOrderID)
		}
		return nil, err
	}

	logCtx := s.logg.WithEscrowID(ctx, escrow.ID.String())
	s.logg.Info(logCtx, "escrow allocation created")
	return escrow, nil
}

// MarkEligible schedules the payout hold window after delivery. A held
// escrow becomes eligible_for_payout; a partially refunded escrow keeps
// its status but gains the payout timestamp for its remaining balance.
func (s *service) MarkEligible(ctx context.Context, subOrderID uuid.UUID, deliveredAt time.Time) (*models.EscrowTransaction, error) {
	if deliveredAt.IsZero() {
		deliveredAt = s.now()
	}
	eligibleAt := deliveredAt.Add(time.Duration(s.holdDays) * 24 * time.Hour)

	var out *models.EscrowTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		escrow, err := repo.FindBySubOrderID(ctx, subOrderID)
		if err != nil {
			return notFoundOr(err, "escrow not found for sub-order")
		}

		updates := map[string]any{"eligible_for_payout_at": eligibleAt}
		to := escrow.Status
		switch escrow.Status {
		case enums.EscrowStatusHeld:
			to = enums.EscrowStatusEligibleForPayout
			updates["status"] = to
		case enums.EscrowStatusPartiallyRefunded:
			// remaining balance becomes payable, status stays
		default:
			return transitionErr(escrow.Status, enums.EscrowStatusEligibleForPayout)
		}

		if err := repo.Update(ctx, escrow.ID, updates); err != nil {
			return err
		}
		if err := repo.AppendAudit(ctx, &models.EscrowAuditLog{
			ID:         uuid.New(),
			EscrowID:   escrow.ID,
			FromStatus: escrow.Status,
			ToStatus:   to,
			Note:       "delivery confirmed, payout hold scheduled",
		}); err != nil {
			return err
		}
		escrow.Status = to
		escrow.EligibleForPayoutAt = &eligibleAt
		out = escrow
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEscrowMarkedEligible,
			AggregateType: enums.AggregateEscrowTransaction,
			AggregateID:   escrow.ID,
			Data: payloads.EscrowMarkedEligibleEvent{
				EscrowID:            escrow.ID,
				SubOrderID:          escrow.SubOrderID,
				SellerStoreID:       escrow.SellerStoreID,
				EligibleForPayoutAt: eligibleAt,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Release pays out the remaining balance. The status check happens
// inside the transaction so a refund or dispute landing between the
// sweep's scan and this call wins.
func (s *service) Release(ctx context.Context, escrowID uuid.UUID) (*models.EscrowTransaction, error) {
	var out *models.EscrowTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		escrow, err := repo.FindByID(ctx, escrowID)
		if err != nil {
			return notFoundOr(err, "escrow not found")
		}

		releasable := escrow.Status == enums.EscrowStatusEligibleForPayout ||
			(escrow.Status == enums.EscrowStatusPartiallyRefunded && escrow.EligibleForPayoutAt != nil)
		if !releasable {
			return transitionErr(escrow.Status, enums.EscrowStatusReleased)
		}
		if escrow.EligibleForPayoutAt == nil || escrow.EligibleForPayoutAt.After(s.now()) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "payout hold window has not elapsed")
		}

		commissionTotal, err := repo.SumCommission(ctx, escrow.ID)
		if err != nil {
			return err
		}
		// net_amount keeps its creation-time value; the payout figure
		// travels in the event and the audit trail only.
		netReleased := escrow.GrossAmount.Sub(escrow.RefundedAmount).Sub(commissionTotal)

		releasedAt := s.now()
		if err := repo.Update(ctx, escrow.ID, map[string]any{
			"status":      enums.EscrowStatusReleased,
			"released_at": releasedAt,
		}); err != nil {
			return err
		}
		if err := repo.AppendAudit(ctx, &models.EscrowAuditLog{
			ID:         uuid.New(),
			EscrowID:   escrow.ID,
			FromStatus: escrow.Status,
			ToStatus:   enums.EscrowStatusReleased,
			Note:       fmt.Sprintf("released %s to seller", netReleased.StringFixed(2)),
		}); err != nil {
			return err
		}
		escrow.Status = enums.EscrowStatusReleased
		escrow.ReleasedAt = &releasedAt
		out = escrow
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEscrowReleased,
			AggregateType: enums.AggregateEscrowTransaction,
			AggregateID:   escrow.ID,
			Data: payloads.EscrowReleasedEvent{
				EscrowID:      escrow.ID,
				SubOrderID:    escrow.SubOrderID,
				SellerStoreID: escrow.SellerStoreID,
				NetReleased:   netReleased,
				ReleasedAt:    releasedAt,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithEscrowID(ctx, escrowID.String())
	s.logg.Info(logCtx, "escrow released")
	return out, nil
}

// Refund applies a partial or full refund before release. The
// commission reversal is proportional to the refunded share of the
// original gross, using the rule terms captured at allocation.
func (s *service) Refund(ctx context.Context, input RefundInput) (*models.EscrowTransaction, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "refund amount must be positive")
	}

	var out *models.EscrowTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		escrow, err := repo.FindByID(ctx, input.EscrowID)
		if err != nil {
			return notFoundOr(err, "escrow not found")
		}

		switch escrow.Status {
		case enums.EscrowStatusHeld, enums.EscrowStatusEligibleForPayout, enums.EscrowStatusPartiallyRefunded:
		default:
			return transitionErr(escrow.Status, enums.EscrowStatusPartiallyRefunded)
		}

		newRefunded := escrow.RefundedAmount.Add(input.Amount)
		if newRefunded.Sub(escrow.GrossAmount).GreaterThan(refundTolerance) {
			return pkgerrors.New(pkgerrors.CodeRefundExceedsBal, "refund exceeds escrowed balance").
				WithDetails(map[string]any{
					"gross_amount":     escrow.GrossAmount,
					"already_refunded": escrow.RefundedAmount,
					"refund_amount":    input.Amount,
				})
		}

		initial, err := initialCommission(ctx, repo, escrow.ID)
		if err != nil {
			return err
		}
		adjustment, err := AdjustForRefund(
			escrow.GrossAmount,
			initial.CommissionAmount,
			input.Amount,
			initial.PercentageApplied,
			initial.FixedFeeApplied,
		)
		if err != nil {
			return err
		}
		if err := repo.CreateCommissionTransaction(ctx, &models.CommissionTransaction{
			ID:                 uuid.New(),
			EscrowID:           escrow.ID,
			Type:               enums.CommissionTransactionTypeRefundAdjustment,
			CommissionAmount:   adjustment.CommissionAdjustment,
			PercentageApplied:  adjustment.PercentageApplied,
			FixedFeeApplied:    adjustment.FixedFeeApplied,
			Source:             initial.Source,
			GrossAtCalculation: escrow.GrossAmount,
		}); err != nil {
			return err
		}

		full := newRefunded.GreaterThanOrEqual(escrow.GrossAmount) ||
			escrow.GrossAmount.Sub(newRefunded).LessThanOrEqual(refundTolerance)

		updates := map[string]any{"refunded_amount": newRefunded}
		to := enums.EscrowStatusPartiallyRefunded
		var returnedAt *time.Time
		if full {
			to = enums.EscrowStatusReturnedToBuyer
			now := s.now()
			returnedAt = &now
			updates["returned_at"] = now
		}
		updates["status"] = to
		if err := repo.Update(ctx, escrow.ID, updates); err != nil {
			return err
		}
		if err := repo.AppendAudit(ctx, &models.EscrowAuditLog{
			ID:         uuid.New(),
			EscrowID:   escrow.ID,
			FromStatus: escrow.Status,
			ToStatus:   to,
			Note:       refundNote(input.Reason, full),
		}); err != nil {
			return err
		}
		escrow.Status = to
		escrow.RefundedAmount = newRefunded
		escrow.ReturnedAt = returnedAt
		out = escrow

		if full {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventEscrowReturned,
				AggregateType: enums.AggregateEscrowTransaction,
				AggregateID:   escrow.ID,
				Data: payloads.EscrowReturnedEvent{
					EscrowID:      escrow.ID,
					SubOrderID:    escrow.SubOrderID,
					SellerStoreID: escrow.SellerStoreID,
					ReturnedTotal: newRefunded,
					ReturnedAt:    *returnedAt,
				},
				Version: 1,
			})
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEscrowRefunded,
			AggregateType: enums.AggregateEscrowTransaction,
			AggregateID:   escrow.ID,
			Data: payloads.EscrowRefundedEvent{
				EscrowID:             escrow.ID,
				SubOrderID:           escrow.SubOrderID,
				SellerStoreID:        escrow.SellerStoreID,
				RefundAmount:         input.Amount,
				RefundedTotal:        newRefunded,
				CommissionAdjustment: adjustment.CommissionAdjustment,
				Status:               to,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReturnFull refunds whatever balance remains, used when an order is
// cancelled before delivery.
func (s *service) ReturnFull(ctx context.Context, subOrderID uuid.UUID, reason string) (*models.EscrowTransaction, error) {
	escrow, err := s.repo.FindBySubOrderID(ctx, subOrderID)
	if err != nil {
		return nil, notFoundOr(err, "escrow not found for sub-order")
	}
	remaining := escrow.GrossAmount.Sub(escrow.RefundedAmount)
	if remaining.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "no escrowed balance remains")
	}
	if reason == "" {
		reason = "order cancelled"
	}
	return s.Refund(ctx, RefundInput{EscrowID: escrow.ID, Amount: remaining, Reason: reason})
}

// MarkDisputed freezes an escrow. Frozen escrows are skipped by the
// payout sweep and reject refunds until the dispute is resolved.
func (s *service) MarkDisputed(ctx context.Context, escrowID uuid.UUID, note string) (*models.EscrowTransaction, error) {
	var out *models.EscrowTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		escrow, err := repo.FindByID(ctx, escrowID)
		if err != nil {
			return notFoundOr(err, "escrow not found")
		}
		switch escrow.Status {
		case enums.EscrowStatusHeld, enums.EscrowStatusEligibleForPayout, enums.EscrowStatusPartiallyRefunded:
		default:
			return transitionErr(escrow.Status, enums.EscrowStatusInDispute)
		}
		if err := repo.Update(ctx, escrow.ID, map[string]any{"status": enums.EscrowStatusInDispute}); err != nil {
			return err
		}
		if err := repo.AppendAudit(ctx, &models.EscrowAuditLog{
			ID:         uuid.New(),
			EscrowID:   escrow.ID,
			FromStatus: escrow.Status,
			ToStatus:   enums.EscrowStatusInDispute,
			Note:       note,
		}); err != nil {
			return err
		}
		escrow.Status = enums.EscrowStatusInDispute
		out = escrow
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEscrowDisputed,
			AggregateType: enums.AggregateEscrowTransaction,
			AggregateID:   escrow.ID,
			Data: payloads.EscrowDisputedEvent{
				EscrowID:      escrow.ID,
				SubOrderID:    escrow.SubOrderID,
				SellerStoreID: escrow.SellerStoreID,
				Note:          note,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveDispute restores the status the escrow held when the dispute
// was opened, read back from the audit trail.
func (s *service) ResolveDispute(ctx context.Context, escrowID uuid.UUID, note string) (*models.EscrowTransaction, error) {
	var out *models.EscrowTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		escrow, err := repo.FindByID(ctx, escrowID)
		if err != nil {
			return notFoundOr(err, "escrow not found")
		}
		if escrow.Status != enums.EscrowStatusInDispute {
			return transitionErr(escrow.Status, enums.EscrowStatusHeld)
		}
		entry, err := repo.FindLastAuditTo(ctx, escrow.ID, enums.EscrowStatusInDispute)
		if err != nil {
			return notFoundOr(err, "no dispute audit entry found")
		}
		restored := entry.FromStatus
		if err := repo.Update(ctx, escrow.ID, map[string]any{"status": restored}); err != nil {
			return err
		}
		if err := repo.AppendAudit(ctx, &models.EscrowAuditLog{
			ID:         uuid.New(),
			EscrowID:   escrow.ID,
			FromStatus: enums.EscrowStatusInDispute,
			ToStatus:   restored,
			Note:       note,
		}); err != nil {
			return err
		}
		escrow.Status = restored
		out = escrow
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEscrowDisputeClosed,
			AggregateType: enums.AggregateEscrowTransaction,
			AggregateID:   escrow.ID,
			Data: payloads.EscrowDisputeClosedEvent{
				EscrowID:       escrow.ID,
				SubOrderID:     escrow.SubOrderID,
				SellerStoreID:  escrow.SellerStoreID,
				RestoredStatus: restored,
				Note:           note,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordClawback appends a recovery row against a released escrow. The
// escrow itself is terminal and never mutates; the row feeds the next
// settlement as a negative line.
func (s *service) RecordClawback(ctx context.Context, input ClawbackInput) (*models.CommissionTransaction, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "clawback amount must be positive")
	}

	var out *models.CommissionTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		escrow, err := repo.FindByID(ctx, input.EscrowID)
		if err != nil {
			return notFoundOr(err, "escrow not found")
		}
		if escrow.Status != enums.EscrowStatusReleased {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "clawbacks apply to released escrows only")
		}
		txn := &models.CommissionTransaction{
			ID:                 uuid.New(),
			EscrowID:           escrow.ID,
			Type:               enums.CommissionTransactionTypeClawback,
			CommissionAmount:   input.Amount,
			PercentageApplied:  decimal.Zero,
			FixedFeeApplied:    decimal.Zero,
			Source:             enums.CommissionRuleScopeGlobal,
			GrossAtCalculation: input.Amount,
		}
		if err := repo.CreateCommissionTransaction(ctx, txn); err != nil {
			return err
		}
		if err := repo.AppendAudit(ctx, &models.EscrowAuditLog{
			ID:         uuid.New(),
			EscrowID:   escrow.ID,
			FromStatus: escrow.Status,
			ToStatus:   escrow.Status,
			Note:       clawbackNote(input.Reason),
		}); err != nil {
			return err
		}
		out = txn
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventClawbackRecorded,
			AggregateType: enums.AggregateEscrowTransaction,
			AggregateID:   escrow.ID,
			Data: payloads.ClawbackRecordedEvent{
				EscrowID:      escrow.ID,
				SubOrderID:    escrow.SubOrderID,
				SellerStoreID: escrow.SellerStoreID,
				Amount:        input.Amount,
				Reason:        input.Reason,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) GetEscrow(ctx context.Context, escrowID uuid.UUID) (*EscrowDetail, error) {
	escrow, err := s.repo.FindByID(ctx, escrowID)
	if err != nil {
		return nil, notFoundOr(err, "escrow not found")
	}
	txns, err := s.repo.ListCommissionTransactions(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	audit, err := s.repo.ListAudit(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	return &EscrowDetail{
		Escrow:                 escrow,
		CommissionTransactions: txns,
		AuditLog:               audit,
	}, nil
}

func (s *service) ListEscrows(ctx context.Context, filters ListFilters, params pagination.Params) (*EscrowList, error) {
	return s.repo.List(ctx, filters, params)
}

func initialCommission(ctx context.Context, repo Repository, escrowID uuid.UUID) (*models.CommissionTransaction, error) {
	txns, err := repo.ListCommissionTransactions(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	for i := range txns {
		if txns[i].Type == enums.CommissionTransactionTypeInitial {
			return &txns[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "escrow has no initial commission transaction")
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return err
}

func transitionErr(from, to enums.EscrowStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition,
		fmt.Sprintf("cannot transition escrow from %s to %s", from, to))
}

func refundNote(reason string, full bool) string {
	base := "partial refund applied"
	if full {
		base = "full balance returned to buyer"
	}
	if reason == "" {
		return base
	}
	return base + ": " + reason
}

func clawbackNote(reason string) string {
	if reason == "" {
		return "clawback recorded"
	}
	return "clawback recorded: " + reason
}
