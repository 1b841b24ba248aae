package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/vendaria/vendaria-backend/pkg/db"
	"github.com/vendaria/vendaria-backend/pkg/db/models"
	"github.com/vendaria/vendaria-backend/pkg/enums"
	pkgerrors "github.com/vendaria/vendaria-backend/pkg/errors"
	"github.com/vendaria/vendaria-backend/pkg/logger"
	"github.com/vendaria/vendaria-backend/pkg/outbox"
	"github.com/vendaria/vendaria-backend/pkg/outbox/payloads"
	"github.com/vendaria/vendaria-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// escrowReader is the slice of the escrow repository the generator needs.
type escrowReader interface {
	FindForSellerPeriod(ctx context.Context, sellerStoreID uuid.UUID, periodStart, periodEnd time.Time) ([]models.EscrowTransaction, error)
	ListCommissionTransactions(ctx context.Context, escrowID uuid.UUID) ([]models.CommissionTransaction, error)
}

// Service builds, versions and finalizes seller settlements. Generated
// settlements snapshot escrow figures; a finalized settlement never
// changes, corrections flow through new versions or adjustments.
type Service interface {
	Generate(ctx context.Context, input GenerateInput) (*models.Settlement, error)
	Regenerate(ctx context.Context, settlementID uuid.UUID, actorID uuid.UUID) (*models.Settlement, error)
	Finalize(ctx context.Context, settlementID uuid.UUID, actorID uuid.UUID) (*models.Settlement, error)
	AddAdjustment(ctx context.Context, input AddAdjustmentInput) (*models.Settlement, error)
	GetSettlement(ctx context.Context, settlementID uuid.UUID) (*models.Settlement, error)
	ListSettlements(ctx context.Context, filters ListFilters, params pagination.Params) (*SettlementList, error)
	ExportCSV(ctx context.Context, settlementID uuid.UUID) ([]byte, string, error)
}

type service struct {
	repo    Repository
	escrows escrowReader
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires the settlement service.
func NewService(repo Repository, escrows escrowReader, tx txRunner, ob outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settlement repository is required")
	}
	if escrows == nil {
		return nil, fmt.Errorf("escrow reader is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo:    repo,
		escrows: escrows,
		tx:      tx,
		outbox:  ob,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// GenerateInput identifies the seller and period to settle.
type GenerateInput struct {
	SellerStoreID uuid.UUID
	PeriodStart   time.Time
	PeriodEnd     time.Time
	ActorID       uuid.UUID
}

// AddAdjustmentInput describes a manual correction on a draft settlement.
type AddAdjustmentInput struct {
	SettlementID        uuid.UUID
	Type                enums.SettlementAdjustmentType
	Amount              decimal.Decimal
	Description         string
	RelatedSettlementID *uuid.UUID
	ActorID             uuid.UUID
}

// Generate builds a version-1 draft settlement for a seller and period.
// A second call for the same seller and exact period fails while a
// current version exists; use Regenerate for corrections.
func (s *service) Generate(ctx context.Context, input GenerateInput) (*models.Settlement, error) {
	if err := validatePeriod(input.PeriodStart, input.PeriodEnd); err != nil {
		return nil, err
	}
	if input.SellerStoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller store id required")
	}

	existing, err := s.repo.FindCurrentForPeriod(ctx, input.SellerStoreID, input.PeriodStart, input.PeriodEnd)
	if err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeSettlementExists, "settlement already exists for this seller and period").
			WithDetails(map[string]any{"settlement_number": existing.SettlementNumber})
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settlement, err := s.build(ctx, input.SellerStoreID, input.PeriodStart, input.PeriodEnd, 1, nil, nil)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, settlement); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSettlementGenerated,
			AggregateType: enums.AggregateSettlement,
			AggregateID:   settlement.ID,
			Data:          generatedEvent(settlement),
			Version:       1,
		})
	})
	if err != nil {
		// lost a race with a concurrent generate for the same period
		if dbpkg.IsUniqueViolation(err, "ux_settlements_number") ||
			dbpkg.IsUniqueViolation(err, "ux_settlements_seller_period_current") {
			return nil, pkgerrors.New(pkgerrors.CodeSettlementExists, "settlement already exists for this seller and period")
		}
		return nil, err
	}

	logCtx := s.logg.WithSellerID(ctx, input.SellerStoreID.String())
	s.logg.Info(logCtx, "settlement generated")
	return settlement, nil
}

// Regenerate supersedes the current version and issues the next one,
// recomputed from live escrow data. Manual adjustments are carried
// forward onto the new version.
func (s *service) Regenerate(ctx context.Context, settlementID uuid.UUID, actorID uuid.UUID) (*models.Settlement, error) {
	previous, err := s.repo.FindByID(ctx, settlementID)
	if err != nil {
		return nil, notFoundOr(err, "settlement not found")
	}
	if !previous.IsCurrentVersion {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "only the current version can be regenerated")
	}
	if previous.Status == enums.SettlementStatusFinalized {
		return nil, pkgerrors.New(pkgerrors.CodeSettlementFinalized, "finalized settlements cannot be regenerated, record an adjustment instead")
	}

	next, err := s.build(ctx, previous.SellerStoreID, previous.PeriodStart, previous.PeriodEnd,
		previous.Version+1, &previous.ID, previous.AdjustmentRows)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, previous.ID, map[string]any{
			"is_current_version": false,
			"status":             enums.SettlementStatusSuperseded,
		}); err != nil {
			return err
		}
		if err := repo.Create(ctx, next); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSettlementSuperseded,
			AggregateType: enums.AggregateSettlement,
			AggregateID:   previous.ID,
			Data: payloads.SettlementSupersededEvent{
				SettlementID:     previous.ID,
				SettlementNumber: previous.SettlementNumber,
				SellerStoreID:    previous.SellerStoreID,
				ReplacedByID:     next.ID,
				Version:          previous.Version,
			},
			Version: 1,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSettlementGenerated,
			AggregateType: enums.AggregateSettlement,
			AggregateID:   next.ID,
			Data:          generatedEvent(next),
			Version:       1,
		})
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Finalize locks a draft settlement for payout.
func (s *service) Finalize(ctx context.Context, settlementID uuid.UUID, actorID uuid.UUID) (*models.Settlement, error) {
	var out *models.Settlement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		settlement, err := repo.FindByID(ctx, settlementID)
		if err != nil {
			return notFoundOr(err, "settlement not found")
		}
		if settlement.Status == enums.SettlementStatusFinalized {
			return pkgerrors.New(pkgerrors.CodeSettlementFinalized, "settlement is already finalized")
		}
		if settlement.Status != enums.SettlementStatusDraft {
			return pkgerrors.New(pkgerrors.CodeConflict, "only draft settlements can be finalized")
		}

		finalizedAt := s.now()
		if err := repo.Update(ctx, settlement.ID, map[string]any{
			"status":       enums.SettlementStatusFinalized,
			"finalized_at": finalizedAt,
		}); err != nil {
			return err
		}
		settlement.Status = enums.SettlementStatusFinalized
		settlement.FinalizedAt = &finalizedAt
		out = settlement
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSettlementFinalized,
			AggregateType: enums.AggregateSettlement,
			AggregateID:   settlement.ID,
			Data: payloads.SettlementFinalizedEvent{
				SettlementID:     settlement.ID,
				SettlementNumber: settlement.SettlementNumber,
				SellerStoreID:    settlement.SellerStoreID,
				Version:          settlement.Version,
				NetAmount:        settlement.NetAmount,
				FinalizedAt:      finalizedAt,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddAdjustment folds a manual correction into a draft settlement's
// totals. Referencing an earlier settlement marks the row as a
// prior-period adjustment; the referenced settlement is never touched.
func (s *service) AddAdjustment(ctx context.Context, input AddAdjustmentInput) (*models.Settlement, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid adjustment type")
	}
	if input.Amount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "adjustment amount must be non-zero")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment description required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	var out *models.Settlement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		settlement, err := repo.FindByID(ctx, input.SettlementID)
		if err != nil {
			return notFoundOr(err, "settlement not found")
		}
		if settlement.Status != enums.SettlementStatusDraft {
			return pkgerrors.New(pkgerrors.CodeSettlementFinalized, "adjustments require a draft settlement")
		}

		row := &models.SettlementAdjustment{
			ID:                      uuid.New(),
			SettlementID:            settlement.ID,
			Type:                    input.Type,
			Amount:                  input.Amount.Round(2),
			Description:             input.Description,
			RelatedSettlementID:     input.RelatedSettlementID,
			IsPriorPeriodAdjustment: input.RelatedSettlementID != nil,
			CreatedBy:               input.ActorID,
		}
		if err := repo.CreateAdjustment(ctx, row); err != nil {
			return err
		}

		adjustments := settlement.Adjustments.Add(row.Amount)
		net := settlement.GrossSales.
			Sub(settlement.Refunds).
			Sub(settlement.Commission).
			Add(adjustments)
		if err := repo.Update(ctx, settlement.ID, map[string]any{
			"adjustments": adjustments,
			"net_amount":  net,
		}); err != nil {
			return err
		}
		settlement.Adjustments = adjustments
		settlement.NetAmount = net
		settlement.AdjustmentRows = append(settlement.AdjustmentRows, *row)
		out = settlement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) GetSettlement(ctx context.Context, settlementID uuid.UUID) (*models.Settlement, error) {
	settlement, err := s.repo.FindByID(ctx, settlementID)
	if err != nil {
		return nil, notFoundOr(err, "settlement not found")
	}
	return settlement, nil
}

func (s *service) ListSettlements(ctx context.Context, filters ListFilters, params pagination.Params) (*SettlementList, error) {
	return s.repo.List(ctx, filters, params)
}

// build assembles one settlement version from live escrow data. Carried
// adjustments keep their descriptions and prior-period references but
// get fresh row identities on the new version.
func (s *service) build(ctx context.Context, sellerStoreID uuid.UUID, periodStart, periodEnd time.Time,
	version int, previousID *uuid.UUID, carried []models.SettlementAdjustment) (*models.Settlement, error) {

	escrows, err := s.escrows.FindForSellerPeriod(ctx, sellerStoreID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	settlementID := uuid.New()
	gross, refunds, commission := decimal.Zero, decimal.Zero, decimal.Zero
	items := make([]models.SettlementItem, 0, len(escrows))
	for i := range escrows {
		escrow := escrows[i]
		commissionTotal, err := s.commissionTotal(ctx, escrow.ID)
		if err != nil {
			return nil, err
		}
		net := escrow.GrossAmount.Sub(escrow.RefundedAmount).Sub(commissionTotal)
		items = append(items, models.SettlementItem{
			ID:               uuid.New(),
			SettlementID:     settlementID,
			EscrowID:         escrow.ID,
			SubOrderID:       escrow.SubOrderID,
			OrderNumber:      escrow.OrderNumber,
			OrderDate:        escrow.OrderDate,
			GrossAmount:      escrow.GrossAmount,
			RefundAmount:     escrow.RefundedAmount,
			CommissionAmount: commissionTotal,
			NetAmount:        net,
		})
		gross = gross.Add(escrow.GrossAmount)
		refunds = refunds.Add(escrow.RefundedAmount)
		commission = commission.Add(commissionTotal)
	}

	adjustments := decimal.Zero
	rows := make([]models.SettlementAdjustment, 0, len(carried))
	for _, prior := range carried {
		rows = append(rows, models.SettlementAdjustment{
			ID:                      uuid.New(),
			SettlementID:            settlementID,
			Type:                    prior.Type,
			Amount:                  prior.Amount,
			Description:             prior.Description,
			RelatedSettlementID:     prior.RelatedSettlementID,
			IsPriorPeriodAdjustment: prior.IsPriorPeriodAdjustment,
			CreatedBy:               prior.CreatedBy,
		})
		adjustments = adjustments.Add(prior.Amount)
	}

	totalPayouts, err := s.repo.SumReleasedForSellerPeriod(ctx, sellerStoreID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	net := gross.Sub(refunds).Sub(commission).Add(adjustments)
	return &models.Settlement{
		ID:                   settlementID,
		SettlementNumber:     settlementNumber(sellerStoreID, periodStart, version),
		SellerStoreID:        sellerStoreID,
		PeriodStart:          periodStart,
		PeriodEnd:            periodEnd,
		GrossSales:           gross,
		Refunds:              refunds,
		Commission:           commission,
		Adjustments:          adjustments,
		NetAmount:            net,
		TotalPayouts:         totalPayouts,
		Status:               enums.SettlementStatusDraft,
		Version:              version,
		IsCurrentVersion:     true,
		PreviousSettlementID: previousID,
		Items:                items,
		AdjustmentRows:       rows,
		GeneratedAt:          s.now(),
	}, nil
}

// commissionTotal sums initial and refund-adjustment rows. Clawbacks
// are post-release recoveries and enter settlements only as explicit
// adjustments.
func (s *service) commissionTotal(ctx context.Context, escrowID uuid.UUID) (decimal.Decimal, error) {
	txns, err := s.escrows.ListCommissionTransactions(ctx, escrowID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, txn := range txns {
		if txn.Type == enums.CommissionTransactionTypeClawback {
			continue
		}
		total = total.Add(txn.CommissionAmount)
	}
	return total, nil
}

func settlementNumber(sellerStoreID uuid.UUID, periodStart time.Time, version int) string {
	short := strings.ToUpper(strings.ReplaceAll(sellerStoreID.String(), "-", "")[:8])
	number := fmt.Sprintf("STL-%s-%s", periodStart.Format("200601"), short)
	if version > 1 {
		number = fmt.Sprintf("%s-V%d", number, version)
	}
	return number
}

func generatedEvent(settlement *models.Settlement) payloads.SettlementGeneratedEvent {
	return payloads.SettlementGeneratedEvent{
		SettlementID:     settlement.ID,
		SettlementNumber: settlement.SettlementNumber,
		SellerStoreID:    settlement.SellerStoreID,
		PeriodStart:      settlement.PeriodStart,
		PeriodEnd:        settlement.PeriodEnd,
		Version:          settlement.Version,
		NetAmount:        settlement.NetAmount,
	}
}

func validatePeriod(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "period start and end required")
	}
	if !end.After(start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "period end must follow period start")
	}
	return nil
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return err
}
