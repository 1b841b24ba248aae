package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/vendaria/vendaria-backend/internal/settlement"
	"github.com/vendaria/vendaria-backend/pkg/db/models"
	pkgerrors "github.com/vendaria/vendaria-backend/pkg/errors"
	"github.com/vendaria/vendaria-backend/pkg/logger"
)

type activeSellerLister interface {
	SellersWithActivity(ctx context.Context, periodStart, periodEnd time.Time) ([]uuid.UUID, error)
}

type settlementGenerator interface {
	Generate(ctx context.Context, input settlement.GenerateInput) (*models.Settlement, error)
}

// SettlementJobParams configure the monthly settlement run.
type SettlementJobParams struct {
	Logger    *logger.Logger
	Sellers   activeSellerLister
	Generator settlementGenerator
}

// NewSettlementJob builds the job that drafts last month's settlement
// for every seller with escrow activity. Sellers already settled for
// the period are skipped, so the job is safe to rerun.
func NewSettlementJob(params SettlementJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sellers == nil {
		return nil, fmt.Errorf("seller lister required")
	}
	if params.Generator == nil {
		return nil, fmt.Errorf("settlement generator required")
	}
	return &settlementJob{
		logg:      params.Logger,
		sellers:   params.Sellers,
		generator: params.Generator,
		now:       time.Now,
	}, nil
}

type settlementJob struct {
	logg      *logger.Logger
	sellers   activeSellerLister
	generator settlementGenerator
	now       func() time.Time
}

func (j *settlementJob) Name() string { return "settlement-generation" }

func (j *settlementJob) Run(ctx context.Context) error {
	periodStart, periodEnd := previousMonth(j.now().UTC())
	sellerIDs, err := j.sellers.SellersWithActivity(ctx, periodStart, periodEnd)
	if err != nil {
		return fmt.Errorf("list active sellers: %w", err)
	}

	generated := 0
	skipped := 0
	var errs []error
	for _, sellerID := range sellerIDs {
		_, err := j.generator.Generate(ctx, settlement.GenerateInput{
			SellerStoreID: sellerID,
			PeriodStart:   periodStart,
			PeriodEnd:     periodEnd,
		})
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeSettlementExists) {
				skipped++
				continue
			}
			errs = append(errs, fmt.Errorf("generate settlement for seller %s: %w", sellerID, err))
			continue
		}
		generated++
	}

	fields := map[string]any{
		"period_start": periodStart.Format("2006-01-02"),
		"sellers":      len(sellerIDs),
		"generated":    generated,
		"skipped":      skipped,
		"failed":       len(errs),
	}
	logCtx := j.logg.WithFields(ctx, fields)
	j.logg.Info(logCtx, "settlement generation run finished")
	return multierr.Combine(errs...)
}

func previousMonth(now time.Time) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, -1, 0), end
}
