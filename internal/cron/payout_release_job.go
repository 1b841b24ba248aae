package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/vendaria/vendaria-backend/pkg/db/models"
	pkgerrors "github.com/vendaria/vendaria-backend/pkg/errors"
	"github.com/vendaria/vendaria-backend/pkg/logger"
)

const defaultSweepBatchSize = 200

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type releasableReader interface {
	FindReleasable(ctx context.Context, cutoff time.Time, limit int) ([]models.EscrowTransaction, error)
}

type escrowReleaser interface {
	Release(ctx context.Context, escrowID uuid.UUID) (*models.EscrowTransaction, error)
}

// PayoutReleaseJobParams configure the payout eligibility sweep.
type PayoutReleaseJobParams struct {
	Logger    *logger.Logger
	Reader    releasableReader
	Releaser  escrowReleaser
	BatchSize int
}

// NewPayoutReleaseJob builds the sweep that releases escrows whose hold
// window has elapsed. Each release runs in its own transaction and
// re-checks status, so rows refunded or disputed mid-sweep are skipped
// rather than failing the run.
func NewPayoutReleaseJob(params PayoutReleaseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("releasable reader required")
	}
	if params.Releaser == nil {
		return nil, fmt.Errorf("escrow releaser required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}
	return &payoutReleaseJob{
		logg:      params.Logger,
		reader:    params.Reader,
		releaser:  params.Releaser,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type payoutReleaseJob struct {
	logg      *logger.Logger
	reader    releasableReader
	releaser  escrowReleaser
	batchSize int
	now       func() time.Time
}

func (j *payoutReleaseJob) Name() string { return "payout-release" }

func (j *payoutReleaseJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	escrows, err := j.reader.FindReleasable(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("query releasable escrows: %w", err)
	}

	released := 0
	skipped := 0
	var errs []error
	for _, escrow := range escrows {
		if _, err := j.releaser.Release(ctx, escrow.ID); err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
				skipped++
				continue
			}
			errs = append(errs, fmt.Errorf("release escrow %s: %w", escrow.ID, err))
			continue
		}
		released++
	}

	fields := map[string]any{
		"candidates": len(escrows),
		"released":   released,
		"skipped":    skipped,
		"failed":     len(errs),
	}
	logCtx := j.logg.WithFields(ctx, fields)
	j.logg.Info(logCtx, "payout release sweep finished")
	return multierr.Combine(errs...)
}
