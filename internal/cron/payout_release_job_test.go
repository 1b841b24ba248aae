package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vendaria/vendaria-backend/pkg/db/models"
	pkgerrors "github.com/vendaria/vendaria-backend/pkg/errors"
	"github.com/vendaria/vendaria-backend/pkg/logger"
)

type fakeReleasableReader struct {
	escrows    []models.EscrowTransaction
	lastCutoff time.Time
	lastLimit  int
	err        error
}

func (f *fakeReleasableReader) FindReleasable(ctx context.Context, cutoff time.Time, limit int) ([]models.EscrowTransaction, error) {
	f.lastCutoff = cutoff
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.escrows, nil
}

type fakeReleaser struct {
	released []uuid.UUID
	failWith map[uuid.UUID]error
}

func (f *fakeReleaser) Release(ctx context.Context, escrowID uuid.UUID) (*models.EscrowTransaction, error) {
	if err, ok := f.failWith[escrowID]; ok {
		return nil, err
	}
	f.released = append(f.released, escrowID)
	return &models.EscrowTransaction{ID: escrowID}, nil
}

func newPayoutReleaseJob(t *testing.T, reader *fakeReleasableReader, releaser *fakeReleaser) *payoutReleaseJob {
	t.Helper()
	jobIface, err := NewPayoutReleaseJob(PayoutReleaseJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Reader:   reader,
		Releaser: releaser,
	})
	if err != nil {
		t.Fatalf("NewPayoutReleaseJob: %v", err)
	}
	job, ok := jobIface.(*payoutReleaseJob)
	if !ok {
		t.Fatalf("expected payoutReleaseJob, got %T", jobIface)
	}
	return job
}

func TestPayoutReleaseJobReleasesDueEscrows(t *testing.T) {
	now := time.Date(2026, 3, 20, 6, 0, 0, 0, time.UTC)
	reader := &fakeReleasableReader{escrows: []models.EscrowTransaction{
		{ID: uuid.New()},
		{ID: uuid.New()},
	}}
	releaser := &fakeReleaser{}
	job := newPayoutReleaseJob(t, reader, releaser)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reader.lastCutoff.Equal(now) {
		t.Fatalf("expected cutoff %s got %s", now, reader.lastCutoff)
	}
	if reader.lastLimit != defaultSweepBatchSize {
		t.Fatalf("expected batch size %d got %d", defaultSweepBatchSize, reader.lastLimit)
	}
	if len(releaser.released) != 2 {
		t.Fatalf("expected 2 releases got %d", len(releaser.released))
	}
}

func TestPayoutReleaseJobSkipsStaleRows(t *testing.T) {
	contested := uuid.New()
	healthy := uuid.New()
	reader := &fakeReleasableReader{escrows: []models.EscrowTransaction{
		{ID: contested},
		{ID: healthy},
	}}
	releaser := &fakeReleaser{failWith: map[uuid.UUID]error{
		contested: pkgerrors.New(pkgerrors.CodeInvalidTransition, "escrow disputed mid-sweep"),
	}}
	job := newPayoutReleaseJob(t, reader, releaser)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected skipped row not to fail the run: %v", err)
	}
	if len(releaser.released) != 1 || releaser.released[0] != healthy {
		t.Fatal("expected only the healthy escrow released")
	}
}

func TestPayoutReleaseJobCollectsFailures(t *testing.T) {
	broken := uuid.New()
	healthy := uuid.New()
	reader := &fakeReleasableReader{escrows: []models.EscrowTransaction{
		{ID: broken},
		{ID: healthy},
	}}
	releaser := &fakeReleaser{failWith: map[uuid.UUID]error{
		broken: errors.New("db timeout"),
	}}
	job := newPayoutReleaseJob(t, reader, releaser)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(releaser.released) != 1 {
		t.Fatal("expected the run to continue past the failure")
	}
}
