package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vendaria/vendaria-backend/internal/settlement"
	"github.com/vendaria/vendaria-backend/pkg/db/models"
	pkgerrors "github.com/vendaria/vendaria-backend/pkg/errors"
	"github.com/vendaria/vendaria-backend/pkg/logger"
)

type fakeSellerLister struct {
	sellers   []uuid.UUID
	lastStart time.Time
	lastEnd   time.Time
	err       error
}

func (f *fakeSellerLister) SellersWithActivity(ctx context.Context, periodStart, periodEnd time.Time) ([]uuid.UUID, error) {
	f.lastStart = periodStart
	f.lastEnd = periodEnd
	if f.err != nil {
		return nil, f.err
	}
	return f.sellers, nil
}

type fakeGenerator struct {
	inputs   []settlement.GenerateInput
	failWith map[uuid.UUID]error
}

func (f *fakeGenerator) Generate(ctx context.Context, input settlement.GenerateInput) (*models.Settlement, error) {
	if err, ok := f.failWith[input.SellerStoreID]; ok {
		return nil, err
	}
	f.inputs = append(f.inputs, input)
	return &models.Settlement{ID: uuid.New(), SellerStoreID: input.SellerStoreID}, nil
}

func newSettlementJob(t *testing.T, sellers *fakeSellerLister, generator *fakeGenerator) *settlementJob {
	t.Helper()
	jobIface, err := NewSettlementJob(SettlementJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Sellers:   sellers,
		Generator: generator,
	})
	if err != nil {
		t.Fatalf("NewSettlementJob: %v", err)
	}
	job, ok := jobIface.(*settlementJob)
	if !ok {
		t.Fatalf("expected settlementJob, got %T", jobIface)
	}
	return job
}

func TestSettlementJobDraftsPreviousMonth(t *testing.T) {
	now := time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC)
	sellers := &fakeSellerLister{sellers: []uuid.UUID{uuid.New(), uuid.New()}}
	generator := &fakeGenerator{}
	job := newSettlementJob(t, sellers, generator)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	if !sellers.lastStart.Equal(wantStart) || !sellers.lastEnd.Equal(wantEnd) {
		t.Fatalf("expected period %s to %s got %s to %s", wantStart, wantEnd, sellers.lastStart, sellers.lastEnd)
	}
	if len(generator.inputs) != 2 {
		t.Fatalf("expected 2 settlements drafted got %d", len(generator.inputs))
	}
}

func TestSettlementJobSkipsAlreadySettled(t *testing.T) {
	settled := uuid.New()
	fresh := uuid.New()
	sellers := &fakeSellerLister{sellers: []uuid.UUID{settled, fresh}}
	generator := &fakeGenerator{failWith: map[uuid.UUID]error{
		settled: pkgerrors.New(pkgerrors.CodeSettlementExists, "already settled"),
	}}
	job := newSettlementJob(t, sellers, generator)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected already-settled seller not to fail the run: %v", err)
	}
	if len(generator.inputs) != 1 || generator.inputs[0].SellerStoreID != fresh {
		t.Fatal("expected only the unsettled seller drafted")
	}
}

func TestSettlementJobCollectsFailures(t *testing.T) {
	broken := uuid.New()
	sellers := &fakeSellerLister{sellers: []uuid.UUID{broken}}
	generator := &fakeGenerator{failWith: map[uuid.UUID]error{
		broken: errors.New("db timeout"),
	}}
	job := newSettlementJob(t, sellers, generator)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected aggregated error")
	}
}
