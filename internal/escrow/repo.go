package escrow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendaria/vendaria-backend/pkg/db/models"
	"github.com/vendaria/vendaria-backend/pkg/enums"
	"github.com/vendaria/vendaria-backend/pkg/pagination"
)

// Repository manages persistence for escrow transactions and their
// append-only commission and audit rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, escrow *models.EscrowTransaction) error
	FindByID(ctx context.Context, escrowID uuid.UUID) (*models.EscrowTransaction, error)
	FindBySubOrderID(ctx context.Context, subOrderID uuid.UUID) (*models.EscrowTransaction, error)
	Update(ctx context.Context, escrowID uuid.UUID, updates map[string]any) error
	AppendAudit(ctx context.Context, entry *models.EscrowAuditLog) error
	CreateCommissionTransaction(ctx context.Context, txn *models.CommissionTransaction) error
	ListCommissionTransactions(ctx context.Context, escrowID uuid.UUID) ([]models.CommissionTransaction, error)
	SumCommission(ctx context.Context, escrowID uuid.UUID) (decimal.Decimal, error)
	ListAudit(ctx context.Context, escrowID uuid.UUID) ([]models.EscrowAuditLog, error)
	FindLastAuditTo(ctx context.Context, escrowID uuid.UUID, to enums.EscrowStatus) (*models.EscrowAuditLog, error)
	FindReleasable(ctx context.Context, cutoff time.Time, limit int) ([]models.EscrowTransaction, error)
	FindForSellerPeriod(ctx context.Context, sellerStoreID uuid.UUID, periodStart, periodEnd time.Time) ([]models.EscrowTransaction, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*EscrowList, error)
}

// ListFilters narrows escrow listings for the admin surface.
type ListFilters struct {
	SellerStoreID *uuid.UUID
	Status        *enums.EscrowStatus
}

// EscrowList is one page of escrow rows plus the cursor for the next page.
type EscrowList struct {
	Escrows    []models.EscrowTransaction
	NextCursor string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an escrow repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, escrow *models.EscrowTransaction) error {
	return r.db.WithContext(ctx).Create(escrow).Error
}

func (r *repository) FindByID(ctx context.Context, escrowID uuid.UUID) (*models.EscrowTransaction, error) {
	var escrow models.EscrowTransaction
	if err := r.db.WithContext(ctx).Where("id = ?", escrowID).First(&escrow).Error; err != nil {
		return nil, err
	}
	return &escrow, nil
}

func (r *repository) FindBySubOrderID(ctx context.Context, subOrderID uuid.UUID) (*models.EscrowTransaction, error) {
	var escrow models.EscrowTransaction
	if err := r.db.WithContext(ctx).Where("sub_order_id = ?", subOrderID).First(&escrow).Error; err != nil {
		return nil, err
	}
	return &escrow, nil
}

func (r *repository) Update(ctx context.Context, escrowID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.EscrowTransaction{}).
		Where("id = ?", escrowID).
		Updates(updates).Error
}

func (r *repository) AppendAudit(ctx context.Context, entry *models.EscrowAuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) CreateCommissionTransaction(ctx context.Context, txn *models.CommissionTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListCommissionTransactions(ctx context.Context, escrowID uuid.UUID) ([]models.CommissionTransaction, error) {
	var txns []models.CommissionTransaction
	err := r.db.WithContext(ctx).
		Where("escrow_id = ?", escrowID).
		Order("created_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) SumCommission(ctx context.Context, escrowID uuid.UUID) (decimal.Decimal, error) {
	var raw *string
	err := r.db.WithContext(ctx).
		Model(&models.CommissionTransaction{}).
		Select("SUM(commission_amount)").
		Where("escrow_id = ?", escrowID).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

func (r *repository) ListAudit(ctx context.Context, escrowID uuid.UUID) ([]models.EscrowAuditLog, error) {
	var entries []models.EscrowAuditLog
	err := r.db.WithContext(ctx).
		Where("escrow_id = ?", escrowID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) FindLastAuditTo(ctx context.Context, escrowID uuid.UUID, to enums.EscrowStatus) (*models.EscrowAuditLog, error) {
	var entry models.EscrowAuditLog
	err := r.db.WithContext(ctx).
		Where("escrow_id = ? AND to_status = ?", escrowID, to).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) FindReleasable(ctx context.Context, cutoff time.Time, limit int) ([]models.EscrowTransaction, error) {
	var escrows []models.EscrowTransaction
	err := r.db.WithContext(ctx).
		Where("eligible_for_payout_at IS NOT NULL AND eligible_for_payout_at <= ?", cutoff).
		Where("status IN ?", []enums.EscrowStatus{
			enums.EscrowStatusEligibleForPayout,
			enums.EscrowStatusPartiallyRefunded,
		}).
		Order("eligible_for_payout_at ASC").
		Limit(limit).
		Find(&escrows).Error
	if err != nil {
		return nil, err
	}
	return escrows, nil
}

func (r *repository) FindForSellerPeriod(ctx context.Context, sellerStoreID uuid.UUID, periodStart, periodEnd time.Time) ([]models.EscrowTransaction, error) {
	var escrows []models.EscrowTransaction
	err := r.db.WithContext(ctx).
		Where("seller_store_id = ?", sellerStoreID).
		Where("order_date >= ? AND order_date < ?", periodStart, periodEnd).
		Order("order_date ASC").
		Find(&escrows).Error
	if err != nil {
		return nil, err
	}
	return escrows, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) (*EscrowList, error) {
	query := r.db.WithContext(ctx).Model(&models.EscrowTransaction{})
	if filters.SellerStoreID != nil {
		query = query.Where("seller_store_id = ?", *filters.SellerStoreID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var escrows []models.EscrowTransaction
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&escrows).Error
	if err != nil {
		return nil, err
	}

	list := &EscrowList{}
	if len(escrows) > limit {
		escrows = escrows[:limit]
		last := escrows[len(escrows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Escrows = escrows
	return list, nil
}
