package settlement

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

// Repository persists settlements, their frozen line items and manual
// adjustments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, settlement *models.Settlement) error
	FindByID(ctx context.Context, settlementID uuid.UUID) (*models.Settlement, error)
	FindCurrentForPeriod(ctx context.Context, sellerStoreID uuid.UUID, periodStart, periodEnd time.Time) (*models.Settlement, error)
	Update(ctx context.Context, settlementID uuid.UUID, updates map[string]any) error
	CreateAdjustment(ctx context.Context, adjustment *models.SettlementAdjustment) error
	SellersWithActivity(ctx context.Context, periodStart, periodEnd time.Time) ([]uuid.UUID, error)
	SumReleasedForSellerPeriod(ctx context.Context, sellerStoreID uuid.UUID, periodStart, periodEnd time.Time) (decimal.Decimal, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*SettlementList, error)
}

// ListFilters narrows settlement listings for the admin surface.
type ListFilters struct {
	SellerStoreID *uuid.UUID
	Status        *enums.SettlementStatus
	CurrentOnly   bool
}

// SettlementList is one page of settlements plus the next-page cursor.
type SettlementList struct {
	Settlements []models.Settlement
	NextCursor  string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a settlement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, settlement *models.Settlement) error {
	return r.db.WithContext(ctx).Create(settlement).Error
}

func (r *repository) FindByID(ctx context.Context, settlementID uuid.UUID) (*models.Settlement, error) {
	var settlement models.Settlement
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("AdjustmentRows").
		Where("id = ?", settlementID).
		First(&settlement).Error
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

func (r *repository) FindCurrentForPeriod(ctx context.Context, sellerStoreID uuid.UUID, periodStart, periodEnd time.Time) (*models.Settlement, error) {
	var settlement models.Settlement
	err := r.db.WithContext(ctx).
		Preload("AdjustmentRows").
		Where("seller_store_id = ?", sellerStoreID).
		Where("period_start = ? AND period_end = ?", periodStart, periodEnd).
		Where("is_current_version = ?", true).
		First(&settlement).Error
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

func (r *repository) Update(ctx context.Context, settlementID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Settlement{}).
		Where("id = ?", settlementID).
		Updates(updates).Error
}

func (r *repository) CreateAdjustment(ctx context.Context, adjustment *models.SettlementAdjustment) error {
	return r.db.WithContext(ctx).Create(adjustment).Error
}

func (r *repository) SellersWithActivity(ctx context.Context, periodStart, periodEnd time.Time) ([]uuid.UUID, error) {
	var sellerIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.EscrowTransaction{}).
		Distinct("seller_store_id").
		Where("order_date >= ? AND order_date < ?", periodStart, periodEnd).
		Pluck("seller_store_id", &sellerIDs).Error
	if err != nil {
		return nil, err
	}
	return sellerIDs, nil
}

func (r *repository) SumReleasedForSellerPeriod(ctx context.Context, sellerStoreID uuid.UUID, periodStart, periodEnd time.Time) (decimal.Decimal, error) {
	var raw *string
	err := r.db.WithContext(ctx).
		Model(&models.EscrowTransaction{}).
		Select("SUM(net_amount)").
		Where("seller_store_id = ?", sellerStoreID).
		Where("status = ?", enums.EscrowStatusReleased).
		Where("released_at >= ? AND released_at < ?", periodStart, periodEnd).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) (*SettlementList, error) {
	query := r.db.WithContext(ctx).Model(&models.Settlement{})
	if filters.SellerStoreID != nil {
		query = query.Where("seller_store_id = ?", *filters.SellerStoreID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CurrentOnly {
		query = query.Where("is_current_version = ?", true)
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
	var settlements []models.Settlement
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&settlements).Error
	if err != nil {
		return nil, err
	}

	list := &SettlementList{}
	if len(settlements) > limit {
		settlements = settlements[:limit]
		last := settlements[len(settlements)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Settlements = settlements
	return list, nil
}
