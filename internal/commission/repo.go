package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendaria/vendaria-backend/pkg/db/models"
)

// Repository manages persistence for commission rules.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rule *models.CommissionRule) error
	Update(ctx context.Context, ruleID uuid.UUID, updates map[string]any) error
	FindByID(ctx context.Context, ruleID uuid.UUID) (*models.CommissionRule, error)
	FindEffective(ctx context.Context, at time.Time) ([]models.CommissionRule, error)
	List(ctx context.Context, filters ListFilters) ([]models.CommissionRule, error)
}

// ListFilters narrows rule listings for the admin surface.
type ListFilters struct {
	Scope         *string
	SellerStoreID *uuid.UUID
	CategoryID    *uuid.UUID
	ActiveOnly    bool
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a commission rule repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, rule *models.CommissionRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) Update(ctx context.Context, ruleID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.CommissionRule{}).
		Where("id = ?", ruleID).
		Updates(updates).Error
}

func (r *repository) FindByID(ctx context.Context, ruleID uuid.UUID) (*models.CommissionRule, error) {
	var rule models.CommissionRule
	if err := r.db.WithContext(ctx).Where("id = ?", ruleID).First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repository) FindEffective(ctx context.Context, at time.Time) ([]models.CommissionRule, error) {
	var rules []models.CommissionRule
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("effective_start <= ?", at).
		Where("(effective_end IS NULL OR effective_end >= ?)", at).
		Order("priority DESC").
		Order("effective_start DESC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]models.CommissionRule, error) {
	query := r.db.WithContext(ctx).Model(&models.CommissionRule{})
	if filters.Scope != nil {
		query = query.Where("scope = ?", *filters.Scope)
	}
	if filters.SellerStoreID != nil {
		query = query.Where("seller_store_id = ?", *filters.SellerStoreID)
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.ActiveOnly {
		query = query.Where("active = ?", true)
	}

	var rules []models.CommissionRule
	if err := query.Order("created_at DESC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}
