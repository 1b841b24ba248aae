package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendaria/vendaria-backend/pkg/enums"
)

// CommissionRule is one layer of the effective-dated commission hierarchy.
// Rules are never hard-deleted; admins retire them by clearing the active
// flag or setting an effective end date.
type CommissionRule struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Scope          enums.CommissionRuleScope `gorm:"column:scope;type:commission_rule_scope;not null"`
	Percentage     decimal.Decimal           `gorm:"column:percentage;type:numeric(5,2);not null"`
	FixedFee       decimal.Decimal           `gorm:"column:fixed_fee;type:numeric(12,2);not null"`
	CategoryID     *uuid.UUID                `gorm:"column:category_id;type:uuid"`
	SellerStoreID  *uuid.UUID                `gorm:"column:seller_store_id;type:uuid"`
	SellerTier     *enums.SellerTier         `gorm:"column:seller_tier;type:seller_tier"`
	EffectiveStart time.Time                 `gorm:"column:effective_start;not null"`
	EffectiveEnd   *time.Time                `gorm:"column:effective_end"`
	Priority       int                       `gorm:"column:priority;not null;default:0"`
	// No gorm default here: a default tag makes gorm skip the column when
	// the value is false, so an inactive rule would insert as active.
	Active bool `gorm:"column:active;not null"`
	CreatedBy      uuid.UUID                 `gorm:"column:created_by;type:uuid;not null"`
	UpdatedBy      *uuid.UUID                `gorm:"column:updated_by;type:uuid"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectiveAt reports whether the rule covers the given sale date.
func (r CommissionRule) EffectiveAt(at time.Time) bool {
	if !r.Active {
		return false
	}
	if at.Before(r.EffectiveStart) {
		return false
	}
	if r.EffectiveEnd != nil && at.After(*r.EffectiveEnd) {
		return false
	}
	return true
}
