package commission

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendaria/vendaria-backend/pkg/db/models"
	"github.com/vendaria/vendaria-backend/pkg/enums"
)

func setupCommissionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS commission_rules (
  id TEXT PRIMARY KEY,
  scope TEXT NOT NULL,
  percentage TEXT NOT NULL,
  fixed_fee TEXT NOT NULL,
  category_id TEXT,
  seller_store_id TEXT,
  seller_tier TEXT,
  effective_start DATETIME NOT NULL,
  effective_end DATETIME,
  priority INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_by TEXT NOT NULL,
  updated_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedRule(t *testing.T, repo Repository, mutate func(*models.CommissionRule)) *models.CommissionRule {
	t.Helper()

	rule := &models.CommissionRule{
		ID:             uuid.New(),
		Scope:          enums.CommissionRuleScopeGlobal,
		Percentage:     decimal.RequireFromString("10.00"),
		FixedFee:       decimal.RequireFromString("0.30"),
		EffectiveStart: time.Now().Add(-24 * time.Hour),
		Active:         true,
		CreatedBy:      uuid.New(),
	}
	if mutate != nil {
		mutate(rule)
	}
	require.NoError(t, repo.Create(context.Background(), rule))
	return rule
}

func TestRepositoryCreateAndFindByID(t *testing.T) {
	repo := NewRepository(setupCommissionTestDB(t))

	sellerID := uuid.New()
	created := seedRule(t, repo, func(r *models.CommissionRule) {
		r.Scope = enums.CommissionRuleScopeSeller
		r.SellerStoreID = &sellerID
		r.Percentage = decimal.RequireFromString("7.50")
	})

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, enums.CommissionRuleScopeSeller, found.Scope)
	require.NotNil(t, found.SellerStoreID)
	assert.Equal(t, sellerID, *found.SellerStoreID)
	assert.True(t, found.Percentage.Equal(decimal.RequireFromString("7.50")))
}

func TestRepositoryCreatePersistsInactiveFlag(t *testing.T) {
	repo := NewRepository(setupCommissionTestDB(t))

	created := seedRule(t, repo, func(r *models.CommissionRule) {
		r.Active = false
	})

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, found.Active)
}

func TestRepositoryFindEffectiveFiltersAndOrders(t *testing.T) {
	repo := NewRepository(setupCommissionTestDB(t))
	now := time.Now()

	global := seedRule(t, repo, func(r *models.CommissionRule) {
		r.Priority = 0
	})
	sellerID := uuid.New()
	seller := seedRule(t, repo, func(r *models.CommissionRule) {
		r.Scope = enums.CommissionRuleScopeSeller
		r.SellerStoreID = &sellerID
		r.Priority = 30
	})
	seedRule(t, repo, func(r *models.CommissionRule) {
		r.Active = false
		r.Priority = 50
	})
	seedRule(t, repo, func(r *models.CommissionRule) {
		r.EffectiveStart = now.Add(-72 * time.Hour)
		end := now.Add(-48 * time.Hour)
		r.EffectiveEnd = &end
		r.Priority = 40
	})
	seedRule(t, repo, func(r *models.CommissionRule) {
		r.EffectiveStart = now.Add(48 * time.Hour)
		r.Priority = 20
	})

	effective, err := repo.FindEffective(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, effective, 2)
	assert.Equal(t, seller.ID, effective[0].ID)
	assert.Equal(t, global.ID, effective[1].ID)
}

func TestRepositoryListFilters(t *testing.T) {
	repo := NewRepository(setupCommissionTestDB(t))

	seedRule(t, repo, nil)
	sellerID := uuid.New()
	sellerRule := seedRule(t, repo, func(r *models.CommissionRule) {
		r.Scope = enums.CommissionRuleScopeSeller
		r.SellerStoreID = &sellerID
	})
	seedRule(t, repo, func(r *models.CommissionRule) {
		r.Active = false
	})

	scope := string(enums.CommissionRuleScopeSeller)
	rules, err := repo.List(context.Background(), ListFilters{Scope: &scope})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, sellerRule.ID, rules[0].ID)

	active, err := repo.List(context.Background(), ListFilters{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	bySeller, err := repo.List(context.Background(), ListFilters{SellerStoreID: &sellerID})
	require.NoError(t, err)
	require.Len(t, bySeller, 1)
	assert.Equal(t, sellerRule.ID, bySeller[0].ID)
}

func TestRepositoryUpdate(t *testing.T) {
	repo := NewRepository(setupCommissionTestDB(t))

	rule := seedRule(t, repo, nil)
	actor := uuid.New()
	err := repo.Update(context.Background(), rule.ID, map[string]any{
		"active":     false,
		"updated_by": actor,
	})
	require.NoError(t, err)

	found, err := repo.FindByID(context.Background(), rule.ID)
	require.NoError(t, err)
	assert.False(t, found.Active)
	require.NotNil(t, found.UpdatedBy)
	assert.Equal(t, actor, *found.UpdatedBy)
}
