package commission

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendaria/vendaria-backend/pkg/db/models"
	"github.com/vendaria/vendaria-backend/pkg/enums"
	pkgerrors "github.com/vendaria/vendaria-backend/pkg/errors"
	"github.com/vendaria/vendaria-backend/pkg/logger"
)

type stubRuleRepo struct {
	effective []models.CommissionRule
	created   *models.CommissionRule
	updated   map[string]any
	rule      *models.CommissionRule
}

func (s *stubRuleRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRuleRepo) Create(ctx context.Context, rule *models.CommissionRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	s.created = rule
	return nil
}

func (s *stubRuleRepo) Update(ctx context.Context, ruleID uuid.UUID, updates map[string]any) error {
	s.updated = updates
	return nil
}

func (s *stubRuleRepo) FindByID(ctx context.Context, ruleID uuid.UUID) (*models.CommissionRule, error) {
	if s.rule == nil || s.rule.ID != ruleID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.rule, nil
}

func (s *stubRuleRepo) FindEffective(ctx context.Context, at time.Time) ([]models.CommissionRule, error) {
	return s.effective, nil
}

func (s *stubRuleRepo) List(ctx context.Context, filters ListFilters) ([]models.CommissionRule, error) {
	return s.effective, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func categoryRule(categoryID uuid.UUID, pct, fee string) models.CommissionRule {
	return models.CommissionRule{
		ID:             uuid.New(),
		Scope:          enums.CommissionRuleScopeCategory,
		CategoryID:     &categoryID,
		Percentage:     dec(pct),
		FixedFee:       dec(fee),
		EffectiveStart: time.Now().Add(-24 * time.Hour),
		Active:         true,
	}
}

func sellerRule(sellerID uuid.UUID, pct, fee string) models.CommissionRule {
	return models.CommissionRule{
		ID:             uuid.New(),
		Scope:          enums.CommissionRuleScopeSeller,
		SellerStoreID:  &sellerID,
		Percentage:     dec(pct),
		FixedFee:       dec(fee),
		EffectiveStart: time.Now().Add(-24 * time.Hour),
		Active:         true,
	}
}

func globalRule(pct, fee string) models.CommissionRule {
	return models.CommissionRule{
		ID:             uuid.New(),
		Scope:          enums.CommissionRuleScopeGlobal,
		Percentage:     dec(pct),
		FixedFee:       dec(fee),
		EffectiveStart: time.Now().Add(-24 * time.Hour),
		Active:         true,
	}
}

func TestResolveCategoryBeatsSeller(t *testing.T) {
	sellerID := uuid.New()
	categoryID := uuid.New()
	catRule := categoryRule(categoryID, "8.00", "0.50")
	repo := &stubRuleRepo{effective: []models.CommissionRule{
		sellerRule(sellerID, "12.00", "0"),
		catRule,
		globalRule("10.00", "1.00"),
	}}
	resolver, err := NewResolver(repo, testLogger(t))
	if err != nil {
		t.Fatalf("resolver constructor failed: %v", err)
	}

	decision, err := resolver.Resolve(context.Background(), ResolveInput{
		SellerStoreID: sellerID,
		CategoryID:    &categoryID,
		SellerTier:    enums.SellerTierStandard,
		SaleDate:      time.Now(),
		GrossAmount:   dec("100.00"),
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if decision.Source != enums.CommissionRuleScopeCategory {
		t.Fatalf("expected category source got %s", decision.Source)
	}
	if decision.RuleID == nil || *decision.RuleID != catRule.ID {
		t.Fatal("expected the category rule to win")
	}
}

func TestResolveSellerBeatsTierAndGlobal(t *testing.T) {
	sellerID := uuid.New()
	tier := enums.SellerTierGold
	tierRule := models.CommissionRule{
		ID:             uuid.New(),
		Scope:          enums.CommissionRuleScopeSellerTier,
		SellerTier:     &tier,
		Percentage:     dec("7.00"),
		FixedFee:       dec("0"),
		EffectiveStart: time.Now().Add(-24 * time.Hour),
		Active:         true,
	}
	repo := &stubRuleRepo{effective: []models.CommissionRule{
		tierRule,
		sellerRule(sellerID, "5.00", "0.25"),
		globalRule("10.00", "1.00"),
	}}
	resolver, _ := NewResolver(repo, testLogger(t))

	decision, err := resolver.Resolve(context.Background(), ResolveInput{
		SellerStoreID: sellerID,
		SellerTier:    tier,
		SaleDate:      time.Now(),
		GrossAmount:   dec("50.00"),
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if decision.Source != enums.CommissionRuleScopeSeller {
		t.Fatalf("expected seller source got %s", decision.Source)
	}
}

func TestResolvePriorityBreaksTies(t *testing.T) {
	sellerID := uuid.New()
	low := globalRule("10.00", "0")
	high := globalRule("12.00", "0")
	high.Priority = 10
	repo := &stubRuleRepo{effective: []models.CommissionRule{low, high}}
	resolver, _ := NewResolver(repo, testLogger(t))

	decision, err := resolver.Resolve(context.Background(), ResolveInput{
		SellerStoreID: sellerID,
		SellerTier:    enums.SellerTierStandard,
		SaleDate:      time.Now(),
		GrossAmount:   dec("10.00"),
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if decision.RuleID == nil || *decision.RuleID != high.ID {
		t.Fatal("expected the higher priority rule to win")
	}
}

func TestResolveNoMatchDefaultsToZero(t *testing.T) {
	repo := &stubRuleRepo{}
	resolver, _ := NewResolver(repo, testLogger(t))

	decision, err := resolver.Resolve(context.Background(), ResolveInput{
		SellerStoreID: uuid.New(),
		SellerTier:    enums.SellerTierStandard,
		SaleDate:      time.Now(),
		GrossAmount:   dec("25.00"),
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if decision.RuleID != nil {
		t.Fatal("expected no rule id")
	}
	if !decision.CommissionFor(dec("25.00")).IsZero() {
		t.Fatal("expected zero commission")
	}
}

func TestResolveRejectsNonPositiveGross(t *testing.T) {
	resolver, _ := NewResolver(&stubRuleRepo{}, testLogger(t))

	_, err := resolver.Resolve(context.Background(), ResolveInput{
		SellerStoreID: uuid.New(),
		SellerTier:    enums.SellerTierStandard,
		SaleDate:      time.Now(),
		GrossAmount:   decimal.Zero,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidAmount) {
		t.Fatalf("expected invalid amount error got %v", err)
	}
}

func TestCommissionForRoundsHalfUp(t *testing.T) {
	decision := Decision{Percentage: dec("10.00"), FixedFee: dec("1.00")}

	got := decision.CommissionFor(dec("60.00"))
	if !got.Equal(dec("7.00")) {
		t.Fatalf("expected 7.00 got %s", got)
	}

	// 10.05 * 2.5% = 0.25125 rounds to 0.25
	decision = Decision{Percentage: dec("2.50"), FixedFee: decimal.Zero}
	got = decision.CommissionFor(dec("10.05"))
	if !got.Equal(dec("0.25")) {
		t.Fatalf("expected 0.25 got %s", got)
	}
}
