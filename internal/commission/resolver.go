package commission

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendaria/vendaria-backend/pkg/db/models"
	"github.com/vendaria/vendaria-backend/pkg/enums"
	pkgerrors "github.com/vendaria/vendaria-backend/pkg/errors"
	"github.com/vendaria/vendaria-backend/pkg/logger"
)

var oneHundred = decimal.NewFromInt(100)

// Resolver picks the commission terms that apply to a single sale.
type Resolver interface {
	Resolve(ctx context.Context, input ResolveInput) (*Decision, error)
}

// ResolveInput identifies the sale being priced.
type ResolveInput struct {
	SellerStoreID uuid.UUID
	CategoryID    *uuid.UUID
	SellerTier    enums.SellerTier
	SaleDate      time.Time
	GrossAmount   decimal.Decimal
}

// Decision is the resolved commission terms for one sale. A zero-valued
// decision with SourceGlobal means no rule matched; resolution never fails
// on missing configuration because commission absence must not block a
// confirmed payment.
type Decision struct {
	RuleID     *uuid.UUID
	Percentage decimal.Decimal
	FixedFee   decimal.Decimal
	Source     enums.CommissionRuleScope
}

// CommissionFor applies the decision to a gross amount, rounding half away
// from zero to 2 digits so fractional cents never systematically undercount
// the platform's cut.
func (d Decision) CommissionFor(gross decimal.Decimal) decimal.Decimal {
	return gross.Mul(d.Percentage).Div(oneHundred).Add(d.FixedFee).Round(2)
}

type resolver struct {
	repo Repository
	logg *logger.Logger
}

// NewResolver wires a commission resolver with the provided rule repository.
func NewResolver(repo Repository, logg *logger.Logger) (Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("commission repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &resolver{repo: repo, logg: logg}, nil
}

func (r *resolver) Resolve(ctx context.Context, input ResolveInput) (*Decision, error) {
	if input.GrossAmount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAmount, "gross amount must be positive")
	}
	if input.SellerStoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller store id required")
	}

	rules, err := r.repo.FindEffective(ctx, input.SaleDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load effective commission rules")
	}

	if rule := pickRule(rules, input); rule != nil {
		id := rule.ID
		return &Decision{
			RuleID:     &id,
			Percentage: rule.Percentage,
			FixedFee:   rule.FixedFee,
			Source:     rule.Scope,
		}, nil
	}

	logCtx := r.logg.WithFields(ctx, map[string]any{
		"seller_store_id": input.SellerStoreID.String(),
		"sale_date":       input.SaleDate,
	})
	r.logg.Warn(logCtx, "no commission rule matched; defaulting to zero commission")

	return &Decision{
		Percentage: decimal.Zero.Round(2),
		FixedFee:   decimal.Zero.Round(2),
		Source:     enums.CommissionRuleScopeGlobal,
	}, nil
}

// pickRule walks the precedence ladder: a category rule beats a seller rule,
// which beats a tier rule, which beats the global fallback. Ties within a
// rung fall to the highest priority, then the most recent effective start.
func pickRule(rules []models.CommissionRule, input ResolveInput) *models.CommissionRule {
	buckets := map[enums.CommissionRuleScope][]models.CommissionRule{}
	for _, rule := range rules {
		if !matches(rule, input) {
			continue
		}
		buckets[rule.Scope] = append(buckets[rule.Scope], rule)
	}

	precedence := []enums.CommissionRuleScope{
		enums.CommissionRuleScopeCategory,
		enums.CommissionRuleScopeSeller,
		enums.CommissionRuleScopeSellerTier,
		enums.CommissionRuleScopeGlobal,
	}
	for _, scope := range precedence {
		candidates := buckets[scope]
		if len(candidates) == 0 {
			continue
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].Priority != candidates[j].Priority {
				return candidates[i].Priority > candidates[j].Priority
			}
			return candidates[i].EffectiveStart.After(candidates[j].EffectiveStart)
		})
		winner := candidates[0]
		return &winner
	}
	return nil
}

func matches(rule models.CommissionRule, input ResolveInput) bool {
	switch rule.Scope {
	case enums.CommissionRuleScopeCategory:
		return rule.CategoryID != nil && input.CategoryID != nil && *rule.CategoryID == *input.CategoryID
	case enums.CommissionRuleScopeSeller:
		return rule.SellerStoreID != nil && *rule.SellerStoreID == input.SellerStoreID
	case enums.CommissionRuleScopeSellerTier:
		return rule.SellerTier != nil && *rule.SellerTier == input.SellerTier
	case enums.CommissionRuleScopeGlobal:
		return true
	default:
		return false
	}
}
