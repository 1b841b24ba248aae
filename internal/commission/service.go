package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendaria/vendaria-backend/pkg/db/models"
	"github.com/vendaria/vendaria-backend/pkg/enums"
	pkgerrors "github.com/vendaria/vendaria-backend/pkg/errors"
)

// Service defines the admin surface for managing commission rules.
// Rules are never hard-deleted; Deactivate retires them so historical
// escrow rows keep pointing at the terms that priced them.
type Service interface {
	CreateRule(ctx context.Context, input CreateRuleInput) (*models.CommissionRule, error)
	UpdateRule(ctx context.Context, ruleID uuid.UUID, input UpdateRuleInput) (*models.CommissionRule, error)
	DeactivateRule(ctx context.Context, ruleID uuid.UUID, actorID uuid.UUID) (*models.CommissionRule, error)
	GetRule(ctx context.Context, ruleID uuid.UUID) (*models.CommissionRule, error)
	ListRules(ctx context.Context, filters ListFilters) ([]models.CommissionRule, error)
}

// CreateRuleInput captures a new commission rule from the admin API.
type CreateRuleInput struct {
	Scope          enums.CommissionRuleScope
	Percentage     decimal.Decimal
	FixedFee       decimal.Decimal
	CategoryID     *uuid.UUID
	SellerStoreID  *uuid.UUID
	SellerTier     *enums.SellerTier
	EffectiveStart time.Time
	EffectiveEnd   *time.Time
	Priority       int
	ActorID        uuid.UUID
}

// UpdateRuleInput carries the mutable fields of an existing rule.
type UpdateRuleInput struct {
	Percentage   *decimal.Decimal
	FixedFee     *decimal.Decimal
	EffectiveEnd *time.Time
	Priority     *int
	Active       *bool
	ActorID      uuid.UUID
}

type service struct {
	repo Repository
}

// NewService builds the commission rule admin service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("commission repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateRule(ctx context.Context, input CreateRuleInput) (*models.CommissionRule, error) {
	if !input.Scope.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid commission rule scope")
	}
	if input.Percentage.IsNegative() || input.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100")
	}
	if input.FixedFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fixed fee must not be negative")
	}
	if input.EffectiveStart.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "effective start required")
	}
	if input.EffectiveEnd != nil && input.EffectiveEnd.Before(input.EffectiveStart) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "effective end precedes effective start")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if err := validateScopeRefs(input); err != nil {
		return nil, err
	}

	rule := &models.CommissionRule{
		Scope:          input.Scope,
		Percentage:     input.Percentage.Round(2),
		FixedFee:       input.FixedFee.Round(2),
		CategoryID:     input.CategoryID,
		SellerStoreID:  input.SellerStoreID,
		SellerTier:     input.SellerTier,
		EffectiveStart: input.EffectiveStart.UTC(),
		EffectiveEnd:   input.EffectiveEnd,
		Priority:       input.Priority,
		Active:         true,
		CreatedBy:      input.ActorID,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create commission rule")
	}
	return rule, nil
}

func (s *service) UpdateRule(ctx context.Context, ruleID uuid.UUID, input UpdateRuleInput) (*models.CommissionRule, error) {
	if ruleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rule id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	rule, err := s.repo.FindByID(ctx, ruleID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "commission rule not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission rule")
	}

	updates := map[string]any{"updated_by": input.ActorID}
	if input.Percentage != nil {
		if input.Percentage.IsNegative() || input.Percentage.GreaterThan(decimal.NewFromInt(100)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100")
		}
		updates["percentage"] = input.Percentage.Round(2)
	}
	if input.FixedFee != nil {
		if input.FixedFee.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fixed fee must not be negative")
		}
		updates["fixed_fee"] = input.FixedFee.Round(2)
	}
	if input.EffectiveEnd != nil {
		if input.EffectiveEnd.Before(rule.EffectiveStart) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "effective end precedes effective start")
		}
		updates["effective_end"] = *input.EffectiveEnd
	}
	if input.Priority != nil {
		updates["priority"] = *input.Priority
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}

	if err := s.repo.Update(ctx, ruleID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update commission rule")
	}
	return s.GetRule(ctx, ruleID)
}

func (s *service) DeactivateRule(ctx context.Context, ruleID uuid.UUID, actorID uuid.UUID) (*models.CommissionRule, error) {
	active := false
	return s.UpdateRule(ctx, ruleID, UpdateRuleInput{Active: &active, ActorID: actorID})
}

func (s *service) GetRule(ctx context.Context, ruleID uuid.UUID) (*models.CommissionRule, error) {
	rule, err := s.repo.FindByID(ctx, ruleID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "commission rule not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission rule")
	}
	return rule, nil
}

func (s *service) ListRules(ctx context.Context, filters ListFilters) ([]models.CommissionRule, error) {
	rules, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list commission rules")
	}
	return rules, nil
}

func validateScopeRefs(input CreateRuleInput) error {
	switch input.Scope {
	case enums.CommissionRuleScopeCategory:
		if input.CategoryID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "category rule requires category id")
		}
	case enums.CommissionRuleScopeSeller:
		if input.SellerStoreID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "seller rule requires seller store id")
		}
	case enums.CommissionRuleScopeSellerTier:
		if input.SellerTier == nil || !input.SellerTier.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "tier rule requires a valid seller tier")
		}
	}
	return nil
}
