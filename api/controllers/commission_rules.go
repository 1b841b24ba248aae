package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendaria/vendaria-backend/api/middleware"
	"github.com/vendaria/vendaria-backend/api/responses"
	"github.com/vendaria/vendaria-backend/api/validators"
	"github.com/vendaria/vendaria-backend/internal/commission"
	"github.com/vendaria/vendaria-backend/pkg/enums"
	pkgerrors "github.com/vendaria/vendaria-backend/pkg/errors"
	"github.com/vendaria/vendaria-backend/pkg/logger"
)

type commissionRuleCreateRequest struct {
	Scope          string     `json:"scope" validate:"required"`
	Percentage     string     `json:"percentage" validate:"required"`
	FixedFee       string     `json:"fixed_fee"`
	CategoryID     *string    `json:"category_id"`
	SellerStoreID  *string    `json:"seller_store_id"`
	SellerTier     *string    `json:"seller_tier"`
	EffectiveStart time.Time  `json:"effective_start" validate:"required"`
	EffectiveEnd   *time.Time `json:"effective_end"`
	Priority       int        `json:"priority"`
}

func (r commissionRuleCreateRequest) toInput(actor uuid.UUID) (commission.CreateRuleInput, error) {
	scope, err := enums.ParseCommissionRuleScope(strings.TrimSpace(r.Scope))
	if err != nil {
		return commission.CreateRuleInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid rule scope")
	}

	pct, err := decimal.NewFromString(strings.TrimSpace(r.Percentage))
	if err != nil {
		return commission.CreateRuleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid percentage")
	}

	fee := decimal.Zero
	if strings.TrimSpace(r.FixedFee) != "" {
		fee, err = decimal.NewFromString(strings.TrimSpace(r.FixedFee))
		if err != nil {
			return commission.CreateRuleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fixed_fee")
		}
	}

	input := commission.CreateRuleInput{
		Scope:          scope,
		Percentage:     pct,
		FixedFee:       fee,
		EffectiveStart: r.EffectiveStart,
		EffectiveEnd:   r.EffectiveEnd,
		Priority:       r.Priority,
		ActorID:        actor,
	}

	if r.CategoryID != nil {
		id, err := uuid.Parse(strings.TrimSpace(*r.CategoryID))
		if err != nil {
			return commission.CreateRuleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id")
		}
		input.CategoryID = &id
	}
	if r.SellerStoreID != nil {
		id, err := uuid.Parse(strings.TrimSpace(*r.SellerStoreID))
		if err != nil {
			return commission.CreateRuleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller_store_id")
		}
		input.SellerStoreID = &id
	}
	if r.SellerTier != nil {
		tier, err := enums.ParseSellerTier(strings.TrimSpace(*r.SellerTier))
		if err != nil {
			return commission.CreateRuleInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid seller_tier")
		}
		input.SellerTier = &tier
	}

	return input, nil
}

type commissionRuleUpdateRequest struct {
	Percentage   *string    `json:"percentage"`
	FixedFee     *string    `json:"fixed_fee"`
	EffectiveEnd *time.Time `json:"effective_end"`
	Priority     *int       `json:"priority"`
	Active       *bool      `json:"active"`
}

func (r commissionRuleUpdateRequest) toInput(actor uuid.UUID) (commission.UpdateRuleInput, error) {
	input := commission.UpdateRuleInput{
		EffectiveEnd: r.EffectiveEnd,
		Priority:     r.Priority,
		Active:       r.Active,
		ActorID:      actor,
	}

	if r.Percentage != nil {
		pct, err := decimal.NewFromString(strings.TrimSpace(*r.Percentage))
		if err != nil {
			return commission.UpdateRuleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid percentage")
		}
		input.Percentage = &pct
	}
	if r.FixedFee != nil {
		fee, err := decimal.NewFromString(strings.TrimSpace(*r.FixedFee))
		if err != nil {
			return commission.UpdateRuleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fixed_fee")
		}
		input.FixedFee = &fee
	}

	return input, nil
}

// actorFromContext resolves the authenticated back-office user.
func actorFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	actor, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return actor, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}

// CommissionRuleCreate handles registering a new commission rule.
func CommissionRuleCreate(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload commissionRuleCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.CreateRule(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rule)
	}
}

// CommissionRuleUpdate applies a partial update to an existing rule.
func CommissionRuleUpdate(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ruleID, err := pathUUID(r, "ruleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload commissionRuleUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.UpdateRule(r.Context(), ruleID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rule)
	}
}

// CommissionRuleDeactivate soft-disables a rule; the row is kept for audits.
func CommissionRuleDeactivate(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ruleID, err := pathUUID(r, "ruleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.DeactivateRule(r.Context(), ruleID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rule)
	}
}

// CommissionRuleGet returns a single rule.
func CommissionRuleGet(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		ruleID, err := pathUUID(r, "ruleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.GetRule(r.Context(), ruleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rule)
	}
}

// CommissionRuleList returns rules filtered by scope, seller, category, or active flag.
func CommissionRuleList(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		filters := commission.ListFilters{}

		if scope := strings.TrimSpace(r.URL.Query().Get("scope")); scope != "" {
			if _, err := enums.ParseCommissionRuleScope(scope); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid scope filter"))
				return
			}
			filters.Scope = &scope
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("seller_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller_id"))
				return
			}
			filters.SellerStoreID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id"))
				return
			}
			filters.CategoryID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("active")); raw != "" {
			active, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid active value"))
				return
			}
			filters.ActiveOnly = active
		}

		rules, err := svc.ListRules(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rules)
	}
}
