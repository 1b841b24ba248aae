package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendaria/vendaria-backend/api/responses"
	"github.com/vendaria/vendaria-backend/api/validators"
	"github.com/vendaria/vendaria-backend/internal/escrow"
	"github.com/vendaria/vendaria-backend/pkg/enums"
	pkgerrors "github.com/vendaria/vendaria-backend/pkg/errors"
	"github.com/vendaria/vendaria-backend/pkg/logger"
	"github.com/vendaria/vendaria-backend/pkg/pagination"
)

const (
	defaultEscrowPageSize = 50
	maxEscrowPageSize     = 200
	maxEscrowNoteLen      = 2000
)

type escrowDisputeRequest struct {
	Note string `json:"note" validate:"required"`
}

type escrowClawbackRequest struct {
	Amount string `json:"amount" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// EscrowList returns a page of escrow rows filtered by seller and status.
func EscrowList(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		filters := escrow.ListFilters{}

		if raw := strings.TrimSpace(r.URL.Query().Get("seller_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller_id"))
				return
			}
			filters.SellerStoreID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseEscrowStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			filters.Status = &status
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultEscrowPageSize, 1, maxEscrowPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		page, err := svc.ListEscrows(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"escrows":     page.Escrows,
			"next_cursor": page.NextCursor,
		})
	}
}

// EscrowDetail returns an escrow with its commission transactions and audit trail.
func EscrowDetail(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		escrowID, err := pathUUID(r, "escrowId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetEscrow(r.Context(), escrowID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"escrow":                  detail.Escrow,
			"commission_transactions": detail.CommissionTransactions,
			"audit_log":               detail.AuditLog,
		})
	}
}

// EscrowDispute freezes an escrow pending dispute resolution.
func EscrowDispute(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		escrowID, err := pathUUID(r, "escrowId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload escrowDisputeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.MarkDisputed(r.Context(), escrowID, validators.SanitizeString(payload.Note, maxEscrowNoteLen))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// EscrowResolveDispute lifts the dispute freeze and restores the prior state.
func EscrowResolveDispute(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		escrowID, err := pathUUID(r, "escrowId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload escrowDisputeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.ResolveDispute(r.Context(), escrowID, validators.SanitizeString(payload.Note, maxEscrowNoteLen))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// EscrowClawback records a post-release commission recovery.
func EscrowClawback(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		escrowID, err := pathUUID(r, "escrowId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload escrowClawbackRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(payload.Amount))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		txn, err := svc.RecordClawback(r.Context(), escrow.ClawbackInput{
			EscrowID: escrowID,
			Amount:   amount,
			Reason:   validators.SanitizeString(payload.Reason, maxEscrowNoteLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}
