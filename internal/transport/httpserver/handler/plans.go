package handler

import (
	"errors"
	"io"
	"net/http"

	"policy-records-go/internal/domain/referral"
	"policy-records-go/internal/domain/subscription"
	userdomain "policy-records-go/internal/domain/user"
	"policy-records-go/internal/transport/httpserver/middleware"

	"github.com/go-chi/chi/v5"
)

type purchaseRequest struct {
	EventID string `json:"event_id"`
}

type referralOutcome struct {
	Applied      bool                   `json:"applied"`
	Reason       string                 `json:"reason"`
	Transactions []referral.Transaction `json:"transactions"`
}

type purchaseResponse struct {
	User     userResponse       `json:"user"`
	Quote    subscription.Quote `json:"quote"`
	Referral referralOutcome    `json:"referral"`
}

const reasonLedgerFailed = "ledger_failed"

func (h *Handlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": h.Subscriptions.Plans()})
}

func (h *Handlers) QuotePlan(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	planID := chi.URLParam(r, "plan_id")

	quote, err := h.Subscriptions.Quote(r.Context(), user.ID, planID)
	if err != nil {
		if errors.Is(err, subscription.ErrPlanNotFound) {
			h.log.BusinessError("plans.quote: plan not found", err, "plan_id", planID)
			writeError(w, http.StatusNotFound, "plan_not_found", "plan not found")
			return
		}
		h.writeStorageError(w, "plans.quote", err, "user_id", user.ID, "plan_id", planID)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// PurchasePlan activates the plan even when settling the referral fails;
// that failure is reported in the referral section of the response.
func (h *Handlers) PurchasePlan(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	planID := chi.URLParam(r, "plan_id")

	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	receipt, err := h.Subscriptions.Purchase(r.Context(), subscription.PurchaseInput{
		UserID:  user.ID,
		PlanID:  planID,
		EventID: req.EventID,
	})
	if receipt == nil {
		if errors.Is(err, subscription.ErrPlanNotFound) {
			h.log.BusinessError("plans.purchase: plan not found", err, "plan_id", planID)
			writeError(w, http.StatusNotFound, "plan_not_found", "plan not found")
			return
		}
		if errors.Is(err, userdomain.ErrUserNotFound) {
			h.log.BusinessError("plans.purchase: user not found", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "user_not_found", "user not found")
			return
		}
		h.writeStorageError(w, "plans.purchase", err, "user_id", user.ID, "plan_id", planID)
		return
	}

	outcome := referralOutcome{
		Applied:      receipt.Referral.Applied,
		Reason:       receipt.Referral.Reason,
		Transactions: receipt.Referral.Transactions,
	}
	if err != nil {
		h.log.InternalError("plans.purchase: settle referral failed", err, "user_id", user.ID, "plan_id", planID)
		outcome.Reason = reasonLedgerFailed
	}
	if outcome.Transactions == nil {
		outcome.Transactions = []referral.Transaction{}
	}

	h.refreshSession(r, *receipt.User)
	h.log.Info("plans.purchase: plan activated", "user_id", user.ID, "plan_id", planID, "referral", outcome.Reason)
	writeJSON(w, http.StatusOK, purchaseResponse{
		User:     toUserResponse(*receipt.User),
		Quote:    receipt.Quote,
		Referral: outcome,
	})
}
