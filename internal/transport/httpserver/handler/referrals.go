package handler

import (
	"errors"
	"net/http"

	"policy-records-go/internal/domain/referral"
	"policy-records-go/internal/transport/httpserver/middleware"

	"github.com/shopspring/decimal"
)

type validateReferralRequest struct {
	Code string `json:"code"`
}

type validateReferralResponse struct {
	Valid        bool            `json:"valid"`
	ReferrerID   string          `json:"referrer_id"`
	ReferrerName string          `json:"referrer_name"`
	ReferralCode string          `json:"referral_code"`
	Discount     decimal.Decimal `json:"discount"`
}

type referralLinkResponse struct {
	Code string `json:"code"`
	Link string `json:"link"`
}

func (h *Handlers) ValidateReferral(w http.ResponseWriter, r *http.Request) {
	var req validateReferralRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	check, err := h.Referrals.CheckCode(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, referral.ErrUnknownCode) {
			h.log.BusinessError("referrals.validate: unknown code", err, "code", req.Code)
			writeError(w, http.StatusNotFound, "referral_code_not_found", "invalid referral code")
			return
		}
		h.writeStorageError(w, "referrals.validate", err)
		return
	}

	writeJSON(w, http.StatusOK, validateReferralResponse{
		Valid:        true,
		ReferrerID:   check.ReferrerID,
		ReferrerName: check.ReferrerName,
		ReferralCode: check.ReferralCode,
		Discount:     check.Discount,
	})
}

func (h *Handlers) ReferralStats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	stats, err := h.Referrals.Stats(r.Context(), user.ID)
	if err != nil {
		h.writeStorageError(w, "referrals.stats", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) RebuildReferralStats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	stats, err := h.Referrals.RebuildStats(r.Context(), user.ID)
	if err != nil {
		h.writeStorageError(w, "referrals.rebuild", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) ReferralTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	items, err := h.Referrals.Transactions(r.Context(), user.ID)
	if err != nil {
		h.writeStorageError(w, "referrals.transactions", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *Handlers) ReferralLink(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	code := user.ReferralCode
	if code == "" {
		code = "REF" + user.ID
	}
	writeJSON(w, http.StatusOK, referralLinkResponse{
		Code: code,
		Link: referral.Link(h.options.PublicURL, code),
	})
}
