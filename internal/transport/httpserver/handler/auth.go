package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	userdomain "policy-records-go/internal/domain/user"
	"policy-records-go/internal/transport/httpserver/middleware"

	"github.com/shopspring/decimal"
)

type signupRequest struct {
	Name         string `json:"name"`
	FullAddress  string `json:"fullAddress"`
	MobileNumber string `json:"mobileNumber"`
	Designation  string `json:"designation"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type userResponse struct {
	ID           string                   `json:"id"`
	EasyID       string                   `json:"easyId"`
	Name         string                   `json:"name"`
	FullAddress  string                   `json:"fullAddress"`
	MobileNumber string                   `json:"mobileNumber"`
	Designation  string                   `json:"designation"`
	Email        string                   `json:"email"`
	CreatedAt    time.Time                `json:"createdAt"`
	Subscription *userdomain.Subscription `json:"subscription,omitempty"`
	ReferralCode string                   `json:"referralCode,omitempty"`
	ReferredBy   string                   `json:"referredBy,omitempty"`
}

type signupResponse struct {
	User            userResponse    `json:"user"`
	ReferralApplied bool            `json:"referral_applied"`
	Discount        decimal.Decimal `json:"discount"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type meResponse struct {
	User               userResponse `json:"user"`
	RecordCount        int          `json:"record_count"`
	SubscriptionActive bool         `json:"subscription_active"`
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	if strings.TrimSpace(req.ReferralCode) == "" {
		req.ReferralCode = r.URL.Query().Get("ref")
	}

	created, err := h.Users.Register(r.Context(), userdomain.RegisterInput{
		Name:         req.Name,
		Address:      req.FullAddress,
		Mobile:       req.MobileNumber,
		Designation:  req.Designation,
		Email:        req.Email,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, userdomain.ErrInvalidInput):
			h.log.BusinessError("auth.signup: invalid input", err)
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, userdomain.ErrDuplicateUser):
			h.log.BusinessError("auth.signup: duplicate user", err)
			writeError(w, http.StatusConflict, "user_exists", "email or mobile number already registered")
		default:
			h.writeStorageError(w, "auth.signup", err)
		}
		return
	}

	resp := signupResponse{User: toUserResponse(*created), Discount: decimal.Zero}
	if created.ReferredBy != "" {
		if err := h.Referrals.AttachSignupCode(r.Context(), created.ID, created.ReferredBy); err != nil {
			h.log.InternalError("auth.signup: store referral code failed", err, "user_id", created.ID)
		} else {
			resp.ReferralApplied = true
			resp.Discount = h.Referrals.SignupDiscount()
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	found, err := h.Users.ValidateCredentials(r.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, userdomain.ErrInvalidCredentials) {
			h.log.BusinessError("auth.login: invalid credentials", err)
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid user id or password")
			return
		}
		h.writeStorageError(w, "auth.login", err)
		return
	}

	token, expiresAt, err := h.Auth.Login(r.Context(), *found)
	if err != nil {
		h.writeStorageError(w, "auth.login", err, "user_id", found.ID)
		return
	}

	h.log.Info("auth.login: user logged in", "user_id", found.ID)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserResponse(*found),
	})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	holder, ok := middleware.HolderFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	if err := holder.Logout(r.Context()); err != nil {
		h.writeStorageError(w, "auth.logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	count, err := h.Records.Count(r.Context(), user.ID)
	if err != nil {
		h.writeStorageError(w, "auth.me", err, "user_id", user.ID)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		User:               toUserResponse(user),
		RecordCount:        count,
		SubscriptionActive: subscriptionActive(user.Subscription, time.Now()),
	})
}

func toUserResponse(u userdomain.User) userResponse {
	return userResponse{
		ID:           u.ID,
		EasyID:       u.EasyID,
		Name:         u.Name,
		FullAddress:  u.Address,
		MobileNumber: u.Mobile,
		Designation:  u.Designation,
		Email:        u.Email,
		CreatedAt:    u.CreatedAt,
		Subscription: u.Subscription,
		ReferralCode: u.ReferralCode,
		ReferredBy:   u.ReferredBy,
	}
}

func subscriptionActive(sub *userdomain.Subscription, now time.Time) bool {
	return sub != nil && sub.Status == userdomain.SubscriptionActive && now.Before(sub.EndDate)
}
