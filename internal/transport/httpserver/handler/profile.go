package handler

import (
	"errors"
	"net/http"

	userdomain "policy-records-go/internal/domain/user"
	"policy-records-go/internal/transport/httpserver/middleware"
)

type updateProfileRequest struct {
	Name         *string `json:"name"`
	FullAddress  *string `json:"fullAddress"`
	MobileNumber *string `json:"mobileNumber"`
	Designation  *string `json:"designation"`
	Email        *string `json:"email"`
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	updated, err := h.Users.UpdateProfile(r.Context(), user.ID, userdomain.ProfileUpdate{
		Name:        req.Name,
		Address:     req.FullAddress,
		Mobile:      req.MobileNumber,
		Designation: req.Designation,
		Email:       req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, userdomain.ErrInvalidInput):
			h.log.BusinessError("profile.update: invalid input", err, "user_id", user.ID)
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, userdomain.ErrDuplicateUser):
			h.log.BusinessError("profile.update: duplicate user", err, "user_id", user.ID)
			writeError(w, http.StatusConflict, "user_exists", "email or mobile number already registered")
		case errors.Is(err, userdomain.ErrUserNotFound):
			h.log.BusinessError("profile.update: user not found", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "user_not_found", "user not found")
		default:
			h.writeStorageError(w, "profile.update", err, "user_id", user.ID)
		}
		return
	}

	h.refreshSession(r, *updated)
	writeJSON(w, http.StatusOK, toUserResponse(*updated))
}

// refreshSession updates the logged-in snapshot; a failure only leaves the
// snapshot stale.
func (h *Handlers) refreshSession(r *http.Request, updated userdomain.User) {
	holder, ok := middleware.HolderFromContext(r.Context())
	if !ok {
		return
	}
	if err := holder.Refresh(r.Context(), updated); err != nil {
		h.log.Warn("session.refresh: update snapshot failed", "user_id", updated.ID, "err", err)
	}
}
