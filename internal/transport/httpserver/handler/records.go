package handler

import (
	"errors"
	"net/http"

	"policy-records-go/internal/domain/records"
	"policy-records-go/internal/transport/httpserver/middleware"

	"github.com/go-chi/chi/v5"
)

type recordsListResponse struct {
	Items []records.PolicyRecord `json:"items"`
	Total int                    `json:"total"`
}

func (h *Handlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	items, err := h.Records.List(r.Context(), user.ID)
	if err != nil {
		h.writeStorageError(w, "records.list", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, recordsListResponse{Items: items, Total: len(items)})
}

func (h *Handlers) RecordTemplate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, records.NewDraft())
}

func (h *Handlers) CreateRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req records.PolicyRecord
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	created, err := h.Records.Append(r.Context(), user.ID, req)
	if err != nil {
		if errors.Is(err, records.ErrInvalidRecord) {
			h.log.BusinessError("records.create: invalid record", err, "user_id", user.ID)
			writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
			return
		}
		h.writeStorageError(w, "records.create", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	recordID := chi.URLParam(r, "id")

	record, err := h.Records.Get(r.Context(), user.ID, recordID)
	if err != nil {
		if errors.Is(err, records.ErrRecordNotFound) {
			h.log.BusinessError("records.get: record not found", err, "user_id", user.ID, "record_id", recordID)
			writeError(w, http.StatusNotFound, "record_not_found", "record not found")
			return
		}
		h.writeStorageError(w, "records.get", err, "user_id", user.ID, "record_id", recordID)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handlers) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	recordID := chi.URLParam(r, "id")

	var patch records.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	updated, found, err := h.Records.UpdateByID(r.Context(), user.ID, recordID, patch)
	if err != nil {
		switch {
		case errors.Is(err, records.ErrInvalidPatch):
			h.log.BusinessError("records.update: invalid patch", err, "user_id", user.ID, "record_id", recordID)
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid record fields")
		case errors.Is(err, records.ErrInvalidRecord):
			h.log.BusinessError("records.update: invalid record", err, "user_id", user.ID, "record_id", recordID)
			writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		default:
			h.writeStorageError(w, "records.update", err, "user_id", user.ID, "record_id", recordID)
		}
		return
	}
	if !found {
		h.log.BusinessError("records.update: record not found", records.ErrRecordNotFound, "user_id", user.ID, "record_id", recordID)
		writeError(w, http.StatusNotFound, "record_not_found", "record not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	if !h.options.RecordsDeleteEnabled {
		writeError(w, http.StatusForbidden, "delete_disabled", "record deletion is disabled")
		return
	}
	recordID := chi.URLParam(r, "id")

	removed, err := h.Records.DeleteByID(r.Context(), user.ID, recordID)
	if err != nil {
		h.writeStorageError(w, "records.delete", err, "user_id", user.ID, "record_id", recordID)
		return
	}
	if !removed {
		h.log.BusinessError("records.delete: record not found", records.ErrRecordNotFound, "user_id", user.ID, "record_id", recordID)
		writeError(w, http.StatusNotFound, "record_not_found", "record not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
