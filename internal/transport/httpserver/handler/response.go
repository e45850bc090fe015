package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"policy-records-go/internal/kv"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeStorageError reports a failed read or write of the backing store.
func (h *Handlers) writeStorageError(w http.ResponseWriter, op string, err error, args ...any) {
	if errors.Is(err, kv.ErrQuotaExceeded) {
		h.log.BusinessError(op+": storage quota exceeded", err, args...)
		writeError(w, http.StatusInsufficientStorage, "storage_full", "storage quota exceeded")
		return
	}
	h.log.InternalError(op+": storage failed", err, args...)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
