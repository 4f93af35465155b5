package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"purchase-costing/internal/app"
	"purchase-costing/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps service errors onto HTTP statuses: validation
// failures are 422 with the validation kind as the code, upstream fetch
// failures are 502, unknown drafts 404, stale catalog selections 409.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		writeError(w, r, ve.Msg, string(ve.Kind), http.StatusUnprocessableEntity)
		return
	}
	var fe *core.FetchError
	if errors.As(err, &fe) {
		writeError(w, r, fe.Error(), "UPSTREAM_ERROR", http.StatusBadGateway)
		return
	}
	if errors.Is(err, app.ErrDraftNotFound) {
		writeError(w, r, "draft not found or expired", "DRAFT_NOT_FOUND", http.StatusNotFound)
		return
	}
	if errors.Is(err, core.ErrStaleSelection) {
		writeError(w, r, "selection superseded by a newer one", "STALE_SELECTION", http.StatusConflict)
		return
	}
	writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
}
