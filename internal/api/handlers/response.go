package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/luxequeer/deployer/internal/api/middleware"
	"github.com/luxequeer/deployer/internal/api/types"
)

// Validator is the part of *validator.Validate the handlers use.
type Validator interface {
	Struct(any) error
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, types.StatusFor(err), types.APIResponse{
		Success: false,
		Error:   types.FromAppError(err),
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context())},
	})
}

func writeErrorStr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.APIResponse{Success: false, Error: &types.APIError{Code: "invalid", Message: msg}})
}

func decode(w http.ResponseWriter, r *http.Request, v Validator, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := v.Struct(dst); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
