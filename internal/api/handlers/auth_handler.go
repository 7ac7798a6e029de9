package handlers

import (
	"net/http"

	"github.com/luxequeer/deployer/internal/api/types"
	"github.com/luxequeer/deployer/internal/services"
)

type AuthHandler struct {
	auth     services.AuthService
	validate Validator
}

func NewAuthHandler(auth services.AuthService, v Validator) *AuthHandler {
	return &AuthHandler{auth: auth, validate: v}
}

// Login exchanges the operator password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	tok, err := h.auth.Login(r.Context(), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: tok})
}
