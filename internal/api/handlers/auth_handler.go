package handlers

import (
	"net/http"

	"github.com/zatekoja/healia/backend/internal/application/services"
)

// AuthHandler signs the user in and out
type AuthHandler struct {
	identity *services.IdentityService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

type signInRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// SignIn handles POST /api/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeRequest(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}

	identity, err := h.identity.SignIn(r.Context(), req.IDToken)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, identity)
}

// SignOut handles POST /api/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.SignOut(r.Context()); err != nil {
		respondWithAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := h.identity.Current()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"signed_in": identity != nil,
		"identity":  identity,
	})
}
