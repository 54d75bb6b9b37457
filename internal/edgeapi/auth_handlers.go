// Package edgeapi exposes the edge service's HTTP surface: login, logout,
// refresh, and the invoice-validation proxy to the scoring service.
package edgeapi

import (
	"net/http"
	"strings"

	"github.com/riskshield/fraudguard/internal/apperr"
	"github.com/riskshield/fraudguard/internal/auth"
	"github.com/riskshield/fraudguard/internal/httpserver"
)

// LoginRequest is the JSON body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the JSON body of POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenResponse is the JSON body defines for login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// AuthHandler binds HTTP to the Authenticator.
type AuthHandler struct {
	authenticator *auth.Authenticator
}

// NewAuthHandler builds the auth HTTP handler.
func NewAuthHandler(authenticator *auth.Authenticator) *AuthHandler {
	return &AuthHandler{authenticator: authenticator}
}

// HandleLogin implements POST /api/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authenticator.Login(r.Context(), r, req.Username, req.Password)
	if err != nil {
		respondAuthErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, toTokenResponse(result))
}

// HandleRefresh implements POST /api/auth/refresh.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authenticator.Refresh(r.Context(), r, req.RefreshToken)
	if err != nil {
		respondAuthErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, toTokenResponse(result))
}

// HandleLogout implements POST /api/auth/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "missing bearer token")
		return
	}
	token := strings.TrimPrefix(header, "Bearer ")

	if err := h.authenticator.Logout(r.Context(), r, token); err != nil {
		respondAuthErr(w, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "logged out",
	})
}

func toTokenResponse(result auth.LoginResult) TokenResponse {
	return TokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    result.ExpiresIn.Milliseconds(),
	}
}

func respondAuthErr(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	httpserver.RespondError(w, apperr.StatusCode(kind), string(kind), apperr.SafeMessage(err))
}
