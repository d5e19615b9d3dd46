package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/schoolflow/schoolflow-backend/internal/auth/service"
	"github.com/schoolflow/schoolflow-backend/internal/authz"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
	"github.com/schoolflow/schoolflow-backend/pkg/httputil"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	service      *service.AuthService
	logger       *logger.Logger
	cookieSecure bool
}

// NewAuthHandler creates a new auth handler. cookieSecure should be true
// everywhere except local development, where requests aren't guaranteed
// to arrive over TLS.
func NewAuthHandler(svc *service.AuthService, log *logger.Logger, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		service:      svc,
		logger:       log,
		cookieSecure: cookieSecure,
	}
}

const refreshCookieMaxAge = 7 * 24 * time.Hour

// Login handles user login. The refresh token rides both in the JSON body
// (for clients that manage it themselves) and in an HttpOnly cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	userAgent := r.UserAgent()
	ipAddress := r.RemoteAddr

	response, err := h.service.Login(r.Context(), &req, userAgent, ipAddress)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.SetRefreshTokenCookie(w, response.RefreshToken, refreshCookieMaxAge, h.cookieSecure)
	httputil.JSON(w, http.StatusOK, response)
}

// Logout handles user logout, revoking the refresh token wherever it was
// supplied (body, Authorization header, or cookie) and clearing the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := httputil.DecodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 {
				req.RefreshToken = parts[1]
			}
		}
	}
	if req.RefreshToken == "" {
		req.RefreshToken = httputil.RefreshTokenFromCookie(r)
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		h.logger.Warn().Err(err).Msg("logout error")
	}

	httputil.ClearRefreshTokenCookie(w, h.cookieSecure)
	httputil.NoContent(w)
}

// Refresh handles token refresh. The refresh token may arrive in the body
// or, if omitted, is read from the HttpOnly cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = httputil.DecodeJSON(r, &req)

	if req.RefreshToken == "" {
		req.RefreshToken = httputil.RefreshTokenFromCookie(r)
	}
	if req.RefreshToken == "" {
		httputil.Error(w, errors.BadRequest("refresh_token is required"))
		return
	}

	tokens, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.SetRefreshTokenCookie(w, tokens.RefreshToken, refreshCookieMaxAge, h.cookieSecure)
	httputil.JSON(w, http.StatusOK, tokens)
}

// forgotPasswordRequest is the body for ForgotPassword.
type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword triggers a password-reset email. It always responds 204
// regardless of whether the address is registered, so the endpoint can't be
// used to enumerate accounts.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.Warn().Err(err).Msg("password reset request failed")
	}

	httputil.NoContent(w)
}

// resetPasswordRequest is the body for ResetPassword.
type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// ResetPassword redeems a reset token and sets a new password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Me returns the current caller's identity as resolved by the authz
// pipeline — no gateway headers, no second trip to the database for roles
// and permissions already attached to the request context.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	info, ok := authz.FromContext(r.Context())
	if !ok {
		httputil.Error(w, errors.Unauthorized("not authenticated"))
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), info.UserID, info.TenantID, info.TenantSlug)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}
