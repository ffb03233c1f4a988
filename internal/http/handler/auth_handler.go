package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"creator-marketplace-service/internal/http/middleware"
	"creator-marketplace-service/internal/http/response"
	"creator-marketplace-service/internal/observability"
	"creator-marketplace-service/internal/security"
	"creator-marketplace-service/internal/service"
)

const maxAuthBodyBytes = 1 << 20

type AuthHandler struct {
	auth    service.AuthServiceInterface
	cookies *security.CookieManager
	logger  *slog.Logger

	tokenTTL time.Duration
}

func NewAuthHandler(auth service.AuthServiceInterface, cookies *security.CookieManager, logger *slog.Logger, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies, logger: logger, tokenTTL: tokenTTL}
}

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxAuthBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return false
	}
	return true
}

func deviceInfo(r *http.Request) service.DeviceInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		ip = host
	}
	return service.DeviceInfo{UserAgent: r.UserAgent(), IP: ip}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := validateSignup(req); len(fields) > 0 {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "validation failed", fields)
		return
	}

	user, err := h.auth.Signup(r.Context(), service.SignupInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			response.Error(w, r, http.StatusBadRequest, "EMAIL_EXISTS", "an account with this email already exists", nil)
			return
		}
		h.internalError(w, r, "signup", err)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "auth.signup",
		ActorUserID: observability.ActorUserID(user.ID),
		TargetType:  "user",
		TargetID:    observability.ActorUserID(user.ID),
		Action:      "signup",
		Outcome:     "success",
	})
	response.JSON(w, r, http.StatusCreated, map[string]interface{}{
		"user":    user,
		"message": "verification email sent",
	})
}

func validateSignup(req signupRequest) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		fields["email"] = "a valid email address is required"
	}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "name is required"
	}
	if len(req.Password) < 8 {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "token is required", nil)
		return
	}
	if err := h.auth.VerifyEmail(r.Context(), req.Token); err != nil {
		if errors.Is(err, security.ErrInvalidToken) {
			response.Error(w, r, http.StatusBadRequest, "INVALID_TOKEN", "invalid or expired verification token", nil)
			return
		}
		h.internalError(w, r, "verify email", err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "email verified"})
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.auth.ResendVerification(r.Context(), req.Email); err != nil {
		h.internalError(w, r, "resend verification", err)
		return
	}
	// Same answer whether or not the address is registered.
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "if the account exists, a verification email was sent"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password, deviceInfo(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password", nil)
		case errors.Is(err, service.ErrEmailNotVerified):
			response.Error(w, r, http.StatusUnauthorized, "EMAIL_NOT_VERIFIED", "email address is not verified", nil)
		default:
			h.internalError(w, r, "login", err)
		}
		return
	}

	h.cookies.SetTokenCookies(w, result.AccessToken, result.RefreshToken, h.tokenTTL)
	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "auth.login",
		ActorUserID: observability.ActorUserID(result.User.ID),
		TargetType:  "session",
		TargetID:    observability.ActorUserID(result.Session.ID),
		Action:      "login",
		Outcome:     "success",
	})
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"user":         result.User,
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

// Refresh accepts the refresh token from the cookie or, as a fallback,
// the request body. A failed rotation clears both cookies so a broken
// client does not keep replaying a dead token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	raw := security.GetCookie(r, security.RefreshTokenCookie)
	if raw == "" {
		var req tokenRequest
		if r.Body != nil && r.ContentLength != 0 {
			if !decodeJSON(w, r, &req) {
				return
			}
		}
		raw = req.Token
	}
	if raw == "" {
		response.Error(w, r, http.StatusUnauthorized, "MISSING_TOKEN", "refresh token required", nil)
		return
	}

	result, err := h.auth.Refresh(r.Context(), raw, deviceInfo(r))
	if err != nil {
		if errors.Is(err, security.ErrInvalidToken) {
			h.cookies.ClearTokenCookies(w)
			response.Error(w, r, http.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired refresh token", nil)
			return
		}
		h.internalError(w, r, "refresh", err)
		return
	}

	h.cookies.SetTokenCookies(w, result.AccessToken, result.RefreshToken, h.tokenTTL)
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

// Logout revokes whichever session the presented token resolves to and
// clears cookies regardless. It cannot fail from the client's view.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	raw := security.GetCookie(r, security.AccessTokenCookie)
	if raw == "" {
		raw = security.GetCookie(r, security.RefreshTokenCookie)
	}
	if raw == "" {
		auth := strings.TrimSpace(r.Header.Get("Authorization"))
		if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
			raw = strings.TrimSpace(auth[7:])
		}
	}

	if err := h.auth.Logout(r.Context(), raw); err != nil {
		h.logger.ErrorContext(r.Context(), "logout", "error", err)
	}
	h.cookies.ClearTokenCookies(w)
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "authentication required", nil)
		return
	}

	n, err := h.auth.LogoutAll(r.Context(), identity.User.ID)
	if err != nil {
		h.internalError(w, r, "logout all", err)
		return
	}
	h.cookies.ClearTokenCookies(w)
	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "auth.logout_all",
		ActorUserID: observability.ActorUserID(identity.User.ID),
		TargetType:  "user",
		TargetID:    observability.ActorUserID(identity.User.ID),
		Action:      "logout_all",
		Outcome:     "success",
	}, "sessions_revoked", n)
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"message":          "all sessions revoked",
		"sessions_revoked": n,
	})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.internalError(w, r, "request password reset", err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "if the account exists, a reset email was sent"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" || len(req.Password) < 8 {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "token and a password of at least 8 characters are required", nil)
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, security.ErrInvalidToken) {
			response.Error(w, r, http.StatusBadRequest, "INVALID_TOKEN", "invalid or expired reset token", nil)
			return
		}
		h.internalError(w, r, "reset password", err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "password reset, all sessions revoked"})
}

func (h *AuthHandler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), op, "error", err)
	response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}
