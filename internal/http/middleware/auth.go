package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"creator-marketplace-service/internal/http/response"
	"creator-marketplace-service/internal/repository"
	"creator-marketplace-service/internal/security"
)

// AuthGate resolves a presented access token to a live session and user.
// The session store, not the token's embedded expiry, is the source of
// truth for validity.
type AuthGate struct {
	jwt      *security.JWTManager
	sessions repository.SessionRepository
	users    repository.UserRepository
	pepper   string
	logger   *slog.Logger
}

func NewAuthGate(jwtMgr *security.JWTManager, sessions repository.SessionRepository, users repository.UserRepository, pepper string, logger *slog.Logger) *AuthGate {
	return &AuthGate{jwt: jwtMgr, sessions: sessions, users: users, pepper: pepper, logger: logger}
}

// extractToken returns the access token from exactly one source: the
// accessToken cookie wins over the Authorization header, never merged.
func extractToken(r *http.Request) string {
	if v := security.GetCookie(r, security.AccessTokenCookie); v != "" {
		return v
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}

// resolve maps a raw token to an identity. Every failure mode (bad
// signature, expired, unknown, revoked) collapses to ErrInvalidToken so
// callers cannot tell how close a token came to working.
func (g *AuthGate) resolve(r *http.Request, raw string) (*Identity, error) {
	if _, err := g.jwt.Parse(raw); err != nil {
		g.logger.DebugContext(r.Context(), "token verification failed", "error", err)
		return nil, security.ErrInvalidToken
	}
	now := time.Now().UTC()
	session, err := g.sessions.FindActiveByAccessHash(security.HashToken(raw, g.pepper), now)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, security.ErrInvalidToken
		}
		return nil, err
	}
	user, err := g.users.FindByID(session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, security.ErrInvalidToken
		}
		return nil, err
	}

	// Best effort: a failed activity update must not block the request.
	if err := g.sessions.TouchActivity(session.ID, now); err != nil {
		g.logger.WarnContext(r.Context(), "touch session activity", "session_id", session.ID, "error", err)
	} else {
		session.LastActivity = now
	}
	return &Identity{User: user, Session: session}, nil
}

// RequireAuth rejects with 401 before the downstream handler runs:
// MISSING_TOKEN when nothing was presented, INVALID_TOKEN otherwise.
func (g *AuthGate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractToken(r)
		if raw == "" {
			response.Error(w, r, http.StatusUnauthorized, "MISSING_TOKEN", "authentication token required", nil)
			return
		}
		identity, err := g.resolve(r, raw)
		if err != nil {
			if errors.Is(err, security.ErrInvalidToken) {
				response.Error(w, r, http.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired token", nil)
				return
			}
			g.logger.ErrorContext(r.Context(), "auth resolution failed", "error", err)
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "authentication unavailable", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// OptionalAuth attaches an identity when a valid token is presented and
// proceeds anonymously otherwise; it never fails the request.
func (g *AuthGate) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := extractToken(r); raw != "" {
			if identity, err := g.resolve(r, raw); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), identity))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles composes on top of RequireAuth, never standalone: without
// a resolved identity it answers 401, with the wrong role 403.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "authentication required", nil)
				return
			}
			if _, ok := allowed[identity.User.Role]; !ok {
				response.Error(w, r, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
