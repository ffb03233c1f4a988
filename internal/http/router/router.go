package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"creator-marketplace-service/internal/domain"
	"creator-marketplace-service/internal/http/handler"
	"creator-marketplace-service/internal/http/middleware"
	"creator-marketplace-service/internal/http/response"
)

// Dependencies is everything the router needs, assembled by the DI
// layer so the wiring stays testable without a live server.
type Dependencies struct {
	Auth   *handler.AuthHandler
	Users  *handler.UserHandler
	Health *handler.HealthHandler
	Gate   *middleware.AuthGate

	Limiter           middleware.Limiter
	RateLimitKeyFunc  func(r *http.Request) string
	RateLimitFailOpen bool
	AuthRateLimitRPM  int
	APIRateLimitRPM   int

	CORSOrigins []string
}

func New(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(dep.CORSOrigins))

	mode := middleware.FailClosed
	if dep.RateLimitFailOpen {
		mode = middleware.FailOpen
	}
	limiter := dep.Limiter
	if limiter == nil {
		limiter = middleware.NewLocalFixedWindowLimiter()
	}
	// The auth scope gets a tighter per-minute budget than the rest of
	// the API: credential endpoints are the brute-force target.
	authLimit := middleware.NewRateLimiterWith(limiter, dep.AuthRateLimitRPM, time.Minute, mode, "auth", dep.RateLimitKeyFunc)
	apiLimit := middleware.NewRateLimiterWith(limiter, dep.APIRateLimitRPM, time.Minute, mode, "api", dep.RateLimitKeyFunc)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", dep.Health.Live)
		r.Get("/ready", dep.Health.Ready)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimit.Middleware())

			r.Post("/signup", dep.Auth.Signup)
			r.Post("/verify-email", dep.Auth.VerifyEmail)
			r.Post("/resend-verification", dep.Auth.ResendVerification)
			r.Post("/login", dep.Auth.Login)
			r.Post("/refresh", dep.Auth.Refresh)
			r.Post("/logout", dep.Auth.Logout)
			r.Post("/forgot-password", dep.Auth.ForgotPassword)
			r.Post("/reset-password", dep.Auth.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(dep.Gate.RequireAuth)
				r.Post("/logout-all", dep.Auth.LogoutAll)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(apiLimit.Middleware())
			r.Use(dep.Gate.RequireAuth)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", dep.Users.Me)
				r.Get("/sessions", dep.Users.ListSessions)
				r.Delete("/sessions/{sessionID}", dep.Users.RevokeSession)
				r.Post("/avatar", dep.Users.UploadAvatar)
				r.Delete("/avatar", dep.Users.DeleteAvatar)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRoles(domain.RoleAdmin))
				r.Get("/users", dep.Users.AdminListUsers)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusMethodNotAllowed, "BAD_REQUEST", "method not allowed", nil)
	})

	return r
}

// corsMiddleware answers preflights and stamps CORS headers for the
// configured origins. Credentials are always allowed since auth rides
// on cookies, which forbids a wildcard origin.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if _, ok := allowed[origin]; ok {
					h := w.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
					h.Set("Vary", "Origin")
					if r.Method == http.MethodOptions {
						h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
						h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept")
						h.Set("Access-Control-Max-Age", "300")
						w.WriteHeader(http.StatusNoContent)
						return
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
